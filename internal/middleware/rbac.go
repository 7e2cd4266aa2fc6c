package middleware

import (
	"slices"

	"taskpilot/internal/common/models"
	"taskpilot/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// RequireRoles gates a route to the given roles. It assumes AuthMiddleware
// ran first; resource-level ownership checks live in the access service.
func RequireRoles(allowed ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		if !slices.Contains(allowed, claims.Role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: insufficient role",
			})
		}

		return c.Next()
	}
}
