package api

import "github.com/gofiber/fiber/v2"

// Route is implemented by every feature's API module. Instances are
// collected through the fx "routes" group and registered at startup.
type Route interface {
	Setup(app *fiber.App)
}
