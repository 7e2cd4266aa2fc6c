package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors returned by services. Controllers translate them to an
// HTTP status via StatusCode; anything unrecognized becomes a 500 with a
// generic body so datastore details never reach the client.
var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// Message returns the client-facing message for err. Unexpected errors are
// masked.
func Message(err error) string {
	if StatusCode(err) == fiber.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

// Respond writes the JSON error body for err.
func Respond(c *fiber.Ctx, err error) error {
	return c.Status(StatusCode(err)).JSON(fiber.Map{"error": Message(err)})
}
