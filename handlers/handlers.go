// handlers/handlers.go - Shared handler wiring
package handlers

import (
	"errors"
	"time"

	"gemscore/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	ledger     *services.LedgerStore
	gate       *services.Gate
	mission    *services.MissionService
	jwtSecret  []byte
	managerPW  string
	sessionTTL time.Duration

	validate = validator.New()
)

// Deps carries everything the handler package needs at startup.
type Deps struct {
	Ledger          *services.LedgerStore
	Gate            *services.Gate
	Mission         *services.MissionService
	JWTSecret       string
	ManagerPassword string
	SessionTTL      time.Duration
}

// Init wires the package-level services. Must be called before any
// route is registered.
func Init(d Deps) {
	ledger = d.Ledger
	gate = d.Gate
	mission = d.Mission
	jwtSecret = []byte(d.JWTSecret)
	managerPW = d.ManagerPassword
	sessionTTL = d.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
}

// svcError maps service errors onto HTTP responses in the common
// envelope.
func svcError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrTeamNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidValue),
		errors.Is(err, services.ErrOverLimit),
		errors.Is(err, services.ErrUnknownGem),
		errors.Is(err, services.ErrInvalidSort):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrNoPending):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrProviderUnavailable):
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
