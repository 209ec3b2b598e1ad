// handlers/ledger.go - Score mutations, the confirmation gate, and
// activity feeds
package handlers

import (
	"strconv"

	"gemscore/middleware"
	"gemscore/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AwardGemRequest struct {
	Gem string `json:"gem" validate:"required"`
}

type AdjustRequest struct {
	Value    int  `json:"value"`
	IsAdding bool `json:"is_adding"`
}

type DirectSetRequest struct {
	Value int `json:"value"`
}

// AwardGem credits a gem to a team. Leaders can only award to their
// own team; managers can award anywhere.
// POST /api/teams/:id/gems
func AwardGem(c *fiber.Ctx) error {
	id, ok := teamID(c)
	if !ok {
		return badTeamID(c)
	}

	role, _ := middleware.GetRole(c)
	if role == models.RoleLeader {
		own, ok := middleware.GetTeamID(c)
		if !ok || own != id {
			return c.Status(403).JSON(fiber.Map{"success": false, "error": "Leaders can only award gems to their own team"})
		}
	}

	var req AwardGemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Gem name required"})
	}

	score, err := ledger.AwardGem(id, req.Gem)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"team_id": id,
		"score":   score,
	})
}

// RequestAdjust stages a manual adjustment behind the confirmation
// gate. Nothing mutates until the pending action is confirmed.
// POST /api/teams/:id/adjust
func RequestAdjust(c *fiber.Ctx) error {
	id, ok := teamID(c)
	if !ok {
		return badTeamID(c)
	}

	var req AdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	action, err := gate.RequestAdjust(id, req.IsAdding, req.Value)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"pending": action,
	})
}

// RequestDirectSet stages a direct score override behind the gate.
// POST /api/teams/:id/set
func RequestDirectSet(c *fiber.Ctx) error {
	id, ok := teamID(c)
	if !ok {
		return badTeamID(c)
	}

	var req DirectSetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	action, err := gate.RequestDirectSet(id, req.Value)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"pending": action,
	})
}

// GetPending reports the action currently awaiting confirmation.
// GET /api/pending
func GetPending(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"pending": gate.Pending(),
	})
}

// ConfirmPending commits the staged action to the ledger.
// POST /api/pending/confirm
func ConfirmPending(c *fiber.Ctx) error {
	score, action, err := gate.Confirm()
	if err != nil {
		return svcError(c, err)
	}
	logrus.WithFields(logrus.Fields{
		"team":  action.TeamID,
		"kind":  action.Kind,
		"actor": middleware.GetName(c),
	}).Info("✅ Pending action confirmed")
	return c.JSON(fiber.Map{
		"success": true,
		"team_id": action.TeamID,
		"score":   score,
	})
}

// CancelPending discards the staged action without touching scores.
// POST /api/pending/cancel
func CancelPending(c *fiber.Ctx) error {
	if err := gate.Cancel(); err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// Undo rewinds a team's most recent score mutation.
// POST /api/teams/:id/undo
func Undo(c *fiber.Ctx) error {
	id, ok := teamID(c)
	if !ok {
		return badTeamID(c)
	}

	score, err := ledger.Undo(id)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"team_id": id,
		"score":   score,
		"depth":   ledger.UndoDepth(id),
	})
}

// ResetAll zeroes every team's score for a new season.
// POST /api/reset
func ResetAll(c *fiber.Ctx) error {
	if err := ledger.ResetAll(); err != nil {
		return svcError(c, err)
	}
	logrus.WithField("actor", middleware.GetName(c)).Warn("🔄 Season reset")
	return c.JSON(fiber.Map{
		"success": true,
		"teams":   ledger.Teams(),
	})
}

// TeamLogs returns one team's audit trail, newest first.
// GET /api/teams/:id/logs
func TeamLogs(c *fiber.Ctx) error {
	id, ok := teamID(c)
	if !ok {
		return badTeamID(c)
	}

	logs, err := ledger.TeamLogs(id)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"team_id": id,
		"logs":    logs,
	})
}

// Activity returns the cross-team feed, newest first.
// GET /api/activity
func Activity(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid limit"})
		}
		limit = n
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"activity": ledger.RecentActivity(limit),
	})
}
