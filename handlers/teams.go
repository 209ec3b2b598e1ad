// handlers/teams.go - Team roster and registry endpoints
package handlers

import (
	"strconv"

	"gemscore/models"
	"gemscore/services"

	"github.com/gofiber/fiber/v2"
)

type SortRequest struct {
	Key string `json:"key" validate:"required"`
}

type UpdateTeamRequest struct {
	Name     *string `json:"name"`
	Leader   *string `json:"leader"`
	Password *string `json:"password"`
	Score    *int    `json:"score"`
}

// GetTeams returns the roster in the active sort order, together with
// the sort config and the gem catalog the client renders from.
// GET /api/teams
func GetTeams(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"teams":   ledger.Teams(),
		"sort":    ledger.SortConfig(),
		"gems":    models.Gems,
	})
}

// GetTeam returns a single team.
// GET /api/teams/:id
func GetTeam(c *fiber.Ctx) error {
	id, ok := teamID(c)
	if !ok {
		return badTeamID(c)
	}
	team, err := ledger.Team(id)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"team":    team,
	})
}

// SortTeams switches the roster sort key. Re-selecting the active key
// flips the direction.
// PUT /api/teams/sort
func SortTeams(c *fiber.Ctx) error {
	var req SortRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Sort key required"})
	}

	cfg, err := ledger.SortBy(models.SortKey(req.Key))
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"sort":    cfg,
		"teams":   ledger.Teams(),
	})
}

// UpdateTeam applies a manager registry edit: rename, reassign leader,
// rotate the leader password, or rewrite the score outright.
// PUT /api/teams/:id
func UpdateTeam(c *fiber.Ctx) error {
	id, ok := teamID(c)
	if !ok {
		return badTeamID(c)
	}

	var req UpdateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}

	team, err := ledger.UpdateTeam(id, services.RegistryEdit{
		Name:     req.Name,
		Leader:   req.Leader,
		Password: req.Password,
		Score:    req.Score,
	})
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"team":    team,
	})
}

// teamID parses the :id route param.
func teamID(c *fiber.Ctx) (int, bool) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func badTeamID(c *fiber.Ctx) error {
	return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid team id"})
}
