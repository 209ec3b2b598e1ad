// handlers/mission.go - Daily mission endpoints backed by the Gemini
// provider
package handlers

import (
	"gemscore/models"
	"gemscore/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type UpdateMissionRequest struct {
	Title     string `json:"title" validate:"required"`
	Content   string `json:"content" validate:"required"`
	Objective string `json:"objective"`
	Rules     string `json:"rules"`
	GemType   string `json:"gem_type"`
}

type MotivateRequest struct {
	TeamID int `json:"team_id" validate:"required"`
}

// GetMission returns the mission of the day, if one is set.
// GET /api/mission
func GetMission(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"mission": ledger.Mission(),
	})
}

// UpdateMission lets the manager write the mission by hand.
// PUT /api/mission
func UpdateMission(c *fiber.Ctx) error {
	var req UpdateMissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Title and content required"})
	}

	gem := req.GemType
	if gem != "" {
		if _, ok := models.GemByName(gem); !ok {
			return c.Status(400).JSON(fiber.Map{"success": false, "error": "Unknown gem type"})
		}
	}

	m := models.Mission{
		Title:     req.Title,
		Content:   req.Content,
		Objective: req.Objective,
		Rules:     req.Rules,
		GemType:   gem,
	}
	if err := ledger.SetMission(m); err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"mission": m,
	})
}

// GenerateMission asks the provider for a fresh mission and stores it.
// POST /api/mission/generate
func GenerateMission(c *fiber.Ctx) error {
	m, err := mission.GenerateMission(c.Context())
	if err != nil {
		logrus.WithError(err).Error("mission generation failed")
		return svcError(c, err)
	}
	if err := ledger.SetMission(*m); err != nil {
		return svcError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"mission": m,
	})
}

// Motivate produces a short pep line for a team. Provider trouble
// degrades to a canned line rather than an error.
// POST /api/motivate
func Motivate(c *fiber.Ctx) error {
	var req MotivateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "error": "Team id required"})
	}

	team, err := ledger.Team(req.TeamID)
	if err != nil {
		return svcError(c, err)
	}

	line, err := mission.Motivate(c.Context(), team.Name, team.Score)
	if err != nil {
		logrus.WithError(err).WithField("team", team.ID).Warn("motivation fallback")
		line = services.FallbackMotivation(team.Name)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"team_id": team.ID,
		"message": line,
	})
}
