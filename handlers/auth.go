// handlers/auth.go - Role-based login endpoints
package handlers

import (
	"crypto/subtle"
	"time"

	"gemscore/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

type ManagerLoginRequest struct {
	Password string `json:"password" validate:"required"`
	Name     string `json:"name"`
}

type LeaderLoginRequest struct {
	TeamID   int    `json:"team_id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type MemberLoginRequest struct {
	TeamID int    `json:"team_id"`
	Name   string `json:"name"`
}

type AuthResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token,omitempty"`
	Role    models.Role `json:"role,omitempty"`
	TeamID  int         `json:"team_id,omitempty"`
	Name    string      `json:"name,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ManagerLogin authenticates the store manager against the shared
// secret. Failures stay role-generic.
// POST /api/auth/manager
func ManagerLogin(c *fiber.Ctx) error {
	var req ManagerLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Password required"})
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(managerPW)) != 1 {
		logrus.Warn("manager login failed")
		return c.Status(401).JSON(AuthResponse{Success: false, Error: "Invalid credentials"})
	}

	name := req.Name
	if name == "" {
		name = "Store Manager"
	}
	token, err := generateToken(models.RoleManager, 0, name)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to generate token"})
	}
	return c.JSON(AuthResponse{Success: true, Token: token, Role: models.RoleManager, Name: name})
}

// LeaderLogin authenticates a team leader against the per-team secret.
// POST /api/auth/leader
func LeaderLogin(c *fiber.Ctx) error {
	var req LeaderLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Team and password required"})
	}

	if err := ledger.VerifyLeaderPassword(req.TeamID, req.Password); err != nil {
		logrus.WithField("team", req.TeamID).Warn("leader login failed")
		return c.Status(401).JSON(AuthResponse{Success: false, Error: "Invalid credentials"})
	}

	team, err := ledger.Team(req.TeamID)
	if err != nil {
		return c.Status(401).JSON(AuthResponse{Success: false, Error: "Invalid credentials"})
	}

	token, err := generateToken(models.RoleLeader, team.ID, team.Leader)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to generate token"})
	}
	return c.JSON(AuthResponse{Success: true, Token: token, Role: models.RoleLeader, TeamID: team.ID, Name: team.Leader})
}

// MemberLogin opens a read-only browsing session; no secret required.
// POST /api/auth/member
func MemberLogin(c *fiber.Ctx) error {
	var req MemberLoginRequest
	_ = c.BodyParser(&req) // empty body is fine

	name := req.Name
	if name == "" {
		name = "Guest"
	}
	token, err := generateToken(models.RoleMember, req.TeamID, name)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to generate token"})
	}
	return c.JSON(AuthResponse{Success: true, Token: token, Role: models.RoleMember, TeamID: req.TeamID, Name: name})
}

func generateToken(role models.Role, teamID int, name string) (string, error) {
	claims := jwt.MapClaims{
		"role": string(role),
		"name": name,
		"exp":  time.Now().Add(sessionTTL).Unix(),
	}
	if role.TeamScoped() && teamID > 0 {
		claims["team_id"] = teamID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}
