// middleware/auth.go
package middleware

import (
	"os"
	"strings"
	"time"

	"gemscore/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Auth validates the bearer token and stores the session identity in
// the request locals: role, teamId (leader/member binding) and name.
func Auth(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Missing authorization header"})
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid authorization header format"})
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(401, "Invalid signing method")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid or expired token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid token claims"})
	}

	exp, ok := claims["exp"].(float64)
	if !ok || time.Unix(int64(exp), 0).Before(time.Now()) {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Token expired"})
	}

	roleStr, _ := claims["role"].(string)
	role, ok := models.ParseRole(roleStr)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid token claims"})
	}

	c.Locals("role", role)
	c.Locals("name", claims["name"])
	if teamID, ok := claims["team_id"].(float64); ok {
		c.Locals("teamId", int(teamID))
	}

	return c.Next()
}

// RequireCapability rejects sessions whose role lacks the capability.
// Must run after Auth.
func RequireCapability(cap models.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := GetRole(c)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"success": false, "error": "Not authenticated"})
		}
		if !role.Can(cap) {
			return c.Status(403).JSON(fiber.Map{"success": false, "error": "Access denied"})
		}
		return c.Next()
	}
}

// GetRole returns the session role set by Auth.
func GetRole(c *fiber.Ctx) (models.Role, bool) {
	role, ok := c.Locals("role").(models.Role)
	return role, ok
}

// GetTeamID returns the team binding of a leader/member session.
func GetTeamID(c *fiber.Ctx) (int, bool) {
	id, ok := c.Locals("teamId").(int)
	return id, ok
}

// GetName returns the session display name.
func GetName(c *fiber.Ctx) string {
	if name, ok := c.Locals("name").(string); ok {
		return name
	}
	return ""
}
