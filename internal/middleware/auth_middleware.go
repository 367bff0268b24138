package middleware

import (
	"strings"
	"time"

	"go-invoice-ws/internal/logger"
	"go-invoice-ws/internal/repository"
	"go-invoice-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Context keys set by RequireAuth
const (
	LocalUserID     = "user_id"
	LocalUserEmail  = "user_email"
	LocalUserName   = "user_name"
	LocalPrivileges = "user_privileges"
)

// lastSeenRefresh throttles the activity write done by RequireAuth
const lastSeenRefresh = time.Minute

// RequireAuth is middleware that validates JWT token and sets user info in context.
// With a positive idleTimeout it also rejects sessions without activity for
// that long, and counts each accepted request as activity.
func RequireAuth(userRepo repository.UserRepository, idleTimeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := jwt.ValidateToken(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		// Check strict session against DB
		user, err := userRepo.FindByID(c.UserContext(), claims.UserID)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "User not found"})
		}
		if !user.IsActive {
			return c.Status(401).JSON(fiber.Map{"error": "User account is inactive"})
		}
		if user.TokenVersion != claims.TokenVersion {
			return c.Status(401).JSON(fiber.Map{"error": "Session expired (logged in on another device)"})
		}

		if idleTimeout > 0 {
			now := time.Now()
			if user.SessionIdle(idleTimeout, now) {
				return c.Status(401).JSON(fiber.Map{"error": "Session timed out due to inactivity"})
			}
			if now.Sub(*user.LastSeenAt) > lastSeenRefresh {
				if err := userRepo.UpdateLastSeen(c.UserContext(), user.ID); err != nil {
					log := logger.WithComponent("auth")
					log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Failed to record activity")
				}
			}
		}

		c.Locals(LocalUserID, claims.UserID.String())
		c.Locals(LocalUserEmail, claims.Email)
		c.Locals(LocalUserName, claims.Name)
		// Privileges come from the database so revocations apply immediately
		c.Locals(LocalPrivileges, user.GetPrivilegeCodes())

		return c.Next()
	}
}

func hasPrivilege(c *fiber.Ctx, wanted ...string) (bool, bool) {
	privileges, ok := c.Locals(LocalPrivileges).([]string)
	if !ok {
		return false, false
	}
	for _, p := range privileges {
		for _, w := range wanted {
			if p == w {
				return true, true
			}
		}
	}
	return false, true
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		granted, found := hasPrivilege(c, requiredPrivilege)
		if !found {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}
		if granted {
			return c.Next()
		}
		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		granted, found := hasPrivilege(c, requiredPrivileges...)
		if !found {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}
		if granted {
			return c.Next()
		}
		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(requiredPrivileges, ", ") + " privileges",
		})
	}
}
