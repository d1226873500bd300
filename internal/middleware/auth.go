package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/abudi-09/CMS-sub000/internal/database"
	"github.com/abudi-09/CMS-sub000/internal/models"
	"github.com/abudi-09/CMS-sub000/internal/repository"
	"github.com/abudi-09/CMS-sub000/pkg/utils"
)

type AuthMiddleware struct {
	jwtManager   *utils.JWTManager
	sessionStore *database.SessionStore
	userRepo     repository.UserRepository
}

func NewAuthMiddleware(jwtManager *utils.JWTManager, sessionStore *database.SessionStore, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		userRepo:     userRepo,
	}
}

// Authenticate resolves the bearer token to an Actor and stores it in Locals.
// The account state is re-read from the database on every request so that
// deactivation takes effect immediately, not at token expiry.
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string

		authHeader := c.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
		// Query fallback for file downloads.
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing authorization token")
		}

		isBlacklisted, err := m.sessionStore.IsTokenBlacklisted(c.Context(), token)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to validate token")
		}
		if isBlacklisted {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Token has been revoked")
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		user, err := m.userRepo.FindByID(c.Context(), claims.UserID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "User not found")
		}
		if !user.IsActive {
			return utils.ErrorResponseWithCode(c, fiber.StatusForbidden, "inactive-account", "Account is deactivated")
		}
		if !user.IsApproved {
			return utils.ErrorResponseWithCode(c, fiber.StatusForbidden, "pending-approval", "Account is awaiting approval")
		}

		c.Locals("actor", user.ToActor())
		c.Locals("token", token)

		return c.Next()
	}
}

func (m *AuthMiddleware) RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := c.Locals("actor").(models.Actor)
		if !ok {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "User not authenticated")
		}
		for _, role := range roles {
			if actor.Role == role {
				return c.Next()
			}
		}
		return utils.ErrorResponseWithCode(c, fiber.StatusForbidden, "forbidden", "Insufficient permissions")
	}
}

// ActorFromContext extracts the resolved Actor placed by Authenticate.
func ActorFromContext(c *fiber.Ctx) (models.Actor, bool) {
	actor, ok := c.Locals("actor").(models.Actor)
	return actor, ok
}

// UserIDFromContext is a convenience for handlers that only need the id.
func UserIDFromContext(c *fiber.Ctx) (uuid.UUID, bool) {
	actor, ok := c.Locals("actor").(models.Actor)
	if !ok {
		return uuid.Nil, false
	}
	return actor.ID, true
}
