package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"skill-journal/internal/pkg/jwt"
	"skill-journal/internal/session"
)

const (
	CtxUserIDKey   = "user_id"
	CtxIdentityKey = "identity"

	// LoginPath is where clients send a user whose session is missing or over.
	LoginPath = "/login"
)

type redirectData struct {
	Redirect string `json:"redirect"`
}

type AuthMiddleware struct {
	jwt jwt.Service
}

func NewAuthMiddleware(jwtSvc jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwtSvc}
}

func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := BearerToken(c.Get("Authorization"))
		if !ok {
			return Unauthenticated("Unauthorized", nil)
		}

		claims, err := m.jwt.ValidateAccess(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return Unauthenticated("Token expired", err)
			}
			return Unauthenticated("Invalid token", err)
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxIdentityKey, session.Identity{
			UserID: claims.UserID.String(),
			Email:  claims.Email,
			Name:   claims.Name,
		})
		return c.Next()
	}
}

// Unauthenticated is a 401 that tells the client to go to the login screen.
func Unauthenticated(message string, cause error) *AppError {
	return NewAppError(fiber.StatusUnauthorized, message, redirectData{Redirect: LoginPath}, cause)
}

// UserID returns the authenticated user of c.
func UserID(c fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(CtxUserIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func Identity(c fiber.Ctx) (session.Identity, bool) {
	id, ok := c.Locals(CtxIdentityKey).(session.Identity)
	return id, ok && id.UserID != ""
}

func BearerToken(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
