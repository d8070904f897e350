package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	appAuth "github.com/notesphere/notesphere/internal/app/auth"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/app/services"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/auth"
	"github.com/notesphere/notesphere/internal/pkg/helpers"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// SchedulerTokenHeader carries the shared secret external cron jobs use
const SchedulerTokenHeader = "X-Scheduler-Token"

const (
	contextKeyUser      = "user"
	contextKeyScheduler = "scheduler"
)

// TokenVerifier validates identity provider session tokens
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.IdentityClaims, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	verifier      TokenVerifier
	users         services.UserService
	schedulerHash string
}

// NewAuthMiddleware creates a new AuthMiddleware. schedulerHash is the bcrypt
// hash of the scheduler token; empty disables token access.
func NewAuthMiddleware(verifier TokenVerifier, users services.UserService, schedulerHash string) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:      verifier,
		users:         users,
		schedulerHash: schedulerHash,
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(contextKeyUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// IsScheduler reports whether the request was authorized by the scheduler token
func IsScheduler(c *gin.Context) bool {
	return c.GetBool(contextKeyScheduler)
}

// bearerToken extracts the token from the Authorization header. Raw tokens
// without the Bearer prefix are accepted for Swagger UI.
func bearerToken(header string) (string, error) {
	header = strings.Trim(strings.TrimSpace(header), "\"'")
	if strings.Count(header, ".") == 2 && !strings.Contains(header, " ") {
		return header, nil
	}
	return auth.ExtractBearerToken(header)
}

// authenticate resolves the caller. It returns nil, nil when no credentials
// were sent.
func (m *AuthMiddleware) authenticate(c *gin.Context) (*models.User, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, nil
	}

	token, err := bearerToken(header)
	if err != nil {
		return nil, err
	}

	claims, err := m.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		logger.Ctx(c.Request.Context()).Debug().Err(err).Msg("Session token rejected")
		return nil, err
	}

	user, err := m.users.Sync(c.Request.Context(), &models.User{
		ClerkID:  claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		ImageURL: helpers.NullableString(claims.ImageURL),
	})
	if err != nil {
		return nil, err
	}

	c.Set(contextKeyUser, user)
	l := logger.Ctx(c.Request.Context()).With().Str("user", user.ClerkID).Logger()
	c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
	return user, nil
}

// OptionalAuth identifies the caller when a token is sent. Invalid tokens
// are still rejected.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := m.authenticate(c); err != nil {
			HandleAPIError(c, err)
			return
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous requests
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := m.authenticate(c)
		if err != nil {
			HandleAPIError(c, err)
			return
		}
		if user == nil {
			HandleAPIError(c, apperrors.NewCustomError(apperrors.ErrUnauthorized, "Authorization header missing"))
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests from anyone but admins
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.admit(c) {
			return
		}
		c.Next()
	}
}

// RequireAdminOrScheduler admits admins and callers presenting the scheduler token
func (m *AuthMiddleware) RequireAdminOrScheduler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := c.GetHeader(SchedulerTokenHeader); token != "" {
			if !auth.CheckSecret(m.schedulerHash, token) {
				HandleAPIError(c, apperrors.NewCustomError(apperrors.ErrUnauthorized, "Invalid scheduler token"))
				return
			}
			c.Set(contextKeyScheduler, true)
			c.Next()
			return
		}
		if !m.admit(c) {
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) admit(c *gin.Context) bool {
	user, err := m.authenticate(c)
	if err != nil {
		HandleAPIError(c, err)
		return false
	}
	if err := appAuth.ValidateAdmin(user); err != nil {
		HandleAPIError(c, err)
		return false
	}
	return true
}
