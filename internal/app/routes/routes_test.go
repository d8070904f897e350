package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/notesphere/notesphere/internal/app/controllers"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/app/services"
	"github.com/notesphere/notesphere/internal/health"
	"github.com/notesphere/notesphere/internal/middleware"
	"github.com/notesphere/notesphere/internal/pkg/auth"
)

// tokenVerifier accepts the literal tokens "student" and "admin"
type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, token string) (*auth.IdentityClaims, error) {
	switch token {
	case "student":
		return &auth.IdentityClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user_1"}}, nil
	case "admin":
		return &auth.IdentityClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "admin_1"}}, nil
	}
	return nil, auth.ErrInvalidToken
}

type users struct{ services.UserService }

func (users) Sync(_ context.Context, identity *models.User) (*models.User, error) {
	role := models.RoleUser
	if identity.ClerkID == "admin_1" {
		role = models.RoleAdmin
	}
	return &models.User{ClerkID: identity.ClerkID, Role: role}, nil
}

type stats struct{}

func (stats) Get(context.Context, *models.User) (*models.Stats, error) {
	return &models.Stats{}, nil
}

type sweeper struct{}

func (sweeper) Sweep(context.Context, time.Time) (*services.SweepResult, error) {
	return &services.SweepResult{}, nil
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := auth.HashSecret("cron-secret")
	if err != nil {
		t.Fatal(err)
	}

	router := gin.New()
	SetupRouter(router, Controllers{
		Catalog:    controllers.NewCatalogController(nil),
		Note:       controllers.NewNoteController(nil, time.Hour),
		Moderation: controllers.NewModerationController(nil, sweeper{}),
		Drive:      controllers.NewDriveController(nil),
		Social:     controllers.NewSocialController(nil, nil),
		Notice:     controllers.NewNoticeController(nil, nil),
		User:       controllers.NewUserController(users{}, stats{}),
		Health:     controllers.NewHealthController(health.NewReadiness(time.Second, nil)),
	}, middleware.NewAuthMiddleware(tokenVerifier{}, users{}, hash))
	return router
}

func TestRouteAccess(t *testing.T) {
	router := newRouter(t)

	cases := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
		status  int
	}{
		{"liveness is public", http.MethodGet, "/api/health/live", nil, http.StatusOK},
		{"readiness is public", http.MethodGet, "/api/health/ready", nil, http.StatusOK},
		{"metrics are exposed", http.MethodGet, "/metrics", nil, http.StatusOK},
		{"me requires a token", http.MethodGet, "/api/me", nil, http.StatusUnauthorized},
		{"me with token", http.MethodGet, "/api/me", map[string]string{"Authorization": "Bearer student"}, http.StatusOK},
		{"bad token on public route", http.MethodGet, "/api/notices", map[string]string{"Authorization": "Bearer forged"}, http.StatusUnauthorized},
		{"note submission requires a token", http.MethodPost, "/api/notes", nil, http.StatusUnauthorized},
		{"likes require a token", http.MethodPost, "/api/notes/n1/likes", nil, http.StatusUnauthorized},
		{"admin route anonymous", http.MethodGet, "/api/admin/stats", nil, http.StatusUnauthorized},
		{"admin route as student", http.MethodGet, "/api/admin/stats", map[string]string{"Authorization": "Bearer student"}, http.StatusForbidden},
		{"admin route as admin", http.MethodGet, "/api/admin/stats", map[string]string{"Authorization": "Bearer admin"}, http.StatusOK},
		{"moderation as student", http.MethodPost, "/api/admin/notes/n1/approve", map[string]string{"Authorization": "Bearer student"}, http.StatusForbidden},
		{"sweep anonymous", http.MethodPost, "/api/notes/process-rejected", nil, http.StatusUnauthorized},
		{"sweep as student", http.MethodPost, "/api/notes/process-rejected", map[string]string{"Authorization": "Bearer student"}, http.StatusForbidden},
		{"sweep as admin", http.MethodPost, "/api/notes/process-rejected", map[string]string{"Authorization": "Bearer admin"}, http.StatusOK},
		{"sweep with scheduler token", http.MethodPost, "/api/notes/process-rejected", map[string]string{middleware.SchedulerTokenHeader: "cron-secret"}, http.StatusOK},
		{"sweep with wrong scheduler token", http.MethodPost, "/api/notes/process-rejected", map[string]string{middleware.SchedulerTokenHeader: "guess"}, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("%s %s = %d, want %d (%s)", tc.method, tc.path, w.Code, tc.status, w.Body.String())
			}
		})
	}
}
