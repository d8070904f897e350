package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/notesphere/notesphere/internal/app/models"
	"github.com/notesphere/notesphere/internal/app/models/dto"
	"github.com/notesphere/notesphere/internal/pkg/apperrors"
	"github.com/notesphere/notesphere/internal/pkg/auth"
	"github.com/notesphere/notesphere/internal/pkg/filestorage"
)

const testKeyID = "test-key"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUsers struct {
	admins map[string]bool
	synced int
}

func (s *stubUsers) Sync(_ context.Context, identity *models.User) (*models.User, error) {
	s.synced++
	u := *identity
	u.Role = models.RoleUser
	if s.admins[u.ClerkID] {
		u.Role = models.RoleAdmin
	}
	return &u, nil
}

func (s *stubUsers) Get(context.Context, string) (*models.User, error) {
	return nil, apperrors.ErrUserNotFound
}

func (s *stubUsers) List(context.Context, *models.User, int, int) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (s *stubUsers) UpdateRole(context.Context, *models.User, string, models.RoleType) (*models.User, error) {
	return nil, nil
}

func jwksJSON(pub *rsa.PublicKey) json.RawMessage {
	set := map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"kid": testKeyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	data, _ := json.Marshal(set)
	return data
}

type authFixture struct {
	key    *rsa.PrivateKey
	users  *stubUsers
	router *gin.Engine
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	kf, err := keyfunc.NewJWKSetJSON(jwksJSON(&key.PublicKey))
	if err != nil {
		t.Fatal(err)
	}
	hash, err := auth.HashSecret("cron-secret")
	if err != nil {
		t.Fatal(err)
	}

	users := &stubUsers{admins: map[string]bool{"admin_1": true}}
	m := NewAuthMiddleware(auth.NewIdentityVerifierWithKeyfunc(kf, "https://clerk.test", time.Second), users, hash)

	r := gin.New()
	r.Use(RequestID())
	whoami := func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, u.ClerkID)
	}
	r.GET("/optional", m.OptionalAuth(), whoami)
	r.GET("/private", m.RequireAuth(), whoami)
	r.GET("/admin", m.RequireAdmin(), whoami)
	r.POST("/sweep", m.RequireAdminOrScheduler(), func(c *gin.Context) {
		c.String(http.StatusOK, fmt.Sprintf("scheduler=%v", IsScheduler(c)))
	})
	return &authFixture{key: key, users: users, router: r}
}

func (f *authFixture) token(t *testing.T, subject string, expires time.Time) string {
	t.Helper()
	claims := auth.IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "https://clerk.test",
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		Email: subject + "@uni.edu",
		Name:  "Test " + subject,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = testKeyID
	signed, err := tok.SignedString(f.key)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func (f *authFixture) do(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	f := newAuthFixture(t)
	valid := f.token(t, "user_1", time.Now().Add(time.Hour))
	admin := f.token(t, "admin_1", time.Now().Add(time.Hour))
	expired := f.token(t, "user_1", time.Now().Add(-time.Hour))

	cases := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
		status  int
		body    string
	}{
		{"optional anonymous", http.MethodGet, "/optional", nil, http.StatusOK, "anonymous"},
		{"optional with token", http.MethodGet, "/optional", map[string]string{"Authorization": "Bearer " + valid}, http.StatusOK, "user_1"},
		{"optional with bad token", http.MethodGet, "/optional", map[string]string{"Authorization": "Bearer a.b.c"}, http.StatusUnauthorized, ""},
		{"private anonymous", http.MethodGet, "/private", nil, http.StatusUnauthorized, ""},
		{"private raw token", http.MethodGet, "/private", map[string]string{"Authorization": valid}, http.StatusOK, "user_1"},
		{"private expired", http.MethodGet, "/private", map[string]string{"Authorization": "Bearer " + expired}, http.StatusUnauthorized, ""},
		{"private malformed header", http.MethodGet, "/private", map[string]string{"Authorization": "Basic abc"}, http.StatusUnauthorized, ""},
		{"admin as student", http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + valid}, http.StatusForbidden, ""},
		{"admin as admin", http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + admin}, http.StatusOK, "admin_1"},
		{"sweep scheduler token", http.MethodPost, "/sweep", map[string]string{SchedulerTokenHeader: "cron-secret"}, http.StatusOK, "scheduler=true"},
		{"sweep wrong scheduler token", http.MethodPost, "/sweep", map[string]string{SchedulerTokenHeader: "guess"}, http.StatusUnauthorized, ""},
		{"sweep admin", http.MethodPost, "/sweep", map[string]string{"Authorization": "Bearer " + admin}, http.StatusOK, "scheduler=false"},
		{"sweep anonymous", http.MethodPost, "/sweep", nil, http.StatusUnauthorized, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := f.do(c.method, c.path, c.headers)
			if rec.Code != c.status {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, c.status, rec.Body.String())
			}
			if c.body != "" && rec.Body.String() != c.body {
				t.Fatalf("body = %q, want %q", rec.Body.String(), c.body)
			}
			if rec.Header().Get(RequestIDHeader) == "" {
				t.Fatalf("missing request id header")
			}
		})
	}
}

func TestExpiredTokenUsesExpiredCode(t *testing.T) {
	f := newAuthFixture(t)
	rec := f.do(http.MethodGet, "/private", map[string]string{"Authorization": "Bearer " + f.token(t, "user_1", time.Now().Add(-time.Hour))})

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Error == nil || resp.Error.Code != dto.ErrorCodeExpiredToken {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	f := newAuthFixture(t)
	rec := f.do(http.MethodGet, "/optional", map[string]string{RequestIDHeader: "req-42"})
	if got := rec.Header().Get(RequestIDHeader); got != "req-42" {
		t.Fatalf("request id = %q", got)
	}
}

func TestHandleAPIErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   dto.ErrorCode
	}{
		{apperrors.ErrUnauthorized, http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{apperrors.NewForbiddenError("admin role required"), http.StatusForbidden, dto.ErrorCodeForbidden},
		{apperrors.NewValidationError("title", "title is required"), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{apperrors.NewCustomError(apperrors.ErrInvalidModeration, "action must be restore or publish"), http.StatusBadRequest, dto.ErrorCodeResourceInvalid},
		{apperrors.ErrNoteNotRejected, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{fmt.Errorf("loading: %w", apperrors.ErrSubjectNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{apperrors.ErrYearAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{apperrors.ErrHasDependents, http.StatusConflict, dto.ErrorCodeConflict},
		{apperrors.NewCustomError(apperrors.ErrInvalidTransition, "cannot approve a PUBLIC note"), http.StatusConflict, dto.ErrorCodeConflict},
		{apperrors.ErrSweepInProgress, http.StatusConflict, dto.ErrorCodeConflict},
		{apperrors.ErrTooManyRequests, http.StatusTooManyRequests, dto.ErrorCodeTooManyRequests},
		{apperrors.ErrStorageNotConfigured, http.StatusUnauthorized, dto.ErrorCodeExternalServiceError},
		{filestorage.NewProviderError(http.StatusForbidden, "insufficient scope"), http.StatusForbidden, dto.ErrorCodeExternalServiceError},
		{errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}
	for _, c := range cases {
		t.Run(c.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(rec)
			ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAPIError(ctx, c.err)

			if rec.Code != c.status {
				t.Fatalf("status = %d, want %d", rec.Code, c.status)
			}
			var resp dto.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error == nil || resp.Error.Code != c.code {
				t.Fatalf("code = %+v, want %s", resp.Error, c.code)
			}
		})
	}
}

func TestHandleAPIErrorHidesInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleAPIError(ctx, errors.New("pq: password authentication failed"))

	var resp dto.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error.Message != "Internal server error" {
		t.Fatalf("internal error leaked: %q", resp.Error.Message)
	}
}

func TestBindJSONReportsFields(t *testing.T) {
	type body struct {
		Title string `json:"title" binding:"required"`
	}
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var b body
		if !BindJSON(c, &b) {
			return
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
