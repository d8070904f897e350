package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/notesphere/notesphere/internal/pkg/logger"
)

// IdentityClaims are the session token claims issued by the identity provider
type IdentityClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// IdentityConfig configures IdentityVerifier
type IdentityConfig struct {
	JWKSURL         string
	Issuer          string
	Leeway          time.Duration
	RefreshInterval time.Duration
	ClientTimeout   time.Duration
}

// IdentityVerifier validates RS256 session tokens against the provider's JWKS
type IdentityVerifier struct {
	jwks   keyfunc.Keyfunc
	issuer string
	leeway time.Duration
}

// NewIdentityVerifier creates a verifier that keeps the JWKS refreshed in the
// background. The first fetch may fail so the API can start before the
// identity provider is reachable.
func NewIdentityVerifier(cfg IdentityConfig) (*IdentityVerifier, error) {
	if cfg.ClientTimeout <= 0 {
		cfg.ClientTimeout = 10 * time.Second
	}

	storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: cfg.ClientTimeout},
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           cfg.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error().Err(err).Str("url", cfg.JWKSURL).Msg("Failed to refresh JWKS")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("error creating keyfunc: %w", err)
	}

	return NewIdentityVerifierWithKeyfunc(k, cfg.Issuer, cfg.Leeway), nil
}

// NewIdentityVerifierWithKeyfunc creates a verifier over an existing key set
func NewIdentityVerifierWithKeyfunc(k keyfunc.Keyfunc, issuer string, leeway time.Duration) *IdentityVerifier {
	return &IdentityVerifier{jwks: k, issuer: issuer, leeway: leeway}
}

// Verify parses and validates tokenString. The subject must be present.
func (v *IdentityVerifier) Verify(ctx context.Context, tokenString string) (*IdentityClaims, error) {
	if strings.Count(tokenString, ".") != 2 {
		return nil, ErrInvalidFormat
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.jwks.KeyfuncCtx(ctx), opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
