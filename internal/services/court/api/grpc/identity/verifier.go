// Package identity resolves the account behind a gRPC call, either from a
// verified EdDSA bearer token or from a plain account header.
package identity

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/decicourt/internal/platform/config"
	apperrors "github.com/louisbranch/decicourt/internal/platform/errors"
)

// Config is the raw verifier configuration. An empty PublicKey disables
// verification.
type Config struct {
	Issuer    string `env:"DECICOURT_IDENTITY_ISSUER"`
	Audience  string `env:"DECICOURT_IDENTITY_AUDIENCE"`
	PublicKey string `env:"DECICOURT_IDENTITY_PUBLIC_KEY"`
}

// Enabled reports whether a public key is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.PublicKey) != ""
}

// Verifier checks bearer tokens signed by the identity issuer.
type Verifier struct {
	issuer   string
	audience string
	key      ed25519.PublicKey
	now      func() time.Time
}

// VerifierFromEnv reads Config from the environment. It returns nil when
// verification is disabled.
func VerifierFromEnv() (*Verifier, error) {
	cfg, err := config.Load[Config]()
	if err != nil {
		return nil, err
	}
	return NewVerifier(cfg, time.Now)
}

// NewVerifier validates cfg. It returns nil when cfg is not Enabled.
func NewVerifier(cfg Config, now func() time.Time) (*Verifier, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	audience := strings.TrimSpace(cfg.Audience)
	if issuer == "" {
		return nil, errors.New("DECICOURT_IDENTITY_ISSUER is required")
	}
	if audience == "" {
		return nil, errors.New("DECICOURT_IDENTITY_AUDIENCE is required")
	}
	raw := strings.TrimSpace(cfg.PublicKey)
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		key, err = base64.RawURLEncoding.DecodeString(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("decode identity public key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("identity public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return &Verifier{issuer: issuer, audience: audience, key: ed25519.PublicKey(key), now: now}, nil
}

// Verify checks token and returns its subject, the caller's account.
func (v *Verifier) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "bearer token is required")
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeUnauthenticated, tokenReason(err), err)
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "bearer token has no subject")
	}
	return subject, nil
}

func tokenReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "bearer token is expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrEd25519Verification):
		return "bearer token signature is invalid"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "bearer token was issued for another service"
	default:
		return "bearer token is invalid"
	}
}
