package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/service-core/internal/config"
	"github.com/spec-kit/service-core/internal/domain"
)

// Claims describes the JWT payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RoleName returns the raw role string carried by the token.
func (c *Claims) RoleName() string { return c.Role }

// TokenID returns the jti claim.
func (c *Claims) TokenID() string { return c.ID }

// ExpiresAtTime returns the exp claim, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Token is a signed, serialized set of claims.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenService issues and validates signed tokens. It is immutable after
// construction and safe for concurrent use.
type TokenService struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	now       func() time.Time
}

// Option customizes a TokenService.
type Option func(*TokenService)

// WithClock overrides the time source used for exp/iat and validation.
func WithClock(now func() time.Time) Option {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

var signingMethods = map[string]jwt.SigningMethod{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
	"RS256": jwt.SigningMethodRS256,
	"RS384": jwt.SigningMethodRS384,
	"RS512": jwt.SigningMethodRS512,
	"ES256": jwt.SigningMethodES256,
	"ES384": jwt.SigningMethodES384,
	"ES512": jwt.SigningMethodES512,
	"PS256": jwt.SigningMethodPS256,
	"PS384": jwt.SigningMethodPS384,
	"PS512": jwt.SigningMethodPS512,
}

// NewTokenService builds a service from configuration. Any error here is a
// fatal configuration problem.
func NewTokenService(cfg config.AuthConfig, opts ...Option) (*TokenService, error) {
	alg := strings.ToUpper(strings.TrimSpace(cfg.JWTAlgorithm))
	if alg == "" {
		alg = "HS256"
	}

	if strings.HasPrefix(alg, "HS") {
		if cfg.JWTSecret == "" {
			return nil, errors.New("auth: empty JWT secret")
		}
		return NewTokenServiceWithKey(alg, []byte(cfg.JWTSecret), opts...)
	}

	if cfg.JWTPrivateKeyFile == "" {
		return nil, fmt.Errorf("auth: %s requires AUTH_JWT_PRIVATE_KEY_FILE", alg)
	}
	pemBytes, err := os.ReadFile(cfg.JWTPrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("auth: read private key: %w", err)
	}
	key, err := parsePrivateKey(alg, pemBytes)
	if err != nil {
		return nil, err
	}
	return NewTokenServiceWithKey(alg, key, opts...)
}

// NewTokenServiceWithKey builds a service from an already parsed key: []byte
// for HMAC, *ecdsa.PrivateKey or *rsa.PrivateKey for the asymmetric methods.
func NewTokenServiceWithKey(alg string, key any, opts ...Option) (*TokenService, error) {
	method, ok := signingMethods[alg]
	if !ok {
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", alg)
	}

	verifyKey, err := publicKeyOf(key)
	if err != nil {
		return nil, err
	}

	ts := &TokenService{method: method, signKey: key, verifyKey: verifyKey, now: time.Now}
	for _, opt := range opts {
		opt(ts)
	}

	// sign a probe so key/method mismatches fail at startup, not per request
	if _, err := jwt.NewWithClaims(method, jwt.RegisteredClaims{}).SignedString(key); err != nil {
		return nil, fmt.Errorf("auth: signing key unusable with %s: %w", alg, err)
	}
	return ts, nil
}

// Algorithm returns the configured signing algorithm name.
func (ts *TokenService) Algorithm() string {
	return ts.method.Alg()
}

// Issue builds and signs a token for the subject with exp = now + ttl.
func (ts *TokenService) Issue(subject string, role domain.Role, ttl time.Duration) (Token, error) {
	now := ts.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(ts.method, claims).SignedString(ts.signKey)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Validate verifies the signature and then requires exp to be strictly in
// the future.
func (ts *TokenService) Validate(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{ts.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.now),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return ts.verifyKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, wrap(KindExpired, err)
		}
		return nil, wrap(KindMalformed, err)
	}
	if !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}
