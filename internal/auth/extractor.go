package auth

import (
	"context"
	"fmt"
	"strings"
)

// ClaimsExtractor resolves the caller's validated claims from request credentials.
type ClaimsExtractor interface {
	Extract(ctx context.Context, authorization string) (*Claims, error)
}

// BearerExtractor validates "Authorization: Bearer <token>" credentials.
type BearerExtractor struct {
	tokens  *TokenService
	revoked RevocationStore
}

// NewBearerExtractor constructs an extractor. revoked may be nil.
func NewBearerExtractor(tokens *TokenService, revoked RevocationStore) *BearerExtractor {
	return &BearerExtractor{tokens: tokens, revoked: revoked}
}

// Extract validates the bearer token and checks it has not been revoked.
func (e *BearerExtractor) Extract(ctx context.Context, authorization string) (*Claims, error) {
	authorization = strings.TrimSpace(authorization)
	if authorization == "" {
		return nil, ErrNoCredential
	}

	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, wrap(KindMalformed, fmt.Errorf("invalid authorization header"))
	}

	claims, err := e.tokens.Validate(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, err
	}

	if e.revoked != nil && claims.TokenID() != "" {
		revoked, err := e.revoked.IsRevoked(ctx, claims.TokenID())
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, ErrRevoked
		}
	}
	return claims, nil
}
