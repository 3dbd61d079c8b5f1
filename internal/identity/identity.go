// Package identity verifies caller tokens and carries the resulting principal
// through request contexts.
package identity

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin may write documents owned by the system tenant.
const RoleAdmin = "admin"

// Principal is the authenticated caller.
type Principal struct {
	TenantID string
	Subject  string
	Roles    []string
}

// HasRole reports whether the principal holds role.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// IsAdmin reports whether the principal may manage shared defaults.
func (p Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// Claims is the JWT payload rentbook issues and accepts.
type Claims struct {
	TenantID string   `json:"tenant_id"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Parse verifies an HS256 token signed with secret and returns its principal.
func Parse(token string, secret []byte) (Principal, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Principal{}, fmt.Errorf("%w: missing token", common.ErrUnauthenticated)
	}
	if len(secret) == 0 {
		return Principal{}, fmt.Errorf("%w: auth secret", common.ErrMissingConfig)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}
	if !parsed.Valid {
		return Principal{}, fmt.Errorf("%w: invalid token", common.ErrUnauthenticated)
	}

	if err := validateCallerTenant(claims.TenantID); err != nil {
		return Principal{}, fmt.Errorf("%w: tenant_id claim: %w", common.ErrUnauthenticated, err)
	}

	return Principal{
		TenantID: claims.TenantID,
		Subject:  claims.Subject,
		Roles:    claims.Roles,
	}, nil
}

// validateCallerTenant rejects tenant ids no caller may act as. The system
// tenant is reached through the admin role, never by claiming it.
func validateCallerTenant(tenantID string) error {
	if err := model.ValidateTenantID(tenantID); err != nil {
		return err
	}
	if model.IsSystemTenant(tenantID) {
		return fmt.Errorf("%w: tenant %q is reserved", common.ErrInvalidArgument, tenantID)
	}
	return nil
}

// Issue signs a token for p that expires after ttl. A zero ttl never expires.
func Issue(p Principal, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("%w: auth secret", common.ErrMissingConfig)
	}
	if err := validateCallerTenant(p.TenantID); err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		TenantID: p.TenantID,
		Roles:    p.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  p.Subject,
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   "rentbook",
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

type ctxKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal stored in ctx.
func FromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	if !ok {
		return Principal{}, fmt.Errorf("%w: no principal in context", common.ErrUnauthenticated)
	}
	return p, nil
}
