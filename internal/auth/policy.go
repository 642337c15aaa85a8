package auth

import (
	"context"

	"todo-backend/internal/domain"
)

// Authorize allows the call when an identity is present and, if requiredRole is set,
// carries that role.
func Authorize(identity *domain.Identity, requiredRole string) error {
	if identity == nil {
		return domain.ErrAuthorizationFailed
	}
	if requiredRole != "" && identity.Role != requiredRole {
		return domain.ErrForbidden
	}
	return nil
}

func RequireAdmin(identity *domain.Identity) error {
	if identity == nil {
		return domain.ErrAuthorizationFailed
	}
	if !identity.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// OwnerScope returns the owner id every self-scoped query must filter by.
func OwnerScope(identity *domain.Identity) (int64, error) {
	if err := Authorize(identity, ""); err != nil {
		return 0, err
	}
	return identity.UserID, nil
}

type identityKey struct{}

func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns nil when the request was not authenticated.
func IdentityFromContext(ctx context.Context) *domain.Identity {
	identity, ok := ctx.Value(identityKey{}).(domain.Identity)
	if !ok {
		return nil
	}
	return &identity
}
