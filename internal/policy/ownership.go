package policy

import (
	"context"

	"github.com/diewo77/go-quotes/gate"
	"github.com/diewo77/go-quotes/internal/models"
)

// Ownable is an interface for resources that have an owner.
// Implement this on your models to enable ownership-based authorization.
type Ownable interface {
	GetUserID() uint
}

// OwnershipPolicy checks if the user owns the resource.
// Works with any model that implements the Ownable interface.
type OwnershipPolicy struct{}

// NewOwnershipPolicy creates a new ownership policy.
func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can checks if the user owns the resource.
// For list/create actions (resource is nil), it always returns true.
func (p *OwnershipPolicy) Can(_ context.Context, user *models.User, action gate.Action, resource any) bool {
	if user == nil {
		return false
	}
	// For list/create, there's no specific resource to check ownership
	if resource == nil {
		return true
	}

	ownable, ok := resource.(Ownable)
	if !ok {
		// Resources without ownership information are denied by default.
		return false
	}

	return ownable.GetUserID() == user.ID
}

// AdminBypassPolicy wraps another policy and always allows access for admins.
// Per the access rule, a quote is visible to its creator or to any admin.
type AdminBypassPolicy struct {
	inner gate.Policy[*models.User]
}

// NewAdminBypassPolicy creates a policy that bypasses ownership for admins.
func NewAdminBypassPolicy(inner gate.Policy[*models.User]) *AdminBypassPolicy {
	return &AdminBypassPolicy{inner: inner}
}

// Can checks if user is admin (bypass) or falls back to the inner policy.
func (p *AdminBypassPolicy) Can(ctx context.Context, user *models.User, action gate.Action, resource any) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	return p.inner.Can(ctx, user, action, resource)
}
