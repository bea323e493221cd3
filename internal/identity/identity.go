package identity

import (
	"context"
	"slices"
	"strings"

	"github.com/Skotchmaster/finportal/internal/models"
)

// Identity is the authenticated caller attached to a request by the gate.
type Identity struct {
	AccountID   uint     `json:"id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Authorities []string `json:"authorities"`
}

func New(account *models.Account) Identity {
	return Identity{
		AccountID:   account.ID,
		Email:       account.Email,
		Role:        account.Role,
		Authorities: AuthoritiesFor(account.Role),
	}
}

// AuthoritiesFor derives the granted authorities of a role. ADMIN implies
// EMPLOYEE.
func AuthoritiesFor(role string) []string {
	role = strings.ToUpper(role)
	out := []string{"ROLE_" + role}
	if role == models.RoleAdmin {
		out = append(out, "ROLE_"+models.RoleEmployee)
	}
	return out
}

func (id Identity) HasAuthority(a string) bool {
	return slices.Contains(id.Authorities, a)
}

// HasAnyRole reports whether the identity holds the authority of any of roles.
func (id Identity) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if id.HasAuthority("ROLE_" + strings.ToUpper(r)) {
			return true
		}
	}
	return false
}

type ctxKey struct{}

func IntoContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
