package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/finportal/internal/models"
)

func TestAuthoritiesFor(t *testing.T) {
	assert.Equal(t, []string{"ROLE_CLIENT"}, AuthoritiesFor(models.RoleClient))
	assert.Equal(t, []string{"ROLE_EMPLOYEE"}, AuthoritiesFor("employee"))
	assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_EMPLOYEE"}, AuthoritiesFor(models.RoleAdmin))
}

func TestIdentity_HasAnyRole(t *testing.T) {
	admin := New(&models.Account{ID: 1, Email: "a@x.com", Role: models.RoleAdmin})
	client := New(&models.Account{ID: 2, Email: "c@x.com", Role: models.RoleClient})

	assert.True(t, admin.HasAnyRole(models.RoleEmployee))
	assert.True(t, admin.HasAnyRole(models.RoleAdmin))
	assert.False(t, admin.HasAnyRole(models.RoleClient))

	assert.True(t, client.HasAnyRole(models.RoleClient, models.RoleAdmin))
	assert.False(t, client.HasAnyRole(models.RoleEmployee))
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	want := New(&models.Account{ID: 7, Email: "john@x.com", Role: models.RoleClient})
	got, ok := FromContext(IntoContext(context.Background(), want))
	require.True(t, ok)
	assert.Equal(t, want, got)
}
