package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Run("OwnerHasEveryPermission", func(t *testing.T) {
		assert.ElementsMatch(t, All, Resolve(RoleOwner))
	})

	t.Run("Viewer", func(t *testing.T) {
		assert.Equal(t, []Permission{ClusterView, StatsView, TeamView}, Resolve(RoleViewer))
	})

	t.Run("UnknownRole", func(t *testing.T) {
		assert.Empty(t, Resolve(Role("janitor")))
	})

	t.Run("HigherRolesGrantSuperset", func(t *testing.T) {
		roles := Roles()
		for i := 1; i < len(roles); i++ {
			lower := Resolve(roles[i-1])
			higher := Resolve(roles[i])
			assert.Subsetf(t, higher, lower, "%s should grant everything %s does", roles[i], roles[i-1])
		}
	})
}

func TestHas(t *testing.T) {
	tests := []struct {
		role       Role
		permission Permission
		want       bool
	}{
		{RoleOwner, TeamDelete, true},
		{RoleOwner, Permission("anything:new"), true},
		{RoleAdmin, TeamChangeRoles, true},
		{RoleAdmin, TeamDelete, false},
		{RoleContributor, ClusterCreate, true},
		{RoleContributor, ClusterDelete, false},
		{RoleViewer, StatsView, true},
		{RoleViewer, ClusterCreate, false},
		{Role(""), ClusterView, false},
	}

	for _, test := range tests {
		t.Run(string(test.role)+"/"+string(test.permission), func(t *testing.T) {
			assert.Equal(t, test.want, Has(test.role, test.permission))
		})
	}
}

func TestHasAnyAndHasAll(t *testing.T) {
	assert.True(t, HasAny(RoleViewer, ClusterCreate, ClusterView))
	assert.False(t, HasAny(RoleViewer, ClusterCreate, ClusterDelete))
	assert.False(t, HasAny(RoleOwner))

	assert.True(t, HasAll(RoleContributor, ClusterCreate, ClusterView))
	assert.False(t, HasAll(RoleContributor, ClusterCreate, ClusterDelete))
	assert.True(t, HasAll(RoleViewer))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = ParseRole("superuser")
	assert.ErrorContains(t, err, `unknown role "superuser"`)
}

func TestAtLeast(t *testing.T) {
	assert.True(t, RoleOwner.AtLeast(RoleAdmin))
	assert.True(t, RoleAdmin.AtLeast(RoleAdmin))
	assert.False(t, RoleViewer.AtLeast(RoleContributor))
	assert.False(t, Role("").AtLeast(Role("")))
	assert.Equal(t, []Role{RoleViewer, RoleContributor, RoleAdmin, RoleOwner}, Roles())
}
