// Package permission maps team roles to the permissions they grant. The mapping is static
// configuration, every check takes the callers role explicitly.
package permission

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"
)

type Permission string

const (
	ClusterView      Permission = "cluster:view"
	ClusterCreate    Permission = "cluster:create"
	ClusterDelete    Permission = "cluster:delete"
	ClusterEdit      Permission = "cluster:edit"
	OnboardingCancel Permission = "onboarding:cancel"
	StatsView        Permission = "stats:view"
	TeamView         Permission = "team:view"
	TeamInvite       Permission = "team:invite"
	TeamChangeRoles  Permission = "team:change_roles"
	TeamDelete       Permission = "team:delete"
)

// All is the universe of permissions. The owner role is granted all of them.
var All = []Permission{
	ClusterView,
	ClusterCreate,
	ClusterDelete,
	ClusterEdit,
	OnboardingCancel,
	StatsView,
	TeamView,
	TeamInvite,
	TeamChangeRoles,
	TeamDelete,
}

type Role string

const (
	RoleOwner       Role = "owner"
	RoleAdmin       Role = "admin"
	RoleContributor Role = "contributor"
	RoleViewer      Role = "viewer"
)

var rank = map[Role]int{
	RoleViewer:      1,
	RoleContributor: 2,
	RoleAdmin:       3,
	RoleOwner:       4,
}

var viewer = []Permission{ClusterView, StatsView, TeamView}

var contributor = append(slices.Clone(viewer), ClusterCreate, ClusterEdit, OnboardingCancel)

var admin = append(slices.Clone(contributor), ClusterDelete, TeamInvite, TeamChangeRoles)

var grants = map[Role]map[Permission]struct{}{
	RoleViewer:      set(viewer),
	RoleContributor: set(contributor),
	RoleAdmin:       set(admin),
}

func set(permissions []Permission) map[Permission]struct{} {
	s := make(map[Permission]struct{}, len(permissions))
	for _, p := range permissions {
		s[p] = struct{}{}
	}
	return s
}

// ParseRole returns the role named s or an error if there is no such role.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if _, ok := rank[role]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// Roles returns all roles ordered from least to most privileged.
func Roles() []Role {
	roles := maps.Keys(rank)
	slices.SortFunc(roles, func(a, b Role) int {
		return rank[a] - rank[b]
	})
	return roles
}

// AtLeast reports whether r is as privileged as other.
func (r Role) AtLeast(other Role) bool {
	return rank[r] >= rank[other] && rank[r] > 0
}

// Resolve returns the permissions granted by role sorted by name. Unknown roles grant nothing.
func Resolve(role Role) []Permission {
	if role == RoleOwner {
		return sorted(All)
	}

	granted, ok := grants[role]
	if !ok {
		return nil
	}
	return sorted(maps.Keys(granted))
}

func sorted(permissions []Permission) []Permission {
	s := slices.Clone(permissions)
	slices.Sort(s)
	return s
}

func Has(role Role, p Permission) bool {
	if role == RoleOwner {
		return true
	}

	_, ok := grants[role][p]
	return ok
}

// HasAny reports whether role grants at least one of the permissions. It's false for no permissions.
func HasAny(role Role, permissions ...Permission) bool {
	for _, p := range permissions {
		if Has(role, p) {
			return true
		}
	}
	return false
}

// HasAll reports whether role grants every one of the permissions. It's true for no permissions.
func HasAll(role Role, permissions ...Permission) bool {
	for _, p := range permissions {
		if !Has(role, p) {
			return false
		}
	}
	return true
}
