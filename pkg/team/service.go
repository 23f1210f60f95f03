package team

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/pkg/model"
	"github.com/kubervise/kubervise-manager/pkg/permission"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(teamRepository teamRepository) *Service {
	return &Service{teamRepository}
}

type teamRepository interface {
	create(ctx context.Context, team *model.Team, ownerID uint) error
	find(ctx context.Context, id uuid.UUID) (*model.Team, error)
	findMembership(ctx context.Context, teamID uuid.UUID, userID uint) (*model.Membership, error)
	addMember(ctx context.Context, membership *model.Membership) error
	changeRole(ctx context.Context, teamID uuid.UUID, userID uint, role permission.Role) (*model.Membership, error)
}

type Service struct {
	teamRepository teamRepository
}

// Create creates a team with the user as its owner.
func (s Service) Create(ctx context.Context, name string, ownerID uint) (*model.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errdef.NewBadRequest("team name must not be empty")
	}

	team := &model.Team{Name: name}
	err := s.teamRepository.create(ctx, team, ownerID)
	if err != nil {
		return nil, err
	}

	return team, nil
}

func (s Service) Find(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	return s.teamRepository.find(ctx, id)
}

// FindRole returns the role of the user in the team. An errdef.NotFound error is returned if the
// user isn't a member.
func (s Service) FindRole(ctx context.Context, teamID uuid.UUID, userID uint) (permission.Role, error) {
	membership, err := s.teamRepository.findMembership(ctx, teamID, userID)
	if err != nil {
		return "", err
	}

	return permission.ParseRole(membership.Role)
}

// AddMember adds the user to the team. Callers can't grant a role more privileged than their own.
func (s Service) AddMember(ctx context.Context, callerRole permission.Role, teamID uuid.UUID, userID uint, role permission.Role) (*model.Membership, error) {
	if !callerRole.AtLeast(role) {
		return nil, errdef.NewForbidden("role %q can't grant role %q", callerRole, role)
	}

	membership := &model.Membership{
		TeamID: teamID,
		UserID: userID,
		Role:   string(role),
	}
	err := s.teamRepository.addMember(ctx, membership)
	if err != nil {
		return nil, err
	}

	return membership, nil
}

// ChangeRole changes the role of a member. The last owner of a team can't be demoted and callers
// can't grant a role more privileged than their own.
func (s Service) ChangeRole(ctx context.Context, callerRole permission.Role, teamID uuid.UUID, userID uint, role permission.Role) (*model.Membership, error) {
	if !callerRole.AtLeast(role) {
		return nil, errdef.NewForbidden("role %q can't grant role %q", callerRole, role)
	}

	current, err := s.teamRepository.findMembership(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	currentRole, err := permission.ParseRole(current.Role)
	if err != nil {
		return nil, err
	}
	if !callerRole.AtLeast(currentRole) {
		return nil, errdef.NewForbidden("role %q can't change the role of a member with role %q", callerRole, currentRole)
	}

	return s.teamRepository.changeRole(ctx, teamID, userID, role)
}
