package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/pkg/model"
	"github.com/kubervise/kubervise-manager/pkg/permission"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db}
}

type repository struct {
	db *gorm.DB
}

func (r repository) create(ctx context.Context, team *model.Team, ownerID uint) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return fmt.Errorf("failed to create team: %v", err)
		}

		membership := model.Membership{
			TeamID: team.ID,
			UserID: ownerID,
			Role:   string(permission.RoleOwner),
		}
		if err := tx.Create(&membership).Error; err != nil {
			return fmt.Errorf("failed to add owner to team: %v", err)
		}
		team.Memberships = []model.Membership{membership}

		return nil
	})
}

func (r repository) find(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	var team *model.Team
	err := r.db.
		WithContext(ctx).
		Preload("Memberships").
		Where("id = ?", id).
		First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("team with id %q doesn't exist", id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find team: %v", err)
	}

	return team, nil
}

func (r repository) findMembership(ctx context.Context, teamID uuid.UUID, userID uint) (*model.Membership, error) {
	var membership *model.Membership
	err := r.db.
		WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("user %d is not a member of team %q", userID, teamID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find membership: %v", err)
	}

	return membership, nil
}

func (r repository) addMember(ctx context.Context, membership *model.Membership) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	err := r.db.WithContext(ctx).Create(membership).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errdef.NewDuplicated("user %d is already a member of team %q", membership.UserID, membership.TeamID)
	}
	if err != nil {
		return fmt.Errorf("failed to add member: %v", err)
	}

	return nil
}

// changeRole changes the role of a member. The memberships of the team are locked so two
// concurrent demotions can't both pass the last owner check.
func (r repository) changeRole(ctx context.Context, teamID uuid.UUID, userID uint, role permission.Role) (*model.Membership, error) {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	var membership model.Membership
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var memberships []model.Membership
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("team_id = ?", teamID).
			Find(&memberships).Error
		if err != nil {
			return fmt.Errorf("failed to lock memberships: %v", err)
		}

		owners := 0
		found := false
		for _, m := range memberships {
			if m.Role == string(permission.RoleOwner) {
				owners++
			}
			if m.UserID == userID {
				membership = m
				found = true
			}
		}
		if !found {
			return errdef.NewNotFound("user %d is not a member of team %q", userID, teamID)
		}

		if membership.Role == string(permission.RoleOwner) && role != permission.RoleOwner && owners == 1 {
			return errdef.NewConflict("can't demote the last owner of team %q", teamID)
		}

		membership.Role = string(role)
		return tx.
			Model(&model.Membership{}).
			Where("team_id = ? AND user_id = ?", teamID, userID).
			Update("role", membership.Role).Error
	})
	if err != nil {
		return nil, err
	}

	return &membership, nil
}
