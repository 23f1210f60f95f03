package onboarding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/pkg/model"
	"gorm.io/gorm"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *gorm.DB) *repository {
	return &repository{db}
}

type repository struct {
	db *gorm.DB
}

func (r repository) create(ctx context.Context, onboarding *model.PendingOnboarding) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	err := r.db.WithContext(ctx).Create(onboarding).Error
	if err != nil {
		return fmt.Errorf("failed to create onboarding: %v", err)
	}

	return nil
}

func (r repository) find(ctx context.Context, id uuid.UUID) (*model.PendingOnboarding, error) {
	var onboarding *model.PendingOnboarding
	err := r.db.
		WithContext(ctx).
		Where("id = ?", id).
		First(&onboarding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("onboarding with id %q doesn't exist", id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find onboarding: %v", err)
	}

	return onboarding, nil
}

func (r repository) findByToken(ctx context.Context, token string) (*model.PendingOnboarding, error) {
	var onboarding *model.PendingOnboarding
	err := r.db.
		WithContext(ctx).
		Where("install_token = ?", token).
		First(&onboarding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("install token doesn't exist")
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find onboarding by token: %v", err)
	}

	return onboarding, nil
}

// delete deletes the onboarding. Deleting an onboarding which doesn't exist isn't an error.
func (r repository) delete(ctx context.Context, id uuid.UUID) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	err := r.db.WithContext(ctx).Delete(&model.PendingOnboarding{}, "id = ?", id).Error
	if err != nil {
		return fmt.Errorf("failed to delete onboarding %q: %v", id, err)
	}

	return nil
}

// redeem consumes the onboarding and creates the cluster in a single transaction. Of two concurrent
// redemptions of one onboarding only the one deleting it creates a cluster.
func (r repository) redeem(ctx context.Context, onboardingID uuid.UUID, cluster *model.Cluster) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&model.PendingOnboarding{}, "id = ?", onboardingID)
		if result.Error != nil {
			return fmt.Errorf("failed to consume onboarding %q: %v", onboardingID, result.Error)
		}

		if result.RowsAffected != 1 {
			return errdef.NewAlreadyConsumed("install token has already been used")
		}

		err := tx.Create(cluster).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errdef.NewAlreadyConsumed("install token has already been used")
		}
		if err != nil {
			return fmt.Errorf("failed to create cluster: %v", err)
		}

		return nil
	})
}
