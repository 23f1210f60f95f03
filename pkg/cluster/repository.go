package cluster

import (
	"context"
	"errors"
	"fmt"
	"time"

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

func (r repository) find(ctx context.Context, id uuid.UUID) (*model.Cluster, error) {
	var cluster *model.Cluster
	err := r.db.
		WithContext(ctx).
		Where("id = ?", id).
		First(&cluster).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("cluster with id %q doesn't exist", id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find cluster: %v", err)
	}

	return cluster, nil
}

func (r repository) findByTeam(ctx context.Context, teamID uuid.UUID) ([]model.Cluster, error) {
	var clusters []model.Cluster
	err := r.db.
		WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at desc").
		Find(&clusters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find clusters of team %q: %v", teamID, err)
	}

	return clusters, nil
}

func (r repository) findByOnboardingID(ctx context.Context, onboardingID uuid.UUID) (*model.Cluster, error) {
	var cluster *model.Cluster
	err := r.db.
		WithContext(ctx).
		Where("onboarding_id = ?", onboardingID).
		First(&cluster).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("no cluster was created by onboarding %q", onboardingID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find cluster by onboarding: %v", err)
	}

	return cluster, nil
}

func (r repository) existsByInstallTokenDigest(ctx context.Context, digest string) (bool, error) {
	var count int64
	err := r.db.
		WithContext(ctx).
		Model(&model.Cluster{}).
		Where("install_token_digest = ?", digest).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up install token: %v", err)
	}

	return count > 0, nil
}

func (r repository) update(ctx context.Context, cluster *model.Cluster) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	err := r.db.
		WithContext(ctx).
		Model(cluster).
		Select("name", "description").
		Updates(cluster).Error
	if err != nil {
		return fmt.Errorf("failed to update cluster %q: %v", cluster.ID, err)
	}

	return nil
}

func (r repository) delete(ctx context.Context, id uuid.UUID) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Delete(&model.ClusterSnapshot{}, "cluster_id = ?", id).Error
		if err != nil {
			return fmt.Errorf("failed to delete snapshot of cluster %q: %v", id, err)
		}

		db := tx.Delete(&model.Cluster{}, "id = ?", id)
		if db.Error != nil {
			return fmt.Errorf("failed to delete cluster %q: %v", id, db.Error)
		} else if db.RowsAffected < 1 {
			return errdef.NewNotFound("cluster with id %q doesn't exist", id)
		}

		return nil
	})
}

func (r repository) markSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	db := r.db.
		WithContext(ctx).
		Model(&model.Cluster{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_seen_at":      seenAt,
			"connection_status": model.ConnectionStatusConnected,
		})
	if db.Error != nil {
		return fmt.Errorf("failed to mark cluster %q as seen: %v", id, db.Error)
	} else if db.RowsAffected < 1 {
		return errdef.NewNotFound("cluster with id %q doesn't exist", id)
	}

	return nil
}

func (r repository) markStale(ctx context.Context, teamID uuid.UUID, seenBefore time.Time) (int64, error) {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	db := r.db.
		WithContext(ctx).
		Model(&model.Cluster{}).
		Where("team_id = ? AND connection_status = ? AND last_seen_at < ?", teamID, model.ConnectionStatusConnected, seenBefore).
		Update("connection_status", model.ConnectionStatusDisconnected)
	if db.Error != nil {
		return 0, fmt.Errorf("failed to mark stale clusters of team %q: %v", teamID, db.Error)
	}

	return db.RowsAffected, nil
}
