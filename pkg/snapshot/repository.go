package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/pkg/model"
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

// upsert replaces the snapshot of the cluster. The last write wins.
func (r repository) upsert(ctx context.Context, snapshot *model.ClusterSnapshot) error {
	// only use ctx for values (logging) and not cancellation signals on cud operations for now. ctx
	// cancellation can lead to rollbacks which we should decide individually.
	ctx = context.WithoutCancel(ctx)

	err := r.db.
		WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cluster_id"}},
			UpdateAll: true,
		}).
		Create(snapshot).Error
	if err != nil {
		return fmt.Errorf("failed to save snapshot of cluster %q: %v", snapshot.ClusterID, err)
	}

	return nil
}

func (r repository) find(ctx context.Context, clusterID uuid.UUID) (*model.ClusterSnapshot, error) {
	var snapshot *model.ClusterSnapshot
	err := r.db.
		WithContext(ctx).
		Where("cluster_id = ?", clusterID).
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errdef.NewNotFound("no snapshot of cluster %q exists", clusterID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find snapshot: %v", err)
	}

	return snapshot, nil
}

func (r repository) findByTeam(ctx context.Context, teamID uuid.UUID) ([]model.ClusterSnapshot, error) {
	var snapshots []model.ClusterSnapshot
	err := r.db.
		WithContext(ctx).
		Joins("JOIN clusters ON clusters.id = cluster_snapshots.cluster_id").
		Where("clusters.team_id = ?", teamID).
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find snapshots of team %q: %v", teamID, err)
	}

	return snapshots, nil
}
