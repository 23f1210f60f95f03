package snapshot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/pkg/inttest"
	"github.com/kubervise/kubervise-manager/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository(t *testing.T) {
	t.Parallel()

	db := inttest.SetupDB(t)
	repository := NewRepository(db)
	ctx := context.Background()

	team := &model.Team{Name: "platform"}
	require.NoError(t, db.Create(team).Error)
	newCluster := func(name string) *model.Cluster {
		cluster := &model.Cluster{
			TeamID:             team.ID,
			Name:               name,
			AgentToken:         strings.Repeat("a", 64),
			OnboardingID:       uuid.New(),
			InstallTokenDigest: uuid.NewString(),
		}
		require.NoError(t, db.Create(cluster).Error)
		return cluster
	}
	first := newCluster("first")
	second := newCluster("second")

	_, err := repository.find(ctx, first.ID)
	require.True(t, errdef.IsNotFound(err))

	t.Run("UpsertReplaces", func(t *testing.T) {
		older := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, repository.upsert(ctx, &model.ClusterSnapshot{
			ClusterID:   first.ID,
			Snapshot:    model.SnapshotDocument(`{"nodes": [], "pods": []}`),
			CollectedAt: older,
		}))
		require.NoError(t, repository.upsert(ctx, &model.ClusterSnapshot{
			ClusterID:   first.ID,
			Snapshot:    model.SnapshotDocument(`{"nodes": [{"name": "n1"}], "pods": []}`),
			CollectedAt: older.Add(time.Minute),
		}))

		snapshot, err := repository.find(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, snapshot.CollectedAt.Equal(older.Add(time.Minute)))
		assert.JSONEq(t, `{"nodes": [{"name": "n1"}], "pods": []}`, string(snapshot.Snapshot))

		var count int64
		require.NoError(t, db.Model(&model.ClusterSnapshot{}).Where("cluster_id = ?", first.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("FindByTeam", func(t *testing.T) {
		require.NoError(t, repository.upsert(ctx, &model.ClusterSnapshot{
			ClusterID:   second.ID,
			Snapshot:    model.SnapshotDocument(`{"nodes": [], "pods": []}`),
			CollectedAt: time.Now(),
		}))

		snapshots, err := repository.findByTeam(ctx, team.ID)
		require.NoError(t, err)
		assert.Len(t, snapshots, 2)

		snapshots, err = repository.findByTeam(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, snapshots)
	})

	t.Run("DeletedWithCluster", func(t *testing.T) {
		require.NoError(t, db.Delete(&model.Cluster{}, "id = ?", second.ID).Error)

		_, err := repository.find(ctx, second.ID)
		assert.True(t, errdef.IsNotFound(err))
	})
}
