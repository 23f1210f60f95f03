package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_TeamStats(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	teamID := uuid.New()
	clusterID := uuid.New()
	clusters := []model.Cluster{{ID: clusterID, TeamID: teamID, Name: "prod", ConnectionStatus: model.ConnectionStatusConnected}}
	snapshots := []model.ClusterSnapshot{{
		ClusterID: clusterID,
		Snapshot:  model.SnapshotDocument(`{"nodes": [{"name": "n1", "status": "Ready"}], "pods": [{"name": "p1", "status": "Running"}]}`),
	}}

	t.Run("CacheMiss", func(t *testing.T) {
		clusterService := &mockClusterService{}
		clusterService.On("FindAll", mock.Anything, teamID).Return(clusters, nil)
		snapshotService := &mockSnapshotService{}
		snapshotService.On("FindAll", mock.Anything, teamID).Return(snapshots, nil)
		cache := &mockCache{}
		cache.On("Generation", mock.Anything, teamID).Return(int64(3), nil)
		cache.On("Get", mock.Anything, teamID, 5).Return(nil, false, nil)
		cache.On("Set", mock.Anything, teamID, int64(3), 5, mock.AnythingOfType("*stats.DashboardStats")).Return(nil)
		service := NewService(logger, clusterService, snapshotService, cache)

		stats, err := service.TeamStats(context.Background(), teamID, 5)

		require.NoError(t, err)
		assert.Equal(t, NodeCounts{Total: 1, Ready: 1}, stats.Nodes)
		assert.Equal(t, 1, stats.Pods.Running)
		assert.Equal(t, 1, stats.Clusters.Connected)
		cache.AssertExpectations(t)
	})

	t.Run("CacheHit", func(t *testing.T) {
		clusterService := &mockClusterService{}
		snapshotService := &mockSnapshotService{}
		cache := &mockCache{}
		cache.On("Generation", mock.Anything, teamID).Return(int64(0), nil)
		cache.On("Get", mock.Anything, teamID, 5).Return(&DashboardStats{Namespaces: 42}, true, nil)
		service := NewService(logger, clusterService, snapshotService, cache)

		stats, err := service.TeamStats(context.Background(), teamID, 5)

		require.NoError(t, err)
		assert.Equal(t, 42, stats.Namespaces)
		clusterService.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
	})

	t.Run("CacheFailure", func(t *testing.T) {
		clusterService := &mockClusterService{}
		clusterService.On("FindAll", mock.Anything, teamID).Return(clusters, nil)
		snapshotService := &mockSnapshotService{}
		snapshotService.On("FindAll", mock.Anything, teamID).Return(snapshots, nil)
		cache := &mockCache{}
		cache.On("Generation", mock.Anything, teamID).Return(int64(1), nil)
		cache.On("Get", mock.Anything, teamID, 5).Return(nil, false, errors.New("redis down"))
		cache.On("Set", mock.Anything, teamID, int64(1), 5, mock.Anything).Return(errors.New("redis down"))
		service := NewService(logger, clusterService, snapshotService, cache)

		stats, err := service.TeamStats(context.Background(), teamID, 5)

		require.NoError(t, err)
		assert.Equal(t, 1, stats.Nodes.Ready)
	})

	t.Run("UnknownGenerationIsNotCached", func(t *testing.T) {
		clusterService := &mockClusterService{}
		clusterService.On("FindAll", mock.Anything, teamID).Return(clusters, nil)
		snapshotService := &mockSnapshotService{}
		snapshotService.On("FindAll", mock.Anything, teamID).Return(snapshots, nil)
		cache := &mockCache{}
		cache.On("Generation", mock.Anything, teamID).Return(int64(0), errors.New("redis down"))
		cache.On("Get", mock.Anything, teamID, 5).Return(nil, false, nil)
		service := NewService(logger, clusterService, snapshotService, cache)

		stats, err := service.TeamStats(context.Background(), teamID, 5)

		require.NoError(t, err)
		assert.Equal(t, 1, stats.Nodes.Ready)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("LoadFailure", func(t *testing.T) {
		clusterService := &mockClusterService{}
		clusterService.On("FindAll", mock.Anything, teamID).Return(nil, errors.New("connection refused"))
		snapshotService := &mockSnapshotService{}
		snapshotService.On("FindAll", mock.Anything, teamID).Return(snapshots, nil)
		cache := &mockCache{}
		cache.On("Generation", mock.Anything, teamID).Return(int64(0), nil)
		cache.On("Get", mock.Anything, teamID, 5).Return(nil, false, nil)
		service := NewService(logger, clusterService, snapshotService, cache)

		_, err := service.TeamStats(context.Background(), teamID, 5)

		require.ErrorContains(t, err, "connection refused")
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

type mockClusterService struct{ mock.Mock }

func (m *mockClusterService) FindAll(ctx context.Context, teamID uuid.UUID) ([]model.Cluster, error) {
	called := m.Called(ctx, teamID)
	clusters, ok := called.Get(0).([]model.Cluster)
	if ok {
		return clusters, nil
	}
	return nil, called.Error(1)
}

type mockSnapshotService struct{ mock.Mock }

func (m *mockSnapshotService) FindAll(ctx context.Context, teamID uuid.UUID) ([]model.ClusterSnapshot, error) {
	called := m.Called(ctx, teamID)
	snapshots, ok := called.Get(0).([]model.ClusterSnapshot)
	if ok {
		return snapshots, nil
	}
	return nil, called.Error(1)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Generation(ctx context.Context, teamID uuid.UUID) (int64, error) {
	called := m.Called(ctx, teamID)
	return called.Get(0).(int64), called.Error(1)
}

func (m *mockCache) Get(ctx context.Context, teamID uuid.UUID, recentEvents int) (*DashboardStats, bool, error) {
	called := m.Called(ctx, teamID, recentEvents)
	stats, _ := called.Get(0).(*DashboardStats)
	return stats, called.Bool(1), called.Error(2)
}

func (m *mockCache) Set(ctx context.Context, teamID uuid.UUID, generation int64, recentEvents int, stats *DashboardStats) error {
	called := m.Called(ctx, teamID, generation, recentEvents, stats)
	return called.Error(0)
}
