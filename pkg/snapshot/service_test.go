package snapshot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/pkg/model"
	"github.com/kubervise/kubervise-manager/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repository *mockSnapshotRepository, clusters *mockClusterService, cache *mockStatsCache, notifier *mockNotifier) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewService(logger, repository, clusters, cache, notifier)
	service.now = func() time.Time { return now }
	return service
}

func TestService_Ingest(t *testing.T) {
	clusterID := uuid.New()
	teamID := uuid.New()
	cluster := &model.Cluster{ID: clusterID, TeamID: teamID, Name: "production", AgentToken: "agent-token"}
	payload := []byte(`{"nodes": [{"name": "node-1", "status": "Ready"}], "pods": [], "collected_at": "2024-05-01T11:59:30Z"}`)

	t.Run("Valid", func(t *testing.T) {
		clusters := &mockClusterService{}
		clusters.On("Authenticate", mock.Anything, clusterID, "agent-token").Return(cluster, nil)
		clusters.On("MarkSeen", mock.Anything, clusterID, now).Return(nil)
		repository := &mockSnapshotRepository{}
		repository.
			On("upsert", mock.Anything, mock.MatchedBy(func(s *model.ClusterSnapshot) bool {
				return s.ClusterID == clusterID &&
					s.CollectedAt.Equal(now) &&
					string(s.Snapshot) == string(payload) &&
					s.AgentCollectedAt != nil && s.AgentCollectedAt.Equal(now.Add(-30*time.Second))
			})).
			Return(nil)
		cache := &mockStatsCache{}
		cache.On("Invalidate", mock.Anything, teamID).Return(nil)
		notifier := &mockNotifier{}
		notifier.On("Publish", mock.Anything, mock.MatchedBy(func(n notify.Notification) bool {
			return n.Kind == notify.ClusterSnapshot && n.ClusterID == clusterID && n.ClusterName == "production"
		})).Return(nil)
		service := newTestService(repository, clusters, cache, notifier)

		ack, err := service.Ingest(context.Background(), clusterID, "agent-token", payload)

		require.NoError(t, err)
		assert.True(t, ack.Success)
		assert.Equal(t, now, ack.CollectedAt)
		repository.AssertExpectations(t)
		clusters.AssertExpectations(t)
		cache.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("CollectedAtHasMicrosecondPrecision", func(t *testing.T) {
		precise := now.Add(430336279 * time.Nanosecond)
		truncated := now.Add(430336 * time.Microsecond)
		clusters := &mockClusterService{}
		clusters.On("Authenticate", mock.Anything, clusterID, "agent-token").Return(cluster, nil)
		clusters.On("MarkSeen", mock.Anything, clusterID, truncated).Return(nil)
		repository := &mockSnapshotRepository{}
		repository.
			On("upsert", mock.Anything, mock.MatchedBy(func(s *model.ClusterSnapshot) bool {
				return s.CollectedAt.Equal(truncated)
			})).
			Return(nil)
		cache := &mockStatsCache{}
		cache.On("Invalidate", mock.Anything, teamID).Return(nil)
		notifier := &mockNotifier{}
		notifier.On("Publish", mock.Anything, mock.Anything).Return(nil)
		service := newTestService(repository, clusters, cache, notifier)
		service.now = func() time.Time { return precise }

		ack, err := service.Ingest(context.Background(), clusterID, "agent-token", payload)

		require.NoError(t, err)
		assert.Equal(t, truncated, ack.CollectedAt)
		repository.AssertExpectations(t)
		clusters.AssertExpectations(t)
	})

	t.Run("EmptyArraysAreValid", func(t *testing.T) {
		clusters := &mockClusterService{}
		clusters.On("Authenticate", mock.Anything, clusterID, "agent-token").Return(cluster, nil)
		clusters.On("MarkSeen", mock.Anything, clusterID, now).Return(nil)
		repository := &mockSnapshotRepository{}
		repository.On("upsert", mock.Anything, mock.Anything).Return(nil)
		cache := &mockStatsCache{}
		cache.On("Invalidate", mock.Anything, teamID).Return(nil)
		notifier := &mockNotifier{}
		notifier.On("Publish", mock.Anything, mock.Anything).Return(nil)
		service := newTestService(repository, clusters, cache, notifier)

		_, err := service.Ingest(context.Background(), clusterID, "agent-token", []byte(`{"nodes": [], "pods": []}`))

		require.NoError(t, err)
	})

	t.Run("WrongToken", func(t *testing.T) {
		clusters := &mockClusterService{}
		clusters.On("Authenticate", mock.Anything, clusterID, "other").Return(nil, errdef.NewForbidden("invalid token"))
		repository := &mockSnapshotRepository{}
		service := newTestService(repository, clusters, &mockStatsCache{}, &mockNotifier{})

		_, err := service.Ingest(context.Background(), clusterID, "other", payload)

		require.Error(t, err)
		assert.True(t, errdef.IsForbidden(err))
		repository.AssertNotCalled(t, "upsert", mock.Anything, mock.Anything)
		clusters.AssertNotCalled(t, "MarkSeen", mock.Anything, mock.Anything, mock.Anything)
	})

	tests := map[string]string{
		"MissingNodes": `{"pods": []}`,
		"NullPods":     `{"nodes": [], "pods": null}`,
		"NodesObject":  `{"nodes": {}, "pods": []}`,
		"NotAnObject":  `[]`,
		"Malformed":    `{"nodes": [`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			clusters := &mockClusterService{}
			clusters.On("Authenticate", mock.Anything, clusterID, "agent-token").Return(cluster, nil)
			repository := &mockSnapshotRepository{}
			service := newTestService(repository, clusters, &mockStatsCache{}, &mockNotifier{})

			_, err := service.Ingest(context.Background(), clusterID, "agent-token", []byte(body))

			require.Error(t, err)
			assert.True(t, errdef.IsBadRequest(err))
			repository.AssertNotCalled(t, "upsert", mock.Anything, mock.Anything)
		})
	}

	t.Run("PersistenceFailure", func(t *testing.T) {
		clusters := &mockClusterService{}
		clusters.On("Authenticate", mock.Anything, clusterID, "agent-token").Return(cluster, nil)
		repository := &mockSnapshotRepository{}
		repository.On("upsert", mock.Anything, mock.Anything).Return(errors.New("connection reset"))
		service := newTestService(repository, clusters, &mockStatsCache{}, &mockNotifier{})

		_, err := service.Ingest(context.Background(), clusterID, "agent-token", payload)

		require.ErrorContains(t, err, "connection reset")
		clusters.AssertNotCalled(t, "MarkSeen", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CacheAndNotificationFailuresAreIgnored", func(t *testing.T) {
		clusters := &mockClusterService{}
		clusters.On("Authenticate", mock.Anything, clusterID, "agent-token").Return(cluster, nil)
		clusters.On("MarkSeen", mock.Anything, clusterID, now).Return(nil)
		repository := &mockSnapshotRepository{}
		repository.On("upsert", mock.Anything, mock.Anything).Return(nil)
		cache := &mockStatsCache{}
		cache.On("Invalidate", mock.Anything, teamID).Return(errors.New("redis down"))
		notifier := &mockNotifier{}
		notifier.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))
		service := newTestService(repository, clusters, cache, notifier)

		ack, err := service.Ingest(context.Background(), clusterID, "agent-token", payload)

		require.NoError(t, err)
		assert.True(t, ack.Success)
	})
}

func TestParseAgentTime(t *testing.T) {
	tests := map[string]struct {
		value    string
		expected time.Time
	}{
		"RFC3339": {
			value:    "2024-05-01T11:59:30Z",
			expected: time.Date(2024, 5, 1, 11, 59, 30, 0, time.UTC),
		},
		"RFC3339WithOffset": {
			value:    "2024-05-01T13:59:30.5+02:00",
			expected: time.Date(2024, 5, 1, 11, 59, 30, 500000000, time.UTC),
		},
		"WithoutZone": {
			value:    "2024-05-01T11:59:30.123456",
			expected: time.Date(2024, 5, 1, 11, 59, 30, 123456000, time.UTC),
		},
		"WithoutZoneAndFraction": {
			value:    "2024-05-01T11:59:30",
			expected: time.Date(2024, 5, 1, 11, 59, 30, 0, time.UTC),
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			parsed := parseAgentTime(test.value)

			require.NotNil(t, parsed)
			assert.Equal(t, test.expected, *parsed)
		})
	}

	t.Run("Invalid", func(t *testing.T) {
		assert.Nil(t, parseAgentTime(""))
		assert.Nil(t, parseAgentTime("yesterday"))
	})
}

func TestService_FindByTeam(t *testing.T) {
	clusterID := uuid.New()
	teamID := uuid.New()

	t.Run("OtherTeam", func(t *testing.T) {
		clusters := &mockClusterService{}
		clusters.On("Find", mock.Anything, teamID, clusterID).Return(nil, errdef.NewNotFound("not found"))
		repository := &mockSnapshotRepository{}
		service := newTestService(repository, clusters, &mockStatsCache{}, &mockNotifier{})

		_, err := service.FindByTeam(context.Background(), teamID, clusterID)

		require.Error(t, err)
		assert.True(t, errdef.IsNotFound(err))
		repository.AssertNotCalled(t, "find", mock.Anything, mock.Anything)
	})

	t.Run("Found", func(t *testing.T) {
		clusters := &mockClusterService{}
		clusters.On("Find", mock.Anything, teamID, clusterID).Return(&model.Cluster{ID: clusterID, TeamID: teamID}, nil)
		repository := &mockSnapshotRepository{}
		repository.On("find", mock.Anything, clusterID).Return(&model.ClusterSnapshot{ClusterID: clusterID, CollectedAt: now}, nil)
		service := newTestService(repository, clusters, &mockStatsCache{}, &mockNotifier{})

		snapshot, err := service.FindByTeam(context.Background(), teamID, clusterID)

		require.NoError(t, err)
		assert.Equal(t, now, snapshot.CollectedAt)
	})
}

type mockSnapshotRepository struct{ mock.Mock }

func (m *mockSnapshotRepository) upsert(ctx context.Context, snapshot *model.ClusterSnapshot) error {
	called := m.Called(ctx, snapshot)
	return called.Error(0)
}

func (m *mockSnapshotRepository) find(ctx context.Context, clusterID uuid.UUID) (*model.ClusterSnapshot, error) {
	called := m.Called(ctx, clusterID)
	snapshot, ok := called.Get(0).(*model.ClusterSnapshot)
	if ok {
		return snapshot, nil
	}
	return nil, called.Error(1)
}

func (m *mockSnapshotRepository) findByTeam(ctx context.Context, teamID uuid.UUID) ([]model.ClusterSnapshot, error) {
	called := m.Called(ctx, teamID)
	snapshots, ok := called.Get(0).([]model.ClusterSnapshot)
	if ok {
		return snapshots, nil
	}
	return nil, called.Error(1)
}

type mockClusterService struct{ mock.Mock }

func (m *mockClusterService) Authenticate(ctx context.Context, id uuid.UUID, presentedToken string) (*model.Cluster, error) {
	called := m.Called(ctx, id, presentedToken)
	c, ok := called.Get(0).(*model.Cluster)
	if ok {
		return c, nil
	}
	return nil, called.Error(1)
}

func (m *mockClusterService) Find(ctx context.Context, teamID, id uuid.UUID) (*model.Cluster, error) {
	called := m.Called(ctx, teamID, id)
	c, ok := called.Get(0).(*model.Cluster)
	if ok {
		return c, nil
	}
	return nil, called.Error(1)
}

func (m *mockClusterService) MarkSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error {
	called := m.Called(ctx, id, seenAt)
	return called.Error(0)
}

type mockStatsCache struct{ mock.Mock }

func (m *mockStatsCache) Invalidate(ctx context.Context, teamID uuid.UUID) error {
	called := m.Called(ctx, teamID)
	return called.Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Publish(ctx context.Context, n notify.Notification) error {
	called := m.Called(ctx, n)
	return called.Error(0)
}
