package stats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/pkg/model"
	"golang.org/x/sync/errgroup"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(logger *slog.Logger, clusterService clusterService, snapshotService snapshotService, cache cache) *Service {
	return &Service{
		logger:          logger,
		clusterService:  clusterService,
		snapshotService: snapshotService,
		cache:           cache,
	}
}

type clusterService interface {
	FindAll(ctx context.Context, teamID uuid.UUID) ([]model.Cluster, error)
}

type snapshotService interface {
	FindAll(ctx context.Context, teamID uuid.UUID) ([]model.ClusterSnapshot, error)
}

type cache interface {
	Generation(ctx context.Context, teamID uuid.UUID) (int64, error)
	Get(ctx context.Context, teamID uuid.UUID, recentEvents int) (*DashboardStats, bool, error)
	Set(ctx context.Context, teamID uuid.UUID, generation int64, recentEvents int, stats *DashboardStats) error
}

type Service struct {
	logger          *slog.Logger
	clusterService  clusterService
	snapshotService snapshotService
	cache           cache
}

// TeamStats returns the dashboard stats of a team. Stats are served from cache if possible, a cache
// failure is logged and the stats are computed.
func (s Service) TeamStats(ctx context.Context, teamID uuid.UUID, recentEvents int) (*DashboardStats, error) {
	// read before loading so stats invalidated while they are computed aren't cached
	generation, generationErr := s.cache.Generation(ctx, teamID)
	if generationErr != nil {
		s.logger.WarnContext(ctx, "Failed to get stats generation", "teamId", teamID, "error", generationErr)
	}

	cached, ok, err := s.cache.Get(ctx, teamID, recentEvents)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to get stats from cache", "teamId", teamID, "error", err)
	}
	if ok {
		return cached, nil
	}

	var clusters []model.Cluster
	var snapshots []model.ClusterSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clusters, err = s.clusterService.FindAll(gctx, teamID)
		return err
	})
	g.Go(func() error {
		var err error
		snapshots, err = s.snapshotService.FindAll(gctx, teamID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metas := make([]ClusterMeta, len(clusters))
	for i, c := range clusters {
		metas[i] = ClusterMeta{ID: c.ID, Name: c.Name, ConnectionStatus: c.ConnectionStatus}
	}

	documents := make(map[uuid.UUID]json.RawMessage, len(snapshots))
	for _, snapshot := range snapshots {
		documents[snapshot.ClusterID] = json.RawMessage(snapshot.Snapshot)
	}

	stats := Aggregate(documents, metas, Options{RecentEvents: recentEvents})
	if len(stats.Degraded) > 0 {
		s.logger.WarnContext(ctx, "Failed to read snapshots", "teamId", teamID, "clusterIds", stats.Degraded)
	}

	if generationErr == nil {
		err = s.cache.Set(ctx, teamID, generation, recentEvents, &stats)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to cache stats", "teamId", teamID, "error", err)
		}
	}

	return &stats, nil
}
