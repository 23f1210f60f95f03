package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/pkg/model"
	"github.com/kubervise/kubervise-manager/pkg/notify"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(
	logger *slog.Logger,
	snapshotRepository snapshotRepository,
	clusterService clusterService,
	statsCache statsCache,
	notifier notifier,
) *Service {
	return &Service{
		logger:             logger,
		snapshotRepository: snapshotRepository,
		clusterService:     clusterService,
		statsCache:         statsCache,
		notifier:           notifier,
		now:                time.Now,
	}
}

type snapshotRepository interface {
	upsert(ctx context.Context, snapshot *model.ClusterSnapshot) error
	find(ctx context.Context, clusterID uuid.UUID) (*model.ClusterSnapshot, error)
	findByTeam(ctx context.Context, teamID uuid.UUID) ([]model.ClusterSnapshot, error)
}

type clusterService interface {
	Authenticate(ctx context.Context, id uuid.UUID, presentedToken string) (*model.Cluster, error)
	Find(ctx context.Context, teamID, id uuid.UUID) (*model.Cluster, error)
	MarkSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error
}

type statsCache interface {
	Invalidate(ctx context.Context, teamID uuid.UUID) error
}

type notifier interface {
	Publish(ctx context.Context, n notify.Notification) error
}

type Service struct {
	logger             *slog.Logger
	snapshotRepository snapshotRepository
	clusterService     clusterService
	statsCache         statsCache
	notifier           notifier
	now                func() time.Time
}

// Ack acknowledges an ingested snapshot.
// swagger:model
type Ack struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	CollectedAt time.Time `json:"collected_at"`
}

// Ingest replaces the snapshot of the cluster with payload if presentedToken is the agent token of
// the cluster. The snapshot is timestamped with server time.
func (s Service) Ingest(ctx context.Context, clusterID uuid.UUID, presentedToken string, payload []byte) (*Ack, error) {
	cluster, err := s.clusterService.Authenticate(ctx, clusterID, presentedToken)
	if err != nil {
		return nil, err
	}

	agentCollectedAt, err := validate(payload)
	if err != nil {
		return nil, err
	}

	// PostgreSQL stores microseconds, the acknowledged time must not be later than the stored one
	collectedAt := s.now().UTC().Truncate(time.Microsecond)
	snapshot := &model.ClusterSnapshot{
		ClusterID:        cluster.ID,
		Snapshot:         model.SnapshotDocument(payload),
		CollectedAt:      collectedAt,
		AgentCollectedAt: agentCollectedAt,
	}
	err = s.snapshotRepository.upsert(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	err = s.clusterService.MarkSeen(ctx, cluster.ID, collectedAt)
	if err != nil {
		return nil, err
	}

	err = s.statsCache.Invalidate(ctx, cluster.TeamID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate stats cache", "teamId", cluster.TeamID, "error", err)
	}

	err = s.notifier.Publish(ctx, notify.Notification{
		Kind:        notify.ClusterSnapshot,
		TeamID:      cluster.TeamID,
		ClusterID:   cluster.ID,
		ClusterName: cluster.Name,
		OccurredAt:  collectedAt,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish notification", "clusterId", cluster.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "Ingested snapshot", "clusterId", cluster.ID, "bytes", len(payload))

	return &Ack{
		Success:     true,
		Message:     "Snapshot received",
		CollectedAt: collectedAt,
	}, nil
}

// validate requires nodes and pods to be arrays. Everything else is stored as is. The agents
// collection time is returned if it's present and valid.
func validate(payload []byte) (*time.Time, error) {
	var document struct {
		Nodes       json.RawMessage `json:"nodes"`
		Pods        json.RawMessage `json:"pods"`
		CollectedAt string          `json:"collected_at"`
	}
	if err := json.Unmarshal(payload, &document); err != nil {
		return nil, errdef.NewBadRequest("snapshot must be a JSON object: %v", err)
	}

	if !isArray(document.Nodes) {
		return nil, errdef.NewBadRequest("snapshot must contain a nodes array")
	}
	if !isArray(document.Pods) {
		return nil, errdef.NewBadRequest("snapshot must contain a pods array")
	}

	return parseAgentTime(document.CollectedAt), nil
}

// agentTimeLayout is how agents format times without a zone. Those times are UTC.
const agentTimeLayout = "2006-01-02T15:04:05.999999"

func parseAgentTime(value string) *time.Time {
	for _, layout := range []string{time.RFC3339Nano, agentTimeLayout} {
		t, err := time.Parse(layout, value)
		if err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func isArray(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("["))
}

// Find returns the latest snapshot of the cluster if presentedToken is its agent token.
func (s Service) Find(ctx context.Context, clusterID uuid.UUID, presentedToken string) (*model.ClusterSnapshot, error) {
	_, err := s.clusterService.Authenticate(ctx, clusterID, presentedToken)
	if err != nil {
		return nil, err
	}

	return s.snapshotRepository.find(ctx, clusterID)
}

// FindByTeam returns the latest snapshot of a cluster of given team.
func (s Service) FindByTeam(ctx context.Context, teamID, clusterID uuid.UUID) (*model.ClusterSnapshot, error) {
	_, err := s.clusterService.Find(ctx, teamID, clusterID)
	if err != nil {
		return nil, err
	}

	return s.snapshotRepository.find(ctx, clusterID)
}

// FindAll returns the latest snapshots of all clusters of a team. Clusters which haven't submitted a
// snapshot yet are missing.
func (s Service) FindAll(ctx context.Context, teamID uuid.UUID) ([]model.ClusterSnapshot, error) {
	return s.snapshotRepository.findByTeam(ctx, teamID)
}
