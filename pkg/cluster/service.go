package cluster

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/pkg/model"
	"github.com/kubervise/kubervise-manager/pkg/notify"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(logger *slog.Logger, clusterRepository clusterRepository, staleAfter time.Duration, statsCache statsCache, notifier notifier) *Service {
	return &Service{
		logger:            logger,
		clusterRepository: clusterRepository,
		staleAfter:        staleAfter,
		statsCache:        statsCache,
		notifier:          notifier,
		now:               time.Now,
	}
}

type clusterRepository interface {
	find(ctx context.Context, id uuid.UUID) (*model.Cluster, error)
	findByTeam(ctx context.Context, teamID uuid.UUID) ([]model.Cluster, error)
	findByOnboardingID(ctx context.Context, onboardingID uuid.UUID) (*model.Cluster, error)
	existsByInstallTokenDigest(ctx context.Context, digest string) (bool, error)
	update(ctx context.Context, cluster *model.Cluster) error
	delete(ctx context.Context, id uuid.UUID) error
	markSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error
	markStale(ctx context.Context, teamID uuid.UUID, seenBefore time.Time) (int64, error)
}

type statsCache interface {
	Invalidate(ctx context.Context, teamID uuid.UUID) error
}

type notifier interface {
	Publish(ctx context.Context, n notify.Notification) error
}

type Service struct {
	logger            *slog.Logger
	clusterRepository clusterRepository
	statsCache        statsCache
	notifier          notifier
	// staleAfter is how long a connected cluster may go without a snapshot before it's considered
	// disconnected. Zero disables the check.
	staleAfter time.Duration
	now        func() time.Time
}

// InstallTokenDigest is what's persisted of an install token once it has been redeemed. It allows
// recognizing a replayed token without storing the token itself.
func InstallTokenDigest(installToken string) string {
	sum := sha256.Sum256([]byte(installToken))
	return hex.EncodeToString(sum[:])
}

// Authenticate returns the cluster if presentedToken is its agent token.
func (s Service) Authenticate(ctx context.Context, id uuid.UUID, presentedToken string) (*model.Cluster, error) {
	cluster, err := s.clusterRepository.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(cluster.AgentToken), []byte(presentedToken)) != 1 {
		s.logger.WarnContext(ctx, "Agent presented an invalid token", "clusterId", id)
		return nil, errdef.NewForbidden("invalid agent token for cluster %q", id)
	}

	return cluster, nil
}

// Find returns the cluster if it belongs to given team.
func (s Service) Find(ctx context.Context, teamID, id uuid.UUID) (*model.Cluster, error) {
	cluster, err := s.clusterRepository.find(ctx, id)
	if err != nil {
		return nil, err
	}

	// don't disclose the existence of clusters of other teams
	if cluster.TeamID != teamID {
		return nil, errdef.NewNotFound("cluster with id %q doesn't exist", id)
	}

	return cluster, nil
}

// FindAll returns the clusters of a team. Connected clusters which haven't been seen for a while are
// marked as disconnected first.
func (s Service) FindAll(ctx context.Context, teamID uuid.UUID) ([]model.Cluster, error) {
	if s.staleAfter > 0 {
		stale, err := s.clusterRepository.markStale(ctx, teamID, s.now().Add(-s.staleAfter))
		if err != nil {
			return nil, err
		}
		if stale > 0 {
			s.logger.InfoContext(ctx, "Marked clusters as disconnected", "teamId", teamID, "count", stale)
		}
	}

	return s.clusterRepository.findByTeam(ctx, teamID)
}

func (s Service) FindByOnboardingID(ctx context.Context, onboardingID uuid.UUID) (*model.Cluster, error) {
	return s.clusterRepository.findByOnboardingID(ctx, onboardingID)
}

// IsInstallTokenConsumed reports whether a cluster has been created by redeeming installToken.
func (s Service) IsInstallTokenConsumed(ctx context.Context, installToken string) (bool, error) {
	return s.clusterRepository.existsByInstallTokenDigest(ctx, InstallTokenDigest(installToken))
}

func (s Service) Update(ctx context.Context, teamID, id uuid.UUID, name, description string) (*model.Cluster, error) {
	cluster, err := s.Find(ctx, teamID, id)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		cluster.Name = name
	}
	cluster.Description = description

	err = s.clusterRepository.update(ctx, cluster)
	if err != nil {
		return nil, err
	}

	return cluster, nil
}

// Delete deletes the cluster and its snapshot. The agent will be rejected on its next submission.
func (s Service) Delete(ctx context.Context, teamID, id uuid.UUID) error {
	cluster, err := s.Find(ctx, teamID, id)
	if err != nil {
		return err
	}

	err = s.clusterRepository.delete(ctx, id)
	if err != nil {
		return err
	}

	// failures are only logged, the cluster is already deleted
	if s.statsCache != nil {
		if err := s.statsCache.Invalidate(ctx, teamID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to invalidate stats", "teamId", teamID, "error", err)
		}
	}
	if s.notifier != nil {
		err := s.notifier.Publish(ctx, notify.Notification{
			Kind:        notify.ClusterDeleted,
			TeamID:      teamID,
			ClusterID:   id,
			ClusterName: cluster.Name,
			OccurredAt:  s.now(),
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish notification", "clusterId", id, "error", err)
		}
	}

	return nil
}

// MarkSeen records that the agent of the cluster has been in contact at seenAt.
func (s Service) MarkSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error {
	return s.clusterRepository.markSeen(ctx, id, seenAt)
}
