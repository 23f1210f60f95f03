package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/pkg/cluster"
	"github.com/kubervise/kubervise-manager/pkg/manifest"
	"github.com/kubervise/kubervise-manager/pkg/model"
	"github.com/kubervise/kubervise-manager/pkg/notify"
	"github.com/kubervise/kubervise-manager/pkg/token"
)

const maxNameLength = 63

type Config struct {
	// TTL is how long an install token can be redeemed.
	TTL time.Duration
	// BackendURL is where installers and agents reach this service.
	BackendURL string
	// DownloadBaseURL is where installers are downloaded from.
	DownloadBaseURL string
	// AgentImage is the container image of the agent.
	AgentImage string
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(
	logger *slog.Logger,
	config Config,
	onboardingRepository onboardingRepository,
	clusterService clusterService,
	notifier notifier,
) *Service {
	return &Service{
		logger:               logger,
		config:               config,
		onboardingRepository: onboardingRepository,
		clusterService:       clusterService,
		notifier:             notifier,
		now:                  time.Now,
		generateToken:        token.Generate,
	}
}

type onboardingRepository interface {
	create(ctx context.Context, onboarding *model.PendingOnboarding) error
	find(ctx context.Context, id uuid.UUID) (*model.PendingOnboarding, error)
	findByToken(ctx context.Context, token string) (*model.PendingOnboarding, error)
	delete(ctx context.Context, id uuid.UUID) error
	redeem(ctx context.Context, onboardingID uuid.UUID, cluster *model.Cluster) error
}

type clusterService interface {
	FindByOnboardingID(ctx context.Context, onboardingID uuid.UUID) (*model.Cluster, error)
	IsInstallTokenConsumed(ctx context.Context, installToken string) (bool, error)
}

type notifier interface {
	Publish(ctx context.Context, n notify.Notification) error
}

type Service struct {
	logger               *slog.Logger
	config               Config
	onboardingRepository onboardingRepository
	clusterService       clusterService
	notifier             notifier
	now                  func() time.Time
	generateToken        func() (string, error)
}

// StartResult is what a user needs to install the agent. The install token is only ever returned
// here.
// swagger:model
type StartResult struct {
	Onboarding      *model.PendingOnboarding `json:"onboarding"`
	Token           string                   `json:"token"`
	ExpiresAt       time.Time                `json:"expiresAt"`
	InstallCommands manifest.InstallCommands `json:"installCommands"`
}

// Start issues an install token for a cluster which will be created once its agent calls back.
func (s Service) Start(ctx context.Context, user *model.User, teamID uuid.UUID, name, description string) (*StartResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errdef.NewBadRequest("cluster name must not be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, errdef.NewBadRequest("cluster name must not be longer than %d characters", maxNameLength)
	}

	installToken, err := s.generateToken()
	if err != nil {
		return nil, err
	}

	onboarding := &model.PendingOnboarding{
		TeamID:       teamID,
		Name:         name,
		Description:  strings.TrimSpace(description),
		InstallToken: installToken,
		CreatedBy:    user.ID,
		ExpiresAt:    s.now().Add(s.config.TTL),
	}
	err = s.onboardingRepository.create(ctx, onboarding)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Started onboarding", "onboardingId", onboarding.ID, "teamId", teamID, "expiresAt", onboarding.ExpiresAt)

	return &StartResult{
		Onboarding:      onboarding,
		Token:           installToken,
		ExpiresAt:       onboarding.ExpiresAt,
		InstallCommands: manifest.NewInstallCommands(s.config.BackendURL, s.config.DownloadBaseURL, installToken),
	}, nil
}

// RedeemResult is returned to the installer. Manifest holds the only copy of the agent token.
// swagger:model
type RedeemResult struct {
	ClusterID   uuid.UUID `json:"cluster_id"`
	ClusterName string    `json:"cluster_name"`
	Manifest    string    `json:"manifest"`
	Message     string    `json:"message"`
}

// Redeem consumes an install token, creates the cluster and returns the manifest installing its
// agent. A token can be redeemed once.
func (s Service) Redeem(ctx context.Context, installToken string) (*RedeemResult, error) {
	if len(installToken) != token.Length {
		return nil, errdef.NewBadRequest("install token must be %d characters", token.Length)
	}

	onboarding, err := s.onboardingRepository.findByToken(ctx, installToken)
	if err != nil {
		if !errdef.IsNotFound(err) {
			return nil, err
		}

		consumed, err := s.clusterService.IsInstallTokenConsumed(ctx, installToken)
		if err != nil {
			return nil, err
		}
		if consumed {
			return nil, errdef.NewAlreadyConsumed("install token has already been used")
		}
		return nil, errdef.NewNotFound("install token doesn't exist")
	}

	// truncated to what PostgreSQL stores
	now := s.now().UTC().Truncate(time.Microsecond)
	if onboarding.IsExpired(now) {
		err := s.onboardingRepository.delete(ctx, onboarding.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to delete expired onboarding", "onboardingId", onboarding.ID, "error", err)
		}
		return nil, errdef.NewExpired("install token expired at %s", onboarding.ExpiresAt.Format(time.RFC3339))
	}

	agentToken, err := s.generateToken()
	if err != nil {
		return nil, err
	}

	c := &model.Cluster{
		ID:                 uuid.New(),
		TeamID:             onboarding.TeamID,
		Name:               onboarding.Name,
		Description:        onboarding.Description,
		AgentToken:         agentToken,
		ConnectionStatus:   model.ConnectionStatusConnected,
		LastSeenAt:         &now,
		OnboardingID:       onboarding.ID,
		InstallTokenDigest: cluster.InstallTokenDigest(installToken),
		CreatedBy:          onboarding.CreatedBy,
	}
	err = s.onboardingRepository.redeem(ctx, onboarding.ID, c)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Build(manifest.Params{
		ClusterID:   c.ID,
		ClusterName: c.Name,
		BackendURL:  s.config.BackendURL,
		AgentToken:  agentToken,
		Image:       s.config.AgentImage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build manifest for cluster %q: %v", c.ID, err)
	}

	s.logger.InfoContext(ctx, "Redeemed install token", "onboardingId", onboarding.ID, "clusterId", c.ID, "teamId", c.TeamID)

	err = s.notifier.Publish(ctx, notify.Notification{
		Kind:        notify.ClusterCreated,
		TeamID:      c.TeamID,
		ClusterID:   c.ID,
		ClusterName: c.Name,
		OccurredAt:  now,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish notification", "clusterId", c.ID, "error", err)
	}

	return &RedeemResult{
		ClusterID:   c.ID,
		ClusterName: c.Name,
		Manifest:    m,
		Message:     fmt.Sprintf("Cluster %q registered. Apply the manifest to start the agent.", c.Name),
	}, nil
}

// Status of an onboarding. ClusterID is set once the onboarding is connected.
// swagger:model OnboardingStatus
type Status struct {
	OnboardingID uuid.UUID              `json:"onboardingId"`
	Status       model.OnboardingStatus `json:"status"`
	ClusterID    *uuid.UUID             `json:"clusterId,omitempty"`
	ExpiresAt    *time.Time             `json:"expiresAt,omitempty"`
}

// PollStatus returns the status of an onboarding of given team. Expired onboardings are deleted. An
// errdef.NotFound error is returned for cancelled onboardings.
func (s Service) PollStatus(ctx context.Context, teamID, id uuid.UUID) (*Status, error) {
	onboarding, err := s.onboardingRepository.find(ctx, id)
	if err != nil && !errdef.IsNotFound(err) {
		return nil, err
	}

	if onboarding != nil {
		if onboarding.TeamID != teamID {
			return nil, errdef.NewNotFound("onboarding with id %q doesn't exist", id)
		}

		if onboarding.IsExpired(s.now()) {
			err := s.onboardingRepository.delete(ctx, id)
			if err != nil {
				return nil, err
			}
			return &Status{OnboardingID: id, Status: model.OnboardingStatusExpired, ExpiresAt: &onboarding.ExpiresAt}, nil
		}

		return &Status{OnboardingID: id, Status: model.OnboardingStatusPending, ExpiresAt: &onboarding.ExpiresAt}, nil
	}

	c, err := s.clusterService.FindByOnboardingID(ctx, id)
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil, errdef.NewNotFound("onboarding with id %q doesn't exist", id)
		}
		return nil, err
	}

	if c.TeamID != teamID {
		return nil, errdef.NewNotFound("onboarding with id %q doesn't exist", id)
	}

	return &Status{OnboardingID: id, Status: model.OnboardingStatusConnected, ClusterID: &c.ID}, nil
}

// Cancel deletes a pending onboarding of given team. Cancelling an onboarding which doesn't exist
// isn't an error.
func (s Service) Cancel(ctx context.Context, teamID, id uuid.UUID) error {
	onboarding, err := s.onboardingRepository.find(ctx, id)
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil
		}
		return err
	}

	if onboarding.TeamID != teamID {
		return nil
	}

	err = s.onboardingRepository.delete(ctx, id)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Cancelled onboarding", "onboardingId", id, "teamId", teamID)
	return nil
}
