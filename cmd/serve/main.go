// Package classification Kubervise Manager Service.
//
// Connects Kubernetes clusters of a team through a one time install callback, ingests the
// snapshots their agents submit and aggregates them into dashboard statistics.
//
// Terms Of Service:
//
// there are no TOS at this moment, use at your own risk we take no responsibility
//
//    Version: 0.1.0
//    License: Apache-2.0
//    Contact: <dev@kubervise.io> https://github.com/kubervise/kubervise-manager
//
//    Consumes:
//      - application/json
//
//    Produces:
//      - application/json
//
//    SecurityDefinitions:
//      oauth2:
//        type: oauth2
//        tokenUrl: /not-valid--endpoint-is-served-from-the-identity-provider
//        refreshUrl: /not-valid--endpoint-is-served-from-the-identity-provider
//        flow: password
//      agentToken:
//        type: apiKey
//        in: header
//        name: Authorization
// swagger:meta
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/kubervise/kubervise-manager/internal/handler"
	"github.com/kubervise/kubervise-manager/internal/log"
	"github.com/kubervise/kubervise-manager/internal/middleware"
	"github.com/kubervise/kubervise-manager/internal/server"
	"github.com/kubervise/kubervise-manager/internal/tracing"
	"github.com/kubervise/kubervise-manager/pkg/cluster"
	"github.com/kubervise/kubervise-manager/pkg/config"
	"github.com/kubervise/kubervise-manager/pkg/download"
	"github.com/kubervise/kubervise-manager/pkg/event"
	"github.com/kubervise/kubervise-manager/pkg/notify"
	"github.com/kubervise/kubervise-manager/pkg/onboarding"
	"github.com/kubervise/kubervise-manager/pkg/snapshot"
	"github.com/kubervise/kubervise-manager/pkg/stats"
	"github.com/kubervise/kubervise-manager/pkg/storage"
	"github.com/kubervise/kubervise-manager/pkg/team"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("invalid configuration: %v", err)
	}

	logger := slog.New(log.New(log.NewPrettyJSONHandler(os.Stdout, &log.PrettyJSONHandlerOptions{
		HandlerOptions: slog.HandlerOptions{Level: cfg.Logging.SlogLevel()},
		PrettyPrint:    cfg.Logging.PrettyPrint,
	})))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Start(cfg.JaegerEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			logger.Error("Failed to flush traces", "error", err)
		}
	}()

	db, err := storage.NewDatabase(logger, cfg.Postgresql)
	if err != nil {
		return err
	}

	redisClient, err := storage.NewRedis(cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	publisher := notify.NewPublisher(logger, nil, cfg.RabbitMQ.Exchange)
	if cfg.RabbitMQ.URL != "" {
		conn, channel, err := notify.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		defer conn.Close()
		publisher = notify.NewPublisher(logger, channel, cfg.RabbitMQ.Exchange)
	}

	broker := event.NewBroker()
	notifier := notify.Notifiers{publisher, broker}

	downloadService, err := newDownloadService(ctx, logger, cfg.Artifacts)
	if err != nil {
		return err
	}

	statsCache := stats.NewCache(redisClient, cfg.StatsCacheTTL)

	teamRepository := team.NewRepository(db)
	teamService := team.NewService(teamRepository)

	clusterRepository := cluster.NewRepository(db)
	clusterService := cluster.NewService(logger, clusterRepository, cfg.ClusterStaleAfter, statsCache, notifier)

	onboardingRepository := onboarding.NewRepository(db)
	onboardingService := onboarding.NewService(logger, onboarding.Config{
		TTL:             cfg.Onboarding.TTL,
		BackendURL:      cfg.Onboarding.APIURL,
		DownloadBaseURL: cfg.Onboarding.DownloadBaseURL,
		AgentImage:      cfg.Onboarding.AgentImage,
	}, onboardingRepository, clusterService, notifier)

	snapshotRepository := snapshot.NewRepository(db)
	snapshotService := snapshot.NewService(logger, snapshotRepository, clusterService, statsCache, notifier)

	statsService := stats.NewService(logger, clusterService, snapshotService, statsCache)

	publicKey, err := cfg.Authentication.GetPublicKey()
	if err != nil {
		return err
	}
	authentication := middleware.NewAuthentication(logger, publicKey)
	authorization := middleware.NewAuthorization(logger, teamService)

	if err := handler.RegisterValidation(); err != nil {
		return err
	}

	r, router := server.GetEngine(logger, cfg.BasePath, cfg.AllowedOrigins)
	team.Routes(router, authentication, authorization, team.NewHandler(teamService))
	cluster.Routes(router, authentication, authorization, cluster.NewHandler(clusterService))
	onboarding.Routes(router, authentication, authorization, onboarding.NewHandler(onboardingService))
	snapshot.Routes(router, authentication, authorization, snapshot.NewHandler(snapshotService))
	stats.Routes(router, authentication, authorization, stats.NewHandler(statsService))
	event.Routes(router, authentication, authorization, event.NewHandler(logger, broker, 30*time.Second))
	download.Routes(router, download.NewHandler(downloadService))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// event streams only end once their client disconnects, Shutdown would wait for them
	srv.RegisterOnShutdown(broker.Close)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Listening", "address", srv.Addr, "basePath", cfg.BasePath)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newDownloadService serves installers from the public release unless an artifact bucket is
// configured.
func newDownloadService(ctx context.Context, logger *slog.Logger, artifacts config.Artifacts) (*download.Service, error) {
	if artifacts.Bucket == "" {
		return download.NewService(artifacts, nil), nil
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %v", err)
	}

	s3Client := storage.NewS3ClientFromConfig(logger, awsCfg, artifacts.S3Endpoint)
	return download.NewService(artifacts, s3Client), nil
}
