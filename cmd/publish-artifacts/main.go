// Command publish-artifacts uploads the installer binaries of a release to the artifact bucket the
// download endpoint serves them from. Binaries are expected in the given directory named as they
// are downloaded, for example kubervise-linux-amd64.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/kubervise/kubervise-manager/pkg/download"
	"github.com/kubervise/kubervise-manager/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "publish-artifacts: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	dir := flag.String("dir", "dist", "directory containing the installer binaries")
	version := flag.String("version", "", "release version without the leading v, for example 1.0.0")
	bucket := flag.String("bucket", os.Getenv("ARTIFACT_BUCKET"), "artifact bucket")
	endpoint := flag.String("endpoint", os.Getenv("S3_ENDPOINT"), "S3 endpoint, leave empty for AWS")
	force := flag.Bool("force", false, "overwrite binaries already published")
	dryRun := flag.Bool("dry-run", false, "show what would be uploaded without uploading")
	flag.Parse()

	if *version == "" {
		return errors.New("missing -version")
	}
	if *bucket == "" {
		return errors.New("missing -bucket")
	}

	ctx := context.Background()
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %v", err)
	}
	client := storage.NewS3ClientFromConfig(logger, awsCfg, *endpoint)

	published, err := publish(ctx, logger, client, *dir, *bucket, *version, *force, *dryRun)
	if err != nil {
		return err
	}

	logger.Info("publish completed", "version", *version, "published", published, "dryRun", *dryRun)
	return nil
}

type artifactStore interface {
	Exists(ctx context.Context, bucket string, key string) (bool, error)
	Upload(ctx context.Context, bucket string, key string, body io.Reader, contentType string) error
}

// publish uploads every recognized binary found in dir. Binaries missing from dir are skipped so
// a release can be published platform by platform.
func publish(ctx context.Context, logger *slog.Logger, store artifactStore, dir, bucket, version string, force, dryRun bool) (int, error) {
	published := 0
	for _, filename := range download.Filenames {
		path := filepath.Join(dir, filename)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			logger.Warn("binary not found, skipping", "path", path)
			continue
		} else if err != nil {
			return published, err
		}

		key := download.Key(version, filename)
		if !force {
			exists, err := store.Exists(ctx, bucket, key)
			if err != nil {
				return published, err
			}
			if exists {
				logger.Info("already published, skipping", "key", key)
				continue
			}
		}

		if dryRun {
			logger.Info("would upload", "path", path, "key", key)
			published++
			continue
		}

		if err := upload(ctx, store, path, bucket, key); err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}

func upload(ctx context.Context, store artifactStore, path, bucket, key string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return store.Upload(ctx, bucket, key, file, "application/octet-stream")
}
