package download

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kubervise/kubervise-manager/internal/errdef"
	"github.com/kubervise/kubervise-manager/pkg/config"
)

// Filenames are the installer binaries which can be downloaded.
var Filenames = []string{
	"kubervise-linux-amd64",
	"kubervise-linux-arm64",
	"kubervise-darwin-amd64",
	"kubervise-darwin-arm64",
	"kubervise-windows-amd64.exe",
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(config config.Artifacts, presigner presigner) *Service {
	return &Service{
		config:    config,
		presigner: presigner,
	}
}

type presigner interface {
	PresignGet(ctx context.Context, bucket string, key string, ttl time.Duration) (string, error)
}

type Service struct {
	config    config.Artifacts
	presigner presigner
}

// Location returns the URL the installer binary of given name can be fetched from. Binaries are
// served from the artifact bucket if one is configured and from the public release otherwise.
func (s Service) Location(ctx context.Context, filename string) (string, error) {
	if !slices.Contains(Filenames, filename) {
		return "", errdef.NewNotFound("unknown download %q", filename)
	}

	if s.config.Bucket == "" || s.presigner == nil {
		return fmt.Sprintf("%s/v%s/%s", s.config.BaseURL, s.config.Version, filename), nil
	}

	key := Key(s.config.Version, filename)
	url, err := s.presigner.PresignGet(ctx, s.config.Bucket, key, s.config.PresignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to presign download %q: %v", filename, err)
	}
	return url, nil
}

// Key is the object key of given release binary in the artifact bucket.
func Key(version, filename string) string {
	return fmt.Sprintf("releases/v%s/%s", version, filename)
}
