package inttest

import (
	"log/slog"
	"os"
	"testing"

	"github.com/kubervise/kubervise-manager/pkg/config"
	"github.com/kubervise/kubervise-manager/pkg/storage"
	_ "github.com/lib/pq" // postgres driver
	"github.com/orlangure/gnomock"
	"github.com/orlangure/gnomock/preset/postgres"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupDB creates a PostgreSQL container. Gorm is connected to the DB and runs the migrations.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	container, err := gnomock.Start(
		postgres.Preset(
			postgres.WithUser("kubervise", "kubervise"),
			postgres.WithDatabase("test_kubervise"),
			postgres.WithVersion("16"),
		),
	)
	require.NoError(t, err, "failed to start DB")
	t.Cleanup(func() { require.NoError(t, gnomock.Stop(container), "failed to stop DB") })

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	db, err := storage.NewDatabase(logger, config.Postgresql{
		Host:         container.Host,
		Port:         container.DefaultPort(),
		Username:     "kubervise",
		Password:     "kubervise",
		DatabaseName: "test_kubervise",
	})
	require.NoError(t, err, "failed to setup DB")
	return db
}
