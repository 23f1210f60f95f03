package storage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kubervise/kubervise-manager/pkg/config"
	"github.com/kubervise/kubervise-manager/pkg/model"
	slogGorm "github.com/orandin/slog-gorm"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDatabase(logger *slog.Logger, c config.Postgresql) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable", c.Host, c.Username, c.Password, c.DatabaseName, c.Port)

	gormLogger := slogGorm.New(
		slogGorm.WithHandler(logger.Handler()),
		slogGorm.WithSlowThreshold(200*time.Millisecond),
	)

	databaseConfig := gorm.Config{
		Logger: gormLogger,
		// report unique constraint violations as gorm.ErrDuplicatedKey
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dsn), &databaseConfig)
	if err != nil {
		return nil, err
	}

	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		return nil, fmt.Errorf("failed to register tracing plugin: %v", err)
	}

	err = db.AutoMigrate(
		&model.Team{},
		&model.Membership{},
		&model.PendingOnboarding{},
		&model.Cluster{},
		&model.ClusterSnapshot{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
