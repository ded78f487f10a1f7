//go:build integration

package main_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/peershare/service-rental/internal/repository"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupPostgres starts a PostgreSQL testcontainer, connects GORM to it and
// applies the schema, including the approved-overlap exclusion constraint
// that AutoMigrate cannot express.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_rental",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_rental sslmode=disable", host, port.Port())

	var db *gorm.DB
	require.Eventually(t, func() bool {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.UserModel{},
		&repository.ItemModel{},
		&repository.BookingModel{},
		&repository.CommentModel{},
	))
	applyBookingConstraints(t, db)
	return db
}

// applyBookingConstraints adds the window check and the gist exclusion
// constraint rejecting two approved bookings with intersecting windows on
// the same item.
func applyBookingConstraints(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error)
	require.NoError(t, db.Exec(`
		ALTER TABLE bookings
		ADD CONSTRAINT chk_bookings_window CHECK (end_ts > start_ts)
	`).Error)
	require.NoError(t, db.Exec(`
		ALTER TABLE bookings
		ADD CONSTRAINT excl_bookings_approved_overlap
		EXCLUDE USING gist (
			item_id WITH =,
			tsrange(start_ts, end_ts, '[]') WITH &&
		) WHERE (status = 'APPROVED')
	`).Error)
}

func seedUser(t *testing.T, db *gorm.DB, name string) int64 {
	t.Helper()
	model := repository.UserModel{Name: name, Email: fmt.Sprintf("%s@example.com", name)}
	require.NoError(t, db.Create(&model).Error, "failed to seed user")
	return model.ID
}

func seedItem(t *testing.T, db *gorm.DB, ownerID int64, name string, available bool) int64 {
	t.Helper()
	model := repository.ItemModel{
		Name:        name,
		Description: name + " for rent",
		Available:   available,
		OwnerID:     ownerID,
	}
	require.NoError(t, db.Omit("Owner").Create(&model).Error, "failed to seed item")
	return model.ID
}
