// Package integration spins up real PostgreSQL containers for end-to-end
// tests of the settlement engine.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/retailcore/backend/internal/infrastructure/migration"
)

// One container serves the whole package. Tests isolate themselves by
// truncating tables via CleanTables.
var (
	containerOnce sync.Once
	container     testcontainers.Container
	containerDSN  string
	containerErr  error
)

// TestDB is a connection to the package's PostgreSQL test container with the
// schema migrated.
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	t     *testing.T
}

// NewTestDB connects to the shared test container, starting it and applying
// migrations on first use, and truncates all tables so the test begins from
// an empty schema. The connection is closed via t.Cleanup; the container
// itself is terminated by TerminateTestContainer from TestMain.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	containerOnce.Do(startContainer)
	require.NoError(t, containerErr, "start PostgreSQL container")

	db, sqlDB := connect(t, containerDSN)
	tdb := &TestDB{DB: db, SqlDB: sqlDB, t: t}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	tdb.CleanTables()
	return tdb
}

func startContainer() {
	ctx := context.Background()

	c, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("retail_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		containerErr = fmt.Errorf("run container: %w", err)
		return
	}

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		containerErr = fmt.Errorf("connection string: %w", err)
		return
	}

	container = c
	containerDSN = dsn
	containerErr = migrateSchema(dsn)
}

func migrateSchema(dsn string) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqlDB.Close()

	path := findMigrationsPath()
	if path == "" {
		return fmt.Errorf("migrations directory not found")
	}

	m, err := migration.New(sqlDB, path, zap.NewNop())
	if err != nil {
		return err
	}
	return m.Up()
}

func connect(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	logLevel := logger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	require.NoError(t, err, "connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "get underlying sql.DB")
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

// CleanTables truncates every public table except schema_migrations.
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "list tables")

	for _, table := range tables {
		require.NoError(tdb.t,
			tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error,
			"truncate %s", table)
	}
}

// findMigrationsPath walks up from this file to the repository root looking
// for the migrations directory.
func findMigrationsPath() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}

	dir := filepath.Dir(filename)
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "migrations")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	return ""
}

// TerminateTestContainer stops the shared container. Called from TestMain
// after the package's tests finish.
func TerminateTestContainer() {
	if container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = container.Terminate(ctx)
	container = nil
}
