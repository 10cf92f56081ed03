package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bookstore-restful/config"
	"bookstore-restful/database"
)

var dbSeq atomic.Int64

// Config returns a configuration suitable for tests: in-memory sqlite,
// cheap bcrypt and a fixed signing secret.
func Config(t *testing.T) *config.Config {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return &config.Config{
		DBDriver:           "sqlite",
		DBName:             fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1)),
		DBMaxOpenConns:     1,
		DBMaxIdleConns:     1,
		DBConnMaxLifetime:  time.Hour,
		TokenSecret:        "test-secret",
		TokenTTL:           24 * time.Hour,
		BcryptCost:         4,
		Port:               3001,
		ExposeErrorDetails: true,
	}
}

// OpenDB opens an isolated in-memory database with the production schema.
// The database is closed when the test ends.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	return OpenDBWithConfig(t, Config(t))
}

func OpenDBWithConfig(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()
	db, err := database.Open(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := database.EnsureSchema(context.Background(), db, zap.NewNop()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}
