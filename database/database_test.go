package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookstore-restful/auth"
	"bookstore-restful/config"
	"bookstore-restful/database"
	"bookstore-restful/models"
	"bookstore-restful/testutil"
)

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t) // schema already created once

	require.NoError(t, database.EnsureSchema(context.Background(), db, zap.NewNop()))

	migrator := db.Migrator()
	assert.True(t, migrator.HasTable("bookr"))
	assert.True(t, migrator.HasTable("booksinfo"))
	assert.True(t, migrator.HasColumn(&models.Book{}, "created_at"))
	assert.True(t, migrator.HasColumn(&models.Book{}, "imagepath"))
}

func TestEnsureSchemaKeepsRows(t *testing.T) {
	db := testutil.OpenDB(t)
	require.NoError(t, db.Create(&models.User{Username: "bob", Email: "bob@example.com"}).Error)

	require.NoError(t, database.EnsureSchema(context.Background(), db, zap.NewNop()))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUserRoleDefaultsToUser(t *testing.T) {
	db := testutil.OpenDB(t)
	user := models.User{Username: "carol", Email: "carol@example.com"}
	require.NoError(t, db.Create(&user).Error)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, models.RoleUser, stored.Role)
}

func TestEnsureDatabase(t *testing.T) {
	t.Run("sqlite is a no-op", func(t *testing.T) {
		cfg := testutil.Config(t)
		assert.NoError(t, database.EnsureDatabase(context.Background(), cfg, zap.NewNop()))
	})

	t.Run("rejects unsafe names before connecting", func(t *testing.T) {
		cfg := &config.Config{DBDriver: "postgres", DBName: `book"; DROP TABLE bookr; --`}
		err := database.EnsureDatabase(context.Background(), cfg, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid database name")
	})
}

func TestDialectorUnknownDriver(t *testing.T) {
	_, err := database.Dialector(&config.Config{DBDriver: "oracle"}, "book")
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "db.internal",
		DBPort:     5433,
		DBUser:     "book keeper",
		DBPassword: `it's a \secret`,
		DBSSLMode:  "disable",
	}

	dsn := database.PostgresDSN(cfg, "book")
	assert.Contains(t, dsn, "host='db.internal' port=5433")
	assert.Contains(t, dsn, "user='book keeper'")
	assert.Contains(t, dsn, `password='it\'s a \\secret'`)
	assert.Contains(t, dsn, "dbname='book'")
	assert.Contains(t, dsn, "sslmode='disable'")

	assert.Contains(t, database.PostgresDSN(cfg, ""), "dbname='postgres'")
}

func TestMySQLDSN(t *testing.T) {
	cfg := &config.Config{DBHost: "localhost", DBPort: 3306, DBUser: "root", DBPassword: "pw"}

	dsn := database.MySQLDSN(cfg, "book")
	assert.Contains(t, dsn, "root:pw@tcp(localhost:3306)/book?")
	assert.Contains(t, dsn, "clientFoundRows=true")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestSeedAdmin(t *testing.T) {
	cfg := testutil.Config(t)
	db := testutil.OpenDBWithConfig(t, cfg)
	ctx := context.Background()

	t.Run("disabled without email", func(t *testing.T) {
		require.NoError(t, database.SeedAdmin(ctx, db, cfg, zap.NewNop()))
		var count int64
		require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	cfg.AdminUsername = "admin"
	cfg.AdminEmail = "admin@example.com"
	cfg.AdminPassword = "changeme"

	t.Run("creates admin once", func(t *testing.T) {
		require.NoError(t, database.SeedAdmin(ctx, db, cfg, zap.NewNop()))
		require.NoError(t, database.SeedAdmin(ctx, db, cfg, zap.NewNop()))

		var admins []models.User
		require.NoError(t, db.Where("email = ?", cfg.AdminEmail).Find(&admins).Error)
		require.Len(t, admins, 1)
		assert.Equal(t, models.RoleAdmin, admins[0].Role)
		assert.True(t, auth.CheckPassword("changeme", admins[0].Password))
	})
}
