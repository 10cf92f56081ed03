package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bookstore-restful/config"
	"bookstore-restful/models"
)

// Database names end up in CREATE DATABASE, which cannot take bind parameters.
var validDatabaseName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Open connects to the configured database and tunes the connection pool.
func Open(cfg *config.Config, zl *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg, cfg.DBName)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(zl),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database %q: %w", cfg.DBName, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database %q: %w", cfg.DBName, err)
	}
	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Dialector builds the gorm dialector for the configured driver, pointed at dbName.
// An empty dbName selects the server's maintenance database.
func Dialector(cfg *config.Config, dbName string) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "postgres":
		return postgres.Open(PostgresDSN(cfg, dbName)), nil
	case "mysql":
		return mysql.Open(MySQLDSN(cfg, dbName)), nil
	case "sqlite":
		return sqlite.Open(dbName), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

func PostgresDSN(cfg *config.Config, dbName string) string {
	if dbName == "" {
		dbName = "postgres"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		quoteDSNValue(cfg.DBHost), cfg.DBPort, quoteDSNValue(cfg.DBUser), quoteDSNValue(cfg.DBPassword),
		quoteDSNValue(dbName), quoteDSNValue(cfg.DBSSLMode))
}

func MySQLDSN(cfg *config.Config, dbName string) string {
	mc := mysqldriver.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, strconv.Itoa(cfg.DBPort))
	mc.DBName = dbName
	mc.ParseTime = true
	mc.Loc = time.UTC
	// UPDATE reports matched rather than changed rows, so re-assigning
	// the same role is not mistaken for a missing user.
	mc.ClientFoundRows = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// quoteDSNValue quotes v for a libpq keyword/value connection string.
func quoteDSNValue(v string) string {
	if v == "" {
		return "''"
	}
	out := make([]byte, 0, len(v)+2)
	out = append(out, '\'')
	for i := 0; i < len(v); i++ {
		if v[i] == '\'' || v[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, v[i])
	}
	return string(append(out, '\''))
}

// EnsureDatabase creates the target database when the server does not have it.
// sqlite creates its file on open, so nothing happens there.
func EnsureDatabase(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	if cfg.DBDriver == "sqlite" {
		return nil
	}
	if !validDatabaseName.MatchString(cfg.DBName) {
		return fmt.Errorf("invalid database name %q", cfg.DBName)
	}

	dialector, err := Dialector(cfg, "")
	if err != nil {
		return err
	}
	admin, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(zl)})
	if err != nil {
		return fmt.Errorf("connect to database server: %w", err)
	}
	defer func() { _ = Close(admin) }()

	var (
		checkQuery  string
		createQuery string
	)
	switch cfg.DBDriver {
	case "postgres":
		checkQuery = "SELECT COUNT(*) FROM pg_database WHERE datname = ?"
		createQuery = `CREATE DATABASE "` + cfg.DBName + `"`
	case "mysql":
		checkQuery = "SELECT COUNT(*) FROM information_schema.schemata WHERE schema_name = ?"
		createQuery = "CREATE DATABASE `" + cfg.DBName + "`"
	}

	var count int64
	if err := admin.WithContext(ctx).Raw(checkQuery, cfg.DBName).Scan(&count).Error; err != nil {
		return fmt.Errorf("check database %q: %w", cfg.DBName, err)
	}
	if count > 0 {
		zl.Info("Database already exists", zap.String("database", cfg.DBName))
		return nil
	}
	if err := admin.WithContext(ctx).Exec(createQuery).Error; err != nil {
		return fmt.Errorf("create database %q: %w", cfg.DBName, err)
	}
	zl.Info("Database created", zap.String("database", cfg.DBName))
	return nil
}

// EnsureSchema creates the users and books tables when missing. Existing
// tables are left untouched, which makes it safe on every startup.
func EnsureSchema(ctx context.Context, db *gorm.DB, zl *zap.Logger) error {
	if db == nil {
		return errors.New("cannot ensure schema with nil DB connection")
	}
	tables := []struct {
		label string
		model any
	}{
		{"Users", &models.User{}},
		{"Books", &models.Book{}},
	}

	migrator := db.WithContext(ctx).Migrator()
	for _, t := range tables {
		if migrator.HasTable(t.model) {
			zl.Info(t.label + " table already exists")
			continue
		}
		if err := migrator.CreateTable(t.model); err != nil {
			return fmt.Errorf("create %s table: %w", t.label, err)
		}
		zl.Info(t.label + " table created")
	}
	return nil
}

func newGormLogger(zl *zap.Logger) logger.Interface {
	return logger.New(
		zap.NewStdLog(zl.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true, // no bound values in SQL logs
			Colorful:                  false,
		},
	)
}
