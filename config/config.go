package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// InsecureTokenSecret is used when no token-secret is configured.
// main logs a warning whenever it is in effect.
const InsecureTokenSecret = "default-very-insecure-secret-key" // CHANGE THIS IN PRODUCTION

const envPrefix = "BOOKSTORE"

type Config struct {
	DBDriver          string        `mapstructure:"db-driver"`
	DBHost            string        `mapstructure:"db-host"`
	DBPort            int           `mapstructure:"db-port"`
	DBUser            string        `mapstructure:"db-user"`
	DBPassword        string        `mapstructure:"db-password"`
	DBName            string        `mapstructure:"db-name"`
	DBSSLMode         string        `mapstructure:"db-sslmode"`
	DBMaxOpenConns    int           `mapstructure:"db-max-open-conns"`
	DBMaxIdleConns    int           `mapstructure:"db-max-idle-conns"`
	DBConnMaxLifetime time.Duration `mapstructure:"db-conn-max-lifetime"`

	TokenSecret string        `mapstructure:"token-secret"`
	TokenTTL    time.Duration `mapstructure:"token-ttl"`
	BcryptCost  int           `mapstructure:"bcrypt-cost"`

	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log-level"`

	ExposeErrorDetails      bool `mapstructure:"expose-error-details"`
	RoleUpdateRequiresAdmin bool `mapstructure:"role-update-requires-admin"`

	// Optional bootstrap administrator, created at startup when absent.
	AdminUsername string `mapstructure:"admin-username"`
	AdminEmail    string `mapstructure:"admin-email"`
	AdminPassword string `mapstructure:"admin-password"`
}

var defaults = map[string]any{
	"db-driver":            "postgres",
	"db-host":              "localhost",
	"db-port":              5432,
	"db-user":              "postgres",
	"db-password":          "",
	"db-name":              "book",
	"db-sslmode":           "disable",
	"db-max-open-conns":    20,
	"db-max-idle-conns":    5,
	"db-conn-max-lifetime": 30 * time.Minute,

	"token-secret": InsecureTokenSecret,
	"token-ttl":    24 * time.Hour,
	"bcrypt-cost":  bcrypt.DefaultCost,

	"port":      3001,
	"log-level": "info",

	"expose-error-details":       true,
	"role-update-requires-admin": false,

	"admin-username": "admin",
	"admin-email":    "",
	"admin-password": "",
}

// NewFlagSet declares one command-line flag per configuration key.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "path to a config file (yaml)")
	fs.String("db-driver", "postgres", "database driver: postgres, mysql or sqlite")
	fs.String("db-host", "localhost", "database host")
	fs.Int("db-port", 5432, "database port")
	fs.String("db-user", "postgres", "database user")
	fs.String("db-password", "", "database password")
	fs.String("db-name", "book", "database name (file path for sqlite)")
	fs.String("db-sslmode", "disable", "postgres sslmode")
	fs.Int("db-max-open-conns", 20, "maximum open database connections")
	fs.Int("db-max-idle-conns", 5, "maximum idle database connections")
	fs.Duration("db-conn-max-lifetime", 30*time.Minute, "maximum lifetime of a database connection")
	fs.String("token-secret", "", "token signing secret")
	fs.Duration("token-ttl", 24*time.Hour, "lifetime of issued tokens")
	fs.Int("bcrypt-cost", bcrypt.DefaultCost, "bcrypt cost factor")
	fs.Int("port", 3001, "HTTP listening port")
	fs.String("log-level", "info", "log level (debug, info)")
	fs.Bool("expose-error-details", true, "include underlying error text in 500 responses")
	fs.Bool("role-update-requires-admin", false, "require an admin token to change user roles")
	fs.String("admin-username", "admin", "username of the bootstrap admin")
	fs.String("admin-email", "", "email of the bootstrap admin; empty disables bootstrapping")
	fs.String("admin-password", "", "password of the bootstrap admin")
	return fs
}

// Load builds the configuration from defaults, an optional yaml file,
// BOOKSTORE_* environment variables and the given command-line arguments,
// in increasing order of precedence.
func Load(args []string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	fs := NewFlagSet("bookstore")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	// Only flags set explicitly override lower layers.
	var bindErr error
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config" || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(f.Name, f)
	})
	if bindErr != nil {
		return nil, fmt.Errorf("bind flags: %w", bindErr)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("config: unsupported db-driver %q", c.DBDriver)
	}
	if c.DBName == "" {
		return errors.New("config: db-name is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.TokenSecret == "" {
		return errors.New("config: token-secret must not be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: token-ttl must be positive, got %s", c.TokenTTL)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: bcrypt-cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.AdminEmail != "" && c.AdminPassword == "" {
		return errors.New("config: admin-password is required when admin-email is set")
	}
	return nil
}

// UsesInsecureSecret reports whether the development signing key is in effect.
func (c *Config) UsesInsecureSecret() bool {
	return c.TokenSecret == InsecureTokenSecret
}

// String masks secrets.
func (c *Config) String() string {
	return fmt.Sprintf("Config{driver: %s, db: %s@%s:%d/%s, port: %d, token-ttl: %s, secrets: ***}",
		c.DBDriver, c.DBUser, c.DBHost, c.DBPort, c.DBName, c.Port, c.TokenTTL)
}
