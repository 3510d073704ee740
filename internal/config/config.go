// Package config reads the service configuration. Every flag takes its
// default from a BLOG_* environment variable, which may come from a .env
// file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/SergeyParamoshkin/blog/internal/storage"
)

const ServiceName = "blog"

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	Addr     string
	DiagAddr string
	Routes   bool
	Seed     bool
	Env      string

	DB storage.Config

	JWTSecret string
	TokenTTL  time.Duration

	RedisAddr     string
	RedisPassword string

	TraceStdout bool
}

// Load reads envFiles (".env" when none are given; missing files are
// skipped), then parses args into fs.
func Load(fs *flag.FlagSet, args []string, envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	ttl, err := getEnvDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}

	var c Config

	fs.StringVar(&c.Addr, "addr", getEnv("ADDR", ":3333"), "application port")
	fs.StringVar(&c.DiagAddr, "diag_addr", getEnv("DIAG_ADDR", ":9999"), "diag port")
	fs.BoolVar(&c.Routes, "routes", getEnvBool("ROUTES", false), "Generate router documentation")
	fs.BoolVar(&c.Seed, "seed", getEnvBool("SEED", false), "seed the admin account and sample articles")
	fs.StringVar(&c.Env, "env", getEnv("ENV", EnvProduction), "production or development")
	fs.StringVar(&c.DB.Driver, "db_driver", getEnv("DB_DRIVER", storage.DriverSQLite), "sqlite or mysql")
	fs.StringVar(&c.DB.DSN, "db_dsn", getEnv("DB_DSN", ""), "data source name")
	fs.StringVar(&c.JWTSecret, "jwt_secret", getEnv("JWT_SECRET", ""), "secret signing session tokens")
	fs.DurationVar(&c.TokenTTL, "token_ttl", ttl, "session token lifetime")
	fs.StringVar(&c.RedisAddr, "redis_addr", getEnv("REDIS_ADDR", ""), "redis for revoked tokens, in-process when empty")
	fs.StringVar(&c.RedisPassword, "redis_password", getEnv("REDIS_PASSWORD", ""), "redis password")
	fs.BoolVar(&c.TraceStdout, "trace_stdout", getEnvBool("TRACE_STDOUT", false), "print spans to stdout")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if c.DB.DSN == "" && c.DB.Driver == storage.DriverSQLite {
		c.DB.DSN = "file:blog.db?_foreign_keys=on"
	}

	return c, c.validate()
}

func (c Config) validate() error {
	switch {
	case c.Routes:
		return nil
	case c.JWTSecret == "":
		return errors.New("config: jwt_secret is required")
	case c.DB.Driver != storage.DriverSQLite && c.DB.Driver != storage.DriverMySQL:
		return fmt.Errorf("config: unknown db_driver %q", c.DB.Driver)
	case c.DB.DSN == "":
		return fmt.Errorf("config: db_dsn is required for %s", c.DB.Driver)
	case c.Env != EnvProduction && c.Env != EnvDevelopment:
		return fmt.Errorf("config: unknown env %q", c.Env)
	}

	return nil
}

func (c Config) Development() bool {
	return c.Env == EnvDevelopment
}

func envKey(key string) string {
	return strings.ToUpper(ServiceName) + "_" + key
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(envKey(key)); ok {
		return v
	}

	return def
}

func getEnvBool(key string, def bool) bool {
	b, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}

	return b
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(envKey(key))
	if !ok {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", envKey(key), err)
	}

	return d, nil
}
