// Package config loads playerdb settings: built-in defaults, then an
// optional YAML file, then environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/playerdb/internal/database"
	"github.com/koustreak/playerdb/internal/errs"
	"github.com/koustreak/playerdb/internal/filestore"
	"github.com/koustreak/playerdb/internal/logger"
	"github.com/koustreak/playerdb/internal/snapshot"
)

// Config is the complete process configuration.
type Config struct {
	Server   Server           `yaml:"server"`
	Database database.Config  `yaml:"database"`
	Log      logger.Config    `yaml:"log"`
	Storage  filestore.Config `yaml:"storage"`
	Snapshot snapshot.Config  `yaml:"snapshot"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`

	// RatePerMinute is the per-client request budget, 0 disables limiting.
	RatePerMinute int `yaml:"rate_per_minute"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    1 << 20,
			RatePerMinute:   600,
		},
		Database: *database.DefaultConfig(),
		Log:      *logger.DefaultConfig(),
		Storage:  *filestore.DefaultConfig("", "", ""),
		Snapshot: snapshot.DefaultConfig(),
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file", err)
		}
		if err := decodeYAML(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return errs.Wrap(errs.ErrKindInvalidInput, "invalid config file", err)
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errs.New(errs.ErrKindInvalidInput, "server addr is required")
	}
	if c.Server.RatePerMinute < 0 {
		return errs.New(errs.ErrKindInvalidInput, "rate_per_minute must not be negative")
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if c.Storage.Enabled() {
		if err := c.Storage.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// applyEnv overrides cfg with every variable that is set.
func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "PLAYERDB_ADDR")
	setString(&cfg.Log.Level, "PLAYERDB_LOG_LEVEL")
	setString(&cfg.Log.Format, "PLAYERDB_LOG_FORMAT")

	db := &cfg.Database
	if v, ok := os.LookupEnv("TIDB_DRIVER"); ok && v != "" {
		db.Driver = database.Driver(v)
	}
	setString(&db.Host, "TIDB_HOST")
	setString(&db.User, "TIDB_USER")
	setString(&db.Password, "TIDB_PASSWORD")
	setString(&db.Database, "TIDB_DB_NAME")

	storage := &cfg.Storage
	setString(&storage.Endpoint, "SNAPSHOT_ENDPOINT")
	setString(&storage.AccessKey, "SNAPSHOT_ACCESS_KEY")
	setString(&storage.SecretKey, "SNAPSHOT_SECRET_KEY")
	setString(&storage.Bucket, "SNAPSHOT_BUCKET")

	for _, f := range []struct {
		key string
		dst *int
	}{
		{"PLAYERDB_RATE_PER_MINUTE", &cfg.Server.RatePerMinute},
		{"TIDB_PORT", &db.Port},
		{"TIDB_MAX_CONNS", &db.MaxConns},
		{"TIDB_QUEUE_LIMIT", &db.QueueLimit},
	} {
		if err := setInt(f.dst, f.key); err != nil {
			return err
		}
	}

	for _, f := range []struct {
		key string
		dst *bool
	}{
		{"TIDB_TLS", &db.TLS.Enabled},
		{"TIDB_TLS_SKIP_VERIFY", &db.TLS.SkipVerify},
		{"SNAPSHOT_USE_SSL", &storage.UseSSL},
	} {
		if err := setBool(f.dst, f.key); err != nil {
			return err
		}
	}

	// Keep the idle cap consistent when only the pool size is overridden.
	if db.MaxIdleConns > db.MaxConns {
		db.MaxIdleConns = db.MaxConns
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("%s must be an integer", key), err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("%s must be a boolean", key), err)
	}
	*dst = b
	return nil
}
