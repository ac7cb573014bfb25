package database

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/koustreak/playerdb/internal/errs"
)

// Driver identifies the database engine.
type Driver string

const (
	DriverMySQL    Driver = "mysql" // MySQL and TiDB
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite3"
)

// TLSConfig describes the transport security policy for pooled connections.
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	MinVersion string `yaml:"min_version"` // TLSv1.2 or TLSv1.3
	SkipVerify bool   `yaml:"skip_verify"` // disables certificate verification
	ServerName string `yaml:"server_name"` // defaults to Config.Host
}

// Build returns the *tls.Config for host, or nil when TLS is disabled.
func (t TLSConfig) Build(host string) (*tls.Config, error) {
	if !t.Enabled {
		return nil, nil
	}

	var minVersion uint16
	switch t.MinVersion {
	case "", "TLSv1.2":
		minVersion = tls.VersionTLS12
	case "TLSv1.3":
		minVersion = tls.VersionTLS13
	default:
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unsupported TLS min version %q", t.MinVersion))
	}

	serverName := t.ServerName
	if serverName == "" {
		serverName = host
	}

	return &tls.Config{
		MinVersion:         minVersion,
		ServerName:         serverName,
		InsecureSkipVerify: t.SkipVerify, //nolint:gosec // opt-in via configuration
	}, nil
}

// Config holds all settings needed to connect to and pool a database.
//
// A Pool copies its Config at construction time, so mutating the caller's
// struct afterwards has no effect on a running pool. Config is comparable and
// is used as the identity of a pool inside a Provider.
type Config struct {
	Driver   Driver `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"` // file path for sqlite3

	TLS TLSConfig `yaml:"tls"`

	// Pool tuning
	MaxConns     int           `yaml:"max_conns"`      // upper bound of open connections
	MaxIdleConns int           `yaml:"max_idle_conns"` // idle connections kept for reuse
	IdleTimeout  time.Duration `yaml:"idle_timeout"`   // idle connections older than this are closed

	// TCP keep-alive on pooled sockets
	KeepAlive             bool          `yaml:"keep_alive"`
	KeepAliveInitialDelay time.Duration `yaml:"keep_alive_initial_delay"` // 0 = OS default

	// Behaviour when every connection is busy.
	// WaitForConnections=false fails immediately with ErrKindPoolExhausted.
	// Otherwise callers queue; QueueLimit caps the queue, 0 means unbounded.
	WaitForConnections bool `yaml:"wait_for_connections"`
	QueueLimit         int  `yaml:"queue_limit"`

	// Timeouts
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`      // dialing and the startup ping
	QueryTimeout       time.Duration `yaml:"query_timeout"`        // per-statement deadline, 0 = none
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold"` // statements slower than this are logged at warn
}

// DefaultConfig returns the pool settings of the reference deployment:
// a single TLS-protected connection to a TiDB cluster.
func DefaultConfig() *Config {
	return &Config{
		Driver:   DriverMySQL,
		Port:     4000,
		Database: "test",
		TLS: TLSConfig{
			Enabled:    true,
			MinVersion: "TLSv1.2",
		},
		MaxConns:              1,
		MaxIdleConns:          1,
		IdleTimeout:           60 * time.Second,
		KeepAlive:             true,
		KeepAliveInitialDelay: 0,
		WaitForConnections:    true,
		QueueLimit:            0,
		ConnectTimeout:        10 * time.Second,
		QueryTimeout:          30 * time.Second,
		SlowQueryThreshold:    time.Second,
	}
}

// Validate reports the first setting that cannot be used to build a pool.
func (c *Config) Validate() error {
	switch {
	case c.Driver == "":
		return errs.New(errs.ErrKindInvalidInput, "database driver is required")
	case c.Database == "":
		return errs.New(errs.ErrKindInvalidInput, "database name is required")
	case c.Host == "" && requiresHost(c.Driver):
		return errs.New(errs.ErrKindInvalidInput, "database host is required")
	case c.Port < 0 || c.Port > 65535:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("invalid port %d", c.Port))
	case c.MaxConns <= 0:
		return errs.New(errs.ErrKindInvalidInput, "max_conns must be positive")
	case c.MaxIdleConns < 0 || c.MaxIdleConns > c.MaxConns:
		return errs.New(errs.ErrKindInvalidInput, "max_idle_conns must be between 0 and max_conns")
	case c.QueueLimit < 0:
		return errs.New(errs.ErrKindInvalidInput, "queue_limit must not be negative")
	case c.IdleTimeout < 0 || c.QueryTimeout < 0 || c.ConnectTimeout < 0:
		return errs.New(errs.ErrKindInvalidInput, "timeouts must not be negative")
	}
	if _, err := c.TLS.Build(c.Host); err != nil {
		return err
	}
	return nil
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
