package database

import (
	"crypto/tls"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/playerdb/internal/errs"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DriverMySQL, cfg.Driver)
	assert.Equal(t, "test", cfg.Database)
	assert.Equal(t, 1, cfg.MaxConns)
	assert.Equal(t, 1, cfg.MaxIdleConns)
	assert.Equal(t, 60*time.Second, cfg.IdleTimeout)
	assert.True(t, cfg.KeepAlive)
	assert.True(t, cfg.WaitForConnections)
	assert.Equal(t, 0, cfg.QueueLimit)
	assert.True(t, cfg.TLS.Enabled)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Host = "127.0.0.1"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"missing driver", func(c *Config) { c.Driver = "" }, false},
		{"missing host", func(c *Config) { c.Host = "" }, false},
		{"sqlite needs no host", func(c *Config) { c.Driver = DriverSQLite; c.Host = "" }, true},
		{"registered file dialect needs no host", func(c *Config) { c.Driver = testDriver; c.Host = "" }, true},
		{"missing database", func(c *Config) { c.Database = "" }, false},
		{"zero max conns", func(c *Config) { c.MaxConns = 0 }, false},
		{"idle above max", func(c *Config) { c.MaxIdleConns = 2 }, false},
		{"negative queue", func(c *Config) { c.QueueLimit = -1 }, false},
		{"bad port", func(c *Config) { c.Port = 70000 }, false},
		{"bad tls version", func(c *Config) { c.TLS.MinVersion = "TLSv1.0" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errs.IsInvalidInput(err), "got %v", err)
			}
		})
	}
}

func TestTLSConfig_Build(t *testing.T) {
	c, err := TLSConfig{}.Build("db")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = TLSConfig{Enabled: true, MinVersion: "TLSv1.3", SkipVerify: true}.Build("db")
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS13), c.MinVersion)
	assert.Equal(t, "db", c.ServerName)
	assert.True(t, c.InsecureSkipVerify)

	c, err = TLSConfig{Enabled: true, ServerName: "tidb.example.com"}.Build("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), c.MinVersion)
	assert.Equal(t, "tidb.example.com", c.ServerName)
}

func TestConfig_Addr(t *testing.T) {
	cfg := &Config{Host: "localhost", Port: 4000}
	assert.Equal(t, "localhost:4000", cfg.Addr())
}
