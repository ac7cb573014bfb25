package mysql

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/playerdb/internal/database"
	"github.com/koustreak/playerdb/internal/errs"
)

func tidbConfig() *database.Config {
	cfg := database.DefaultConfig()
	cfg.Host = "gateway01.us-west-2.prod.aws.tidbcloud.com"
	cfg.User = "root"
	cfg.Password = "p@ss:w/rd"
	return cfg
}

func TestBuildConfig(t *testing.T) {
	cfg := tidbConfig()

	mc, err := buildConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "root", mc.User)
	assert.Equal(t, "p@ss:w/rd", mc.Passwd)
	assert.Equal(t, "gateway01.us-west-2.prod.aws.tidbcloud.com:4000", mc.Addr)
	assert.Equal(t, "test", mc.DBName)
	assert.True(t, mc.ParseTime)
	assert.True(t, mc.ClientFoundRows, "UPDATE must report matched rows")
	assert.Equal(t, 10*time.Second, mc.Timeout)

	require.NotNil(t, mc.TLS)
	assert.Equal(t, uint16(tls.VersionTLS12), mc.TLS.MinVersion)
	assert.Equal(t, cfg.Host, mc.TLS.ServerName)
	assert.False(t, mc.TLS.InsecureSkipVerify)
}

func TestBuildConfig_NoTLS(t *testing.T) {
	cfg := tidbConfig()
	cfg.TLS.Enabled = false
	cfg.Port = 3306

	mc, err := buildConfig(cfg)
	require.NoError(t, err)
	assert.Nil(t, mc.TLS)
	assert.Equal(t, "gateway01.us-west-2.prod.aws.tidbcloud.com:3306", mc.Addr)
}

func TestBuildConfig_BadTLSVersion(t *testing.T) {
	cfg := tidbConfig()
	cfg.TLS.MinVersion = "SSLv3"

	_, err := buildConfig(cfg)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestRegisterDialer_SameSettingsSameName(t *testing.T) {
	a := registerDialer(tidbConfig())
	b := registerDialer(tidbConfig())
	assert.Equal(t, a, b)

	other := tidbConfig()
	other.KeepAlive = false
	assert.NotEqual(t, a, registerDialer(other))
}

func TestNewDialer(t *testing.T) {
	d := newDialer(false, 0, time.Second)
	assert.Equal(t, time.Duration(-1), d.KeepAlive)
	assert.Equal(t, time.Second, d.Timeout)

	d = newDialer(true, 30*time.Second, time.Second)
	assert.True(t, d.KeepAliveConfig.Enable)
	assert.Equal(t, 30*time.Second, d.KeepAliveConfig.Idle)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"duplicate key", &gomysql.MySQLError{Number: 1062, Message: "Duplicate entry '1' for key 'PRIMARY'"}, errs.ErrKindQueryFailed},
		{"syntax error", &gomysql.MySQLError{Number: 1064, Message: "You have an error in your SQL syntax"}, errs.ErrKindQueryFailed},
		{"access denied", &gomysql.MySQLError{Number: 1045, Message: "Access denied"}, errs.ErrKindConnectionFailed},
		{"too many connections", &gomysql.MySQLError{Number: 1040, Message: "Too many connections"}, errs.ErrKindConnectionFailed},
		{"max execution time", &gomysql.MySQLError{Number: 3024, Message: "Query execution was interrupted"}, errs.ErrKindTimeout},
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"invalid conn", gomysql.ErrInvalidConn, errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Dialect{}.MapError(fmt.Errorf("driver: %w", tt.err), "statement failed")
			require.Error(t, err)
			assert.Equal(t, tt.want, errs.KindOf(err))
			assert.True(t, errors.Is(err, tt.err), "cause must be preserved")
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.NoError(t, Dialect{}.MapError(nil, "noop"))
}

func TestRebind(t *testing.T) {
	q := "UPDATE players SET coins = coins + ? WHERE id = ?"
	assert.Equal(t, q, Dialect{}.Rebind(q))
}

func TestRequiresHost(t *testing.T) {
	assert.True(t, Dialect{}.RequiresHost())

	cfg := tidbConfig()
	cfg.Host = ""
	assert.True(t, errs.IsInvalidInput(cfg.Validate()))
}
