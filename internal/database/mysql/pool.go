package mysql

import (
	"context"
	"database/sql/driver"
	"fmt"
	"net"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/koustreak/playerdb/internal/database"
	"github.com/koustreak/playerdb/internal/errs"
)

const defaultPort = 4000 // TiDB

// newConnector turns cfg into a driver.Connector. Going through
// gomysql.Config instead of a hand-formatted DSN keeps credentials with
// special characters intact.
func newConnector(cfg *database.Config) (driver.Connector, error) {
	mc, err := buildConfig(cfg)
	if err != nil {
		return nil, err
	}
	connector, err := gomysql.NewConnector(mc)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid mysql config", err)
	}
	return connector, nil
}

// buildConfig maps the pool settings onto the driver's Config.
func buildConfig(cfg *database.Config) (*gomysql.Config, error) {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	tlsCfg, err := cfg.TLS.Build(cfg.Host)
	if err != nil {
		return nil, err
	}

	mc := gomysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = registerDialer(cfg)
	mc.Addr = net.JoinHostPort(cfg.Host, fmt.Sprint(port))
	mc.DBName = cfg.Database
	mc.Timeout = cfg.ConnectTimeout
	mc.ParseTime = true // DATETIME/TIMESTAMP scan as time.Time
	mc.TLS = tlsCfg
	// UPDATE reports matched rows, not changed rows, so a zero increment
	// on an existing player still counts as one.
	mc.ClientFoundRows = true
	return mc, nil
}

// registerDialer registers a dial function carrying the keep-alive policy
// and returns the network name the driver should use for it. The name
// encodes the dialer settings, so equal settings share one registration.
func registerDialer(cfg *database.Config) string {
	d := newDialer(cfg.KeepAlive, cfg.KeepAliveInitialDelay, cfg.ConnectTimeout)
	name := fmt.Sprintf("tcp+playerdb(ka=%t,delay=%s,timeout=%s)",
		cfg.KeepAlive, cfg.KeepAliveInitialDelay, cfg.ConnectTimeout)

	gomysql.RegisterDialContext(name, func(ctx context.Context, addr string) (net.Conn, error) {
		return d.DialContext(ctx, "tcp", addr)
	})
	return name
}

// newDialer returns a TCP dialer. A zero delay keeps the OS default idle
// time before the first keep-alive probe.
func newDialer(keepAlive bool, delay, timeout time.Duration) *net.Dialer {
	d := &net.Dialer{Timeout: timeout}
	if !keepAlive {
		d.KeepAlive = -1
		return d
	}
	d.KeepAliveConfig = net.KeepAliveConfig{
		Enable: true,
		Idle:   delay,
	}
	return d
}
