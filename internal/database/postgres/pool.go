package postgres

import (
	"context"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"

	"github.com/koustreak/playerdb/internal/database"
	"github.com/koustreak/playerdb/internal/errs"
)

const defaultPort = 5432

// buildConnConfig parses the non-secret settings through pgx and then sets
// credentials, TLS and the keep-alive dialer directly on the result.
func buildConnConfig(cfg *database.Config) (*pgx.ConnConfig, error) {
	connCfg, err := pgx.ParseConfig(buildDSN(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid postgres config", err)
	}

	tlsCfg, err := cfg.TLS.Build(cfg.Host)
	if err != nil {
		return nil, err
	}

	connCfg.User = cfg.User
	connCfg.Password = cfg.Password
	connCfg.TLSConfig = tlsCfg
	connCfg.Fallbacks = nil
	connCfg.ConnectTimeout = cfg.ConnectTimeout

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	if cfg.KeepAlive {
		dialer.KeepAliveConfig = net.KeepAliveConfig{Enable: true, Idle: cfg.KeepAliveInitialDelay}
	} else {
		dialer.KeepAlive = -1
	}
	connCfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialer.DialContext(ctx, network, addr)
	}

	return connCfg, nil
}

// buildDSN constructs the keyword/value connection string without
// credentials; those are set on the parsed config.
func buildDSN(cfg *database.Config) string {
	sslMode := "disable"
	if cfg.TLS.Enabled {
		sslMode = "require"
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s sslmode=%s",
		cfg.Host, port, cfg.Database, sslMode,
	)
}
