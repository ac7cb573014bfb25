package database

import (
	"context"
	"errors"
	"sync"

	"github.com/koustreak/playerdb/internal/errs"
	"github.com/koustreak/playerdb/internal/logger"
)

// Provider owns the pools of a process. Get is idempotent per configuration:
// asking twice for the same settings returns the same *Pool instead of
// opening a second set of sockets.
type Provider struct {
	mu    sync.Mutex
	pools map[Config]*Pool
	log   *logger.Logger
}

// NewProvider returns an empty Provider.
func NewProvider(log *logger.Logger) *Provider {
	return &Provider{
		pools: make(map[Config]*Pool),
		log:   log,
	}
}

// Get returns the pool for cfg, opening it on first use.
func (pr *Provider) Get(ctx context.Context, cfg *Config) (*Pool, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	if p, ok := pr.pools[*cfg]; ok {
		return p, nil
	}

	p, err := Open(ctx, cfg, pr.log)
	if err != nil {
		return nil, err
	}
	p.onClose = pr.forget
	pr.pools[*cfg] = p
	return p, nil
}

// Len reports how many open pools the provider holds.
func (pr *Provider) Len() int {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return len(pr.pools)
}

// Close closes every pool still owned by the provider.
func (pr *Provider) Close() error {
	pr.mu.Lock()
	pools := make([]*Pool, 0, len(pr.pools))
	for _, p := range pr.pools {
		pools = append(pools, p)
	}
	pr.mu.Unlock()

	var errList []error
	for _, p := range pools {
		if err := p.Close(); err != nil && !errs.IsClosed(err) {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

func (pr *Provider) forget(p *Pool) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.pools[p.cfg] == p {
		delete(pr.pools, p.cfg)
	}
}
