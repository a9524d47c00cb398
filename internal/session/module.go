package session

import (
	"context"
	"time"

	"github.com/brizzai/auto-eda/internal/config"
	"github.com/brizzai/auto-eda/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Sweeper periodically evicts idle sessions
type Sweeper struct {
	store    *Store
	idle     time.Duration
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewSweeper creates a sweeper for store
func NewSweeper(store *Store, cfg config.SessionConfig) *Sweeper {
	return &Sweeper{
		store:    store,
		idle:     cfg.IdleTimeout,
		interval: cfg.SweepInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop; it is a no-op when sweeping is disabled
func (s *Sweeper) Start(context.Context) error {
	if s.idle <= 0 || s.interval <= 0 {
		close(s.done)
		return nil
	}
	go s.run()
	return nil
}

// Stop ends the sweep loop and waits for it
func (s *Sweeper) Stop(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.stop)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.store.Sweep(s.idle); n > 0 {
				logger.Debug("Swept idle sessions", zap.Int("removed", n), zap.Int("remaining", s.store.Len()))
			}
		}
	}
}

func sessionConfig(cfg *config.Config) config.SessionConfig {
	return cfg.Session
}

// Module provides the session store, cookie jar and sweeper
var Module = fx.Module("session",
	fx.Provide(
		sessionConfig,
		NewStore,
		NewCookieJar,
		NewSweeper,
	),
	fx.Invoke(func(lc fx.Lifecycle, s *Sweeper) {
		lc.Append(fx.Hook{OnStart: s.Start, OnStop: s.Stop})
	}),
)
