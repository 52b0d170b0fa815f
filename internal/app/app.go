package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shahjalal-bu/liveshare/internal/bus"
	"github.com/shahjalal-bu/liveshare/internal/config"
	"github.com/shahjalal-bu/liveshare/internal/core"
	"github.com/shahjalal-bu/liveshare/internal/snippets"
	"github.com/shahjalal-bu/liveshare/internal/store"
	"github.com/shahjalal-bu/liveshare/internal/store/sqlite"
)

// App wires the store, bus, registry, and snippet manager together. One App
// corresponds to one simulated browser tab (or one CLI process).
type App struct {
	Registry *core.Registry
	Snippets *snippets.Manager

	store store.Store
	bus   bus.Bus
	log   *zerolog.Logger
}

// New constructs the application with the provided configuration.
func New(ctx context.Context, cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Debug().Str("db_path", cfg.DatabasePath).Msg("store initialized")

	b, err := newBus(ctx, cfg.Bus, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init bus: %w", err)
	}
	logger.Debug().Str("bus", string(cfg.Bus.Kind)).Msg("bus initialized")

	return &App{
		Registry: core.NewRegistry(st, b, cfg.BaseURL, logger),
		Snippets: snippets.NewManager(st, logger),
		store:    st,
		bus:      b,
		log:      logger,
	}, nil
}

func newBus(ctx context.Context, cfg config.BusConfig, logger *zerolog.Logger) (bus.Bus, error) {
	switch cfg.Kind {
	case config.BusRedis:
		return bus.NewRedis(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.RedisChannel, logger)
	case config.BusMemory, "":
		return bus.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown bus kind %q", cfg.Kind)
	}
}

// Close releases everything in reverse construction order.
func (a *App) Close() {
	a.Registry.Close()
	if err := a.bus.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close bus")
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
	} else {
		a.log.Debug().Msg("store closed")
	}
}
