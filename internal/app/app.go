// Package app assembles the storefront services from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"gwi.com/beauty-box/internal/catalog"
	"gwi.com/beauty-box/internal/config"
	"gwi.com/beauty-box/internal/core"
	"gwi.com/beauty-box/internal/events"
	"gwi.com/beauty-box/internal/store"
)

type App struct {
	Bus           *events.Bus
	State         *store.State
	Catalog       *catalog.Catalog
	Carts         *core.CartService
	Orders        *core.OrderService
	Subscriptions *core.SubscriptionService
	Chat          *core.ChatService

	kv      store.KV
	cleanup func()
}

// OpenKV opens the backing store selected by cfg.StoreDriver.
func OpenKV(cfg *config.Config) (store.KV, error) {
	switch cfg.StoreDriver {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		kv, err := store.NewSQLiteStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// New wires the services. The text generator is only created when withLLM is set.
func New(ctx context.Context, cfg *config.Config, withLLM bool) (*App, error) {
	kv, err := OpenKV(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Bus:     events.NewBus(),
		Catalog: catalog.Default(),
		kv:      kv,
		cleanup: func() {},
	}
	a.State = store.NewState(kv, a.Bus)
	a.Carts = core.NewCartService(a.State, a.Catalog)
	a.Orders = core.NewOrderService(a.State, a.Carts)
	a.Subscriptions = core.NewSubscriptionService(a.State, a.Catalog, a.Orders)

	var gen core.TextGenerator
	if withLLM {
		var cleanup func()
		gen, cleanup, err = core.NewTextGenerator(ctx, cfg)
		if err != nil {
			kv.Close()
			return nil, fmt.Errorf("failed to create text generator: %w", err)
		}
		if cleanup != nil {
			a.cleanup = cleanup
		}
	}
	if gen == nil {
		log.Info().Msg("No text generator configured, unmatched messages get canned replies")
	}
	a.Chat = core.NewChatService(core.NewDispatcher(a.Catalog, gen, cfg.LLMTimeout), a.Carts, core.NewProfileTracker())
	return a, nil
}

// Namespaces lists the sessions with persisted state, when the store can enumerate them.
func (a *App) Namespaces() ([]string, error) {
	lister, ok := a.kv.(interface{ Namespaces() ([]string, error) })
	if !ok {
		return nil, fmt.Errorf("store driver cannot list sessions")
	}
	return lister.Namespaces()
}

func (a *App) Close() error {
	a.cleanup()
	return a.State.Close()
}
