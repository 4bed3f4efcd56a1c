// Package app wires the storefront state containers together.
package app

import (
	"context"
	"fmt"

	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/cart"
	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/session"
	"github.com/safar/go-storefront/internal/storage"
)

type App struct {
	Config  *config.Config
	KV      storage.KV
	API     *api.Client
	Session *session.Store
	Cart    *cart.Store
}

type Option func(*options)

type options struct {
	kv storage.KV
}

// WithKV uses kv instead of opening the configured backend.
func WithKV(kv storage.KV) Option {
	return func(o *options) { o.kv = kv }
}

func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	kv := o.kv
	if kv == nil {
		var err error
		kv, err = storage.Open(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
		}
	}

	a := &App{Config: cfg, KV: kv}

	a.API = api.New(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithTokenSource(func() string { return a.Session.Token() }),
	)

	a.Session = session.New(kv, a.API,
		session.WithMinPasswordLength(cfg.Session.MinPasswordLength),
	)

	var placer cart.OrderPlacer = cart.NewLocalPlacer(cfg.Checkout.SimulatedLatency)
	if cfg.Checkout.Mode == config.CheckoutRemote {
		placer = a.API
	}
	a.Cart = cart.New(kv, cart.WithPlacer(placer), cart.WithOrderSource(a.API))

	return a, nil
}

// Start restores persisted state and, when configured, validates the
// restored session with the API.
func (a *App) Start(ctx context.Context) error {
	if err := a.Session.Restore(ctx); err != nil {
		return err
	}
	if a.Config.Session.ValidateOnStartup {
		if err := a.Session.Validate(ctx); err != nil {
			return err
		}
	}
	if err := a.Cart.Load(ctx); err != nil {
		return err
	}

	logger.Debug("state restored", map[string]any{
		"authenticated": a.Session.IsAuthenticated(),
		"cart_lines":    len(a.Cart.Lines()),
		"backend":       a.Config.Storage.Backend,
	})
	return nil
}

func (a *App) Close() error {
	return a.KV.Close()
}
