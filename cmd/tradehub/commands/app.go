package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/tradehubhq/tradehub-go/internal/catalog"
	"github.com/tradehubhq/tradehub-go/internal/inventory"
	"github.com/tradehubhq/tradehub-go/internal/ledger"
	"github.com/tradehubhq/tradehub-go/internal/session"
	"github.com/tradehubhq/tradehub-go/internal/transport"
	"github.com/tradehubhq/tradehub-go/pkg/config"
	"github.com/tradehubhq/tradehub-go/pkg/logger"
)

// app bundles the wired client stack for one command invocation.
type app struct {
	cfg     *config.Config
	logg    *logger.Logger
	client  *transport.Client
	catalog *catalog.Repository
	ledger  ledger.Service
	session *session.Manager
	trader  *inventory.Trader
}

func newApp(ctx context.Context) (*app, error) {
	logg := logger.New(logger.Options{ServiceName: "tradehub"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logg = logger.New(logger.Options{
		ServiceName: "tradehub",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	client, err := transport.NewClient(cfg.API.BaseURL,
		transport.WithTimeout(cfg.API.RequestTimeout),
		transport.WithStaticToken(cfg.Session.Token),
		transport.WithLogger(logg),
	)
	if err != nil {
		return nil, fmt.Errorf("building hub client: %w", err)
	}

	provider, err := buildProvider(cfg.Session)
	if err != nil {
		return nil, err
	}
	manager, err := session.NewManager(client, provider, logg)
	if err != nil {
		return nil, fmt.Errorf("building session manager: %w", err)
	}

	repo, err := catalog.NewRepository(client)
	if err != nil {
		return nil, fmt.Errorf("building catalog repository: %w", err)
	}
	ledgerSvc, err := ledger.NewService(client)
	if err != nil {
		return nil, fmt.Errorf("building trade ledger: %w", err)
	}
	trader, err := inventory.NewTrader(ledgerSvc, manager, logg)
	if err != nil {
		return nil, fmt.Errorf("building trader: %w", err)
	}

	return &app{
		cfg:     cfg,
		logg:    logg,
		client:  client,
		catalog: repo,
		ledger:  ledgerSvc,
		session: manager,
		trader:  trader,
	}, nil
}

// buildProvider signs in as the identity carried by the configured session
// token; with no token, every command runs anonymously.
func buildProvider(cfg config.SessionConfig) (session.Provider, error) {
	if cfg.Token == "" || cfg.JWTSecret == "" {
		return session.NewStaticProvider(), nil
	}
	provider, err := session.TokenProvider(cfg, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("parsing session token: %w", err)
	}
	return provider, nil
}

func (a *app) close() {
	a.session.Close()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
