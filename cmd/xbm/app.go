package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/custodia-labs/xbm/internal/adapters/driven/auth"
	"github.com/custodia-labs/xbm/internal/adapters/driven/config/file"
	"github.com/custodia-labs/xbm/internal/adapters/driven/media"
	storagefile "github.com/custodia-labs/xbm/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/xbm/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/xbm/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/xbm/internal/adapters/driving/cli"
	"github.com/custodia-labs/xbm/internal/adapters/driving/oauth"
	"github.com/custodia-labs/xbm/internal/connectors/x"
	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
	"github.com/custodia-labs/xbm/internal/core/services"
	"github.com/custodia-labs/xbm/internal/logger"
	"github.com/custodia-labs/xbm/internal/renderers/markdown"
)

// newApp wires the adapters for one command invocation.
func newApp(opts cli.AppOptions) (*cli.App, error) {
	return buildApp(opts, os.Getenv)
}

func buildApp(opts cli.AppOptions, getenv func(string) string) (*cli.App, error) {
	configStore, err := file.NewConfigStore(opts.StateDir)
	if err != nil {
		return nil, err
	}
	settingsService := services.NewSettingsService(configStore, getenv)

	// An invalid config must not prevent `xbm config set` from repairing it;
	// commands that need the settings call Get themselves and report the error.
	settings, err := settingsService.Get()
	if err != nil {
		logger.Debug("settings: %v, wiring with defaults", err)
		settings = domain.DefaultAppSettings()
	}

	tokenStore := storagefile.NewTokenStore(opts.StateDir)
	app := settings.OAuthApp()

	// Source
	tokens := auth.NewTokenProvider(getenv, tokenStore, app)
	httpClient := x.NewHTTPClient(context.Background(), tokens, x.DefaultTimeout)
	xcfg := x.DefaultConfig()
	if settings.API.BaseURL != "" {
		xcfg.BaseURL = settings.API.BaseURL
	}
	source := x.NewSource(x.NewClient(httpClient, xcfg.BaseURL), xcfg)

	// Output
	writer := storagefile.NewWriter()
	fetcher := media.New(&http.Client{Timeout: settings.Media.Timeout}, writer, media.Config{
		MaxRetries:  settings.Media.MaxRetries,
		Concurrency: settings.Media.Concurrency,
		Timeout:     settings.Media.Timeout,
	})

	// State
	var state driven.SyncStateStore = storagefile.NewSyncStateStore(opts.StateDir)
	var ledger driven.RunLedger
	closeLedger := func() error { return nil }
	if opts.DryRun {
		current, err := state.Load(context.Background())
		if err != nil {
			return nil, err
		}
		state = memory.NewSyncStateStore(current)
		ledger = memory.NewRunLedger()
	} else {
		store, err := sqlite.NewStore(opts.StateDir)
		if err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
		ledger = store
		closeLedger = store.Close
	}

	orchestrator := services.NewSyncOrchestrator(
		source, state, markdown.New(settings.Render.BaseURL), writer, fetcher, ledger,
	).WithProgress(opts.Progress)

	port := settings.Auth.RedirectPort
	authService := services.NewAuthService(auth.NewClient(app), tokenStore, func(oauthState string) driven.CallbackReceiver {
		return oauth.NewCallbackServer(port, oauthState)
	})

	return &cli.App{
		Sync:     orchestrator,
		Auth:     authService,
		Settings: settingsService,
		Close:    closeLedger,
	}, nil
}
