package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/formpilotai/formpilot/internal/adapter"
	"github.com/formpilotai/formpilot/internal/httpapi"
	"github.com/formpilotai/formpilot/internal/llm/factory"
	"github.com/formpilotai/formpilot/internal/schemas"
	"github.com/formpilotai/formpilot/internal/sessionstore"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the FormPilot HTTP server",
	Long:  `Starts the HTTP surface (§6): /api/chat, /api/schemas, /api/sessions/reset, /api/health.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}

		ctx, cancel := signalContext()
		defer cancel()

		client, err := factory.New(ctx, factory.Config{
			Provider:    cfg.LLM.Provider,
			APIEndpoint: cfg.LLM.APIEndpoint,
			APIKey:      cfg.LLM.APIKey,
			ModelName:   cfg.LLM.ModelName,
		})
		if err != nil {
			return fmt.Errorf("configure llm client: %w", err)
		}

		store := sessionstore.New(cfg.Session.SessionTimeout())
		sweeper, err := sessionstore.StartSweeper(store, "@every 1m", slog.Default())
		if err != nil {
			return fmt.Errorf("start session sweeper: %w", err)
		}
		defer sweeper.Stop()

		server := httpapi.New(httpapi.Config{
			Store:       store,
			Client:      client,
			Model:       cfg.LLM.ModelName,
			Schemas:     schemas.New(cfg.Schemas.Dir),
			CORSOrigins: cfg.Server.CORSAllowedOrigins,
			Addr:        cfg.Server.Addr(),
			Log:         slog.Default(),
		})
		server.Start()

		var adapters *adapter.RuntimeManager
		adapters, err = adapter.NewRuntimeManager(cfg.Adapters, chatAdapterEventHandler(server, cfg.Adapters.DefaultSchema, &adapters), adapter.RuntimeAdapterOptions{})
		if err != nil {
			return fmt.Errorf("configure chat adapters: %w", err)
		}
		adapters.Start(ctx)

		slog.Info("FormPilot serving", "addr", cfg.Server.Addr(), "llm_provider", cfg.LLM.Provider)
		<-ctx.Done()

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := adapters.Stop(stopCtx); err != nil {
			slog.Error("chat adapters shutdown failed", "error", err)
		}
		if err := server.Stop(stopCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}

		slog.Info("FormPilot stopped gracefully")
		return nil
	},
}

// chatAdapterEventHandler bridges an inbound Slack/Telegram message into
// the same turn function /api/chat uses, then posts the rendered action
// back through whichever output adapter matches the event's source. manager
// is filled in after NewRuntimeManager returns, since the manager and its
// event handler are constructed together.
func chatAdapterEventHandler(server *httpapi.Server, defaultSchema string, manager **adapter.RuntimeManager) adapter.EventHandler {
	return func(ctx context.Context, source, eventType, sessionID, content string, metadata map[string]string) error {
		act, err := server.HandleChatPlatformEvent(ctx, source, sessionID, content, defaultSchema)
		if err != nil {
			return fmt.Errorf("handle %s event: %w", source, err)
		}

		if *manager == nil {
			return nil
		}
		for _, out := range (*manager).OutputAdapters() {
			if out.Name() == source {
				return out.Send(ctx, sessionID, adapter.RenderAction(act))
			}
		}
		return nil
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
