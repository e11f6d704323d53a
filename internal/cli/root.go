// Package cli implements the chatsync command line client.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/chatsync/internal/config"
	"github.com/SARVESHVARADKAR123/chatsync/internal/observability"
	"github.com/SARVESHVARADKAR123/chatsync/internal/store"
	"github.com/SARVESHVARADKAR123/chatsync/internal/store/httpstore"
)

var (
	version = "dev"
	commit  = "unknown"
)

// app carries what every subcommand needs once the root has loaded config.
type app struct {
	cfg    config.Client
	store  store.ConversationStore
	log    *zap.Logger
	tracer *sdktrace.TracerProvider

	// overrides for tests
	newStore func(cfg config.Client) store.ConversationStore
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{
		newStore: func(cfg config.Client) store.ConversationStore {
			return httpstore.New(cfg.StoreURL, cfg.FetchTimeout)
		},
	}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatsync",
		Short:         "Follow and take part in coaching conversations",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.teardown(cmd.Context())
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	// Global flags
	root.PersistentFlags().String("store-url", "", "store server base URL (overrides CHATSYNC_STORE_URL)")
	root.PersistentFlags().String("as", "", "viewer email (overrides CHATSYNC_VIEWER_EMAIL)")
	root.PersistentFlags().String("role", "", "viewer role (overrides CHATSYNC_VIEWER_ROLE)")

	root.AddCommand(a.watchCmd(), a.sendCmd(), a.conversationCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("store-url"); v != "" {
		cfg.StoreURL = v
	}
	if v, _ := cmd.Flags().GetString("as"); v != "" {
		cfg.ViewerEmail = v
	}
	if v, _ := cmd.Flags().GetString("role"); v != "" {
		cfg.ViewerRole = v
	}
	a.cfg = cfg

	observability.InitLogger("chatsync", cfg.LogLevel)
	a.log = observability.Log

	if cfg.TracingEnabled {
		tp, err := observability.InitTracer(cmd.Context(), "chatsync", cfg.OTLPEndpoint)
		if err != nil {
			return err
		}
		a.tracer = tp
	}

	a.store = a.newStore(cfg)
	return nil
}

func (a *app) teardown(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.WithoutCancel(ctx)); err != nil {
			a.log.Error("failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func (a *app) viewer() (string, string, error) {
	if a.cfg.ViewerEmail == "" {
		return "", "", fmt.Errorf("viewer identity required: pass --as or set CHATSYNC_VIEWER_EMAIL")
	}
	return a.cfg.ViewerEmail, a.cfg.ViewerRole, nil
}

// Execute runs the CLI and exits non-zero on error.
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
