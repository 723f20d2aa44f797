// Command storagectl runs maintenance tasks against the inventory store.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/storagetracker/internal/application"
	"github.com/JonMunkholm/storagetracker/internal/config"
	"github.com/JonMunkholm/storagetracker/internal/logging"
	"github.com/JonMunkholm/storagetracker/internal/store"
)

// env is what every subcommand shares once the root has loaded it.
type env struct {
	cfg   *config.Config
	store store.Store
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "storagectl",
		Short:         "Maintenance tasks for the storage tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				slog.Debug("no .env file found, using environment variables")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			e.cfg = cfg
			return nil
		},
	}

	root.AddCommand(
		newResetCmd(e),
		newSeedCmd(e),
		newMigrateBoxCmd(e),
		newImportCmd(e),
		newEventsCmd(e),
	)
	return root
}

// openStore opens the configured store on first use. Commands that open it
// defer closeStore, which runs whether or not the command fails.
func (e *env) openStore(ctx context.Context) (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	if e.cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	st, err := application.OpenStore(ctx, e.cfg)
	if err != nil {
		return nil, err
	}
	e.store = st
	return st, nil
}

// closeStore closes the store if it was opened.
func (e *env) closeStore() {
	if e.store == nil {
		return
	}
	if err := e.store.Close(); err != nil {
		slog.Warn("close store", "error", err)
	}
	e.store = nil
}
