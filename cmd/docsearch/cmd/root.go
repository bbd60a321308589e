// Package cmd provides the operator CLI for the docsearch engine. Each
// command plays the external-adapter role: it loads the index from the most
// recent valid snapshot, runs one engine operation, and checkpoints mutating
// operations back to disk.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mojitote/docsearch/internal/index"
	"github.com/mojitote/docsearch/internal/storage"
	"github.com/mojitote/docsearch/pkg/config"
	"github.com/mojitote/docsearch/pkg/logger"
	"github.com/mojitote/docsearch/pkg/metrics"
)

var (
	configPath string
	dataDir    string
)

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates the docsearch root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docsearch",
		Short: "Document search engine with snapshot persistence",
		Long: `docsearch indexes text documents into an inverted index and answers
ranked keyword queries. The index is persisted as an atomic snapshot file
with rotating backups; every mutating command checkpoints to disk.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override the snapshot data directory")

	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newSaveCmd())
	cmd.AddCommand(newBackupsCmd())
	cmd.AddCommand(newRestoreCmd())
	return cmd
}

// app bundles the wired engine and store for one command invocation.
type app struct {
	cfg    *config.Config
	store  *storage.Store
	engine *index.Engine
}

// openApp loads configuration, sets up logging and metrics, and brings the
// engine up from the most recent recoverable snapshot (or empty).
func openApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	store, err := storage.NewStore(cfg.Storage, m)
	if err != nil {
		return nil, err
	}
	snap, err := store.Load()
	if err != nil {
		return nil, err
	}
	engine := index.NewEngine(cfg.Index, m)
	if err := engine.Restore(snap); err != nil {
		return nil, fmt.Errorf("restoring index from snapshot: %w", err)
	}
	return &app{cfg: cfg, store: store, engine: engine}, nil
}

// checkpoint persists the current engine state as the new primary snapshot.
func (a *app) checkpoint() error {
	return a.store.Save(a.engine.Snapshot())
}
