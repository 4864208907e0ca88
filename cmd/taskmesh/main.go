package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/taskmesh/internal/config"
	"github.com/sandeepkv93/taskmesh/internal/logger"
	"github.com/sandeepkv93/taskmesh/internal/shutdown"
	"github.com/sandeepkv93/taskmesh/internal/syncstore"
	"github.com/sandeepkv93/taskmesh/internal/update"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	logPath    string
	debug      bool
	dataDir    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "taskmesh failed: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:           "taskmesh",
		Short:         "Terminal todo lists backed by per-profile synced stores",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.Flags().Changed("debug"))
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", config.DefaultConfigFileName, "path to the TOML config file")
	cmd.Flags().StringVar(&opts.logPath, "log", "", "log file path (overrides config)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "directory for profile stores without a root")
	return cmd
}

func run(parent context.Context, opts options, debugSet bool) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.LoadOrCreate(opts.configPath)
	if err != nil {
		return err
	}
	cfg = config.FromEnv(cfg)
	if opts.logPath != "" {
		cfg.LogPath = opts.logPath
	}
	if debugSet {
		cfg.Debug = opts.debug
	}

	if err := logger.Init(cfg.LogPath, cfg.Debug); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()
	log := logger.ComponentLogger("main")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sd := shutdown.New()
	connector := syncstore.Connector{BaseDir: opts.dataDir}
	connect := func(p config.Profile) (update.Store, error) {
		store, err := connector.Connect(p)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	m := update.NewModelWithConfig(cfg.Profiles, connect, sd, update.RuntimeConfigFrom(cfg))
	log.Info("starting", "profiles", len(cfg.Profiles), "config", opts.configPath)

	final, runErr := update.Run(ctx, m, update.RunOptions{
		ProgramOptions: []tea.ProgramOption{tea.WithAltScreen()},
	})
	sd.Trigger(shutdown.ErrUserQuit)
	if !sd.Drain(config.DefaultShutdownGrace) {
		log.Warn("mutations still running after grace period", "grace", config.DefaultShutdownGrace)
	}
	closeErr := final.Close()
	if closeErr != nil {
		log.Error("closing sessions", "error", closeErr)
	}
	log.Info("stopped", "reason", sd.Reason())
	return errors.Join(runErr, closeErr)
}
