// Package cli implements the convene command-line interface.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/convene/internal/config"
	"github.com/Shivanand-hulikatti/convene/internal/logging"
	"github.com/Shivanand-hulikatti/convene/internal/persistence"
	"github.com/Shivanand-hulikatti/convene/internal/repository"
	"github.com/Shivanand-hulikatti/convene/internal/service"
)

// RootOptions holds global flags for all commands. Empty values fall back
// to the environment.
type RootOptions struct {
	DataDir  string
	DataFile string
	LogLevel string
}

// NewRootCommand creates the root command for the convene CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "convene",
		Short:         "Convene - campus event registration",
		Long:          "Manage campus events with bounded capacity, automatic waitlisting and promotion.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "directory holding the data file (env CONVENE_DATA_DIR)")
	cmd.PersistentFlags().StringVar(&opts.DataFile, "data-file", "", "data file name (env CONVENE_DATA_FILE)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "debug, info, warn or error (env CONVENE_LOG_LEVEL)")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

// app is the wired core shared by the subcommands.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	events *repository.EventRepository
	svc    *service.EventService
}

// setup resolves configuration, applies flag overrides and wires the core.
// Logs go to logOut.
func (o *RootOptions) setup(logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.DataFile != "" {
		cfg.DataFile = o.DataFile
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	store := repository.NewEventStore()
	events := repository.NewEventRepository(store)
	regs := repository.NewRegistrationRepository(store)
	files := persistence.NewFileStore(cfg.DataPath(), logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		events: events,
		svc:    service.NewEventService(events, regs, files, logger),
	}, nil
}
