package main

import (
	"fmt"

	"github.com/lk2023060901/perspectize-backend/internal/conf"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/injector"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every subcommand
type options struct {
	configFile string
	debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "perspectize",
		Short:         "Operate the perspectize content catalogue",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", conf.DefaultPath, "config file path")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newExtractCommand(),
		newDurationCommand(),
		newIngestCommand(opts),
		newContentCommand(opts),
	)
	return root
}

// loadApp builds the application for commands that touch the stores. The
// returned cleanup must be called.
func loadApp(cmd *cobra.Command, opts *options) (*injector.App, func(), error) {
	config, err := conf.LoadConfig(opts.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// keep stdout for tables
	config.Log.Output = "console"
	config.Log.Format = "console"
	if opts.debug {
		config.Log.Level = "debug"
	} else {
		config.Log.Level = "warn"
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.InitGlobal(log)

	app, err := injector.NewApp(cmd.Context(), config, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}

	return app, func() {
		app.Cleanup()
		_ = log.Sync()
	}, nil
}
