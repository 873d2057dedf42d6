// Package cli is the stockmaster command line: the HTTP backend for the
// desktop shell plus batch export, import and user administration.
package cli

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockmaster/internal/config"
	"stockmaster/internal/logging"
)

// env is what PersistentPreRunE resolves for every subcommand.
type env struct {
	cfg    config.Config
	log    zerolog.Logger
	closer io.Closer
}

// NewRootCmd creates the root command.
func NewRootCmd(version string) *cobra.Command {
	var (
		configPath string
		dbPath     string
		logLevel   string
	)
	e := &env{log: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "stockmaster",
		Short:         "Stock management backend and tools",
		Long:          "StockMaster: customer and product catalog with list views, bulk actions, export and import.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example:       rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.Database.Path = dbPath
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			log, closer, err := logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			e.cfg, e.log, e.closer = cfg, log, closer
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if e.closer != nil {
				return e.closer.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database file (overrides config)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newServeCmd(e),
		newExportCmd(e),
		newImportCmd(e),
		newSampleCmd(e),
		newUserCmd(e),
		newShellCmd(e),
		newWatchCmd(e),
	)
	return cmd
}

const rootCmdExample = `  # Start the backend for the desktop shell
  stockmaster serve --config stockmaster.yaml

  # Export every French customer as CSV
  stockmaster export customers --format csv --filter country=FR

  # Import products from a spreadsheet
  stockmaster import products products.xlsx

  # Write the customers import template
  stockmaster sample customers --format csv

  # Follow notifications published on NATS
  stockmaster watch

  # Create a clerk account
  stockmaster user create --username clerk2 --role user --password 'S3cure-passw0rd'`
