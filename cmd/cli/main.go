package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/price-standard/price-service/config"
	"github.com/price-standard/price-service/internal/pipeline"
	"github.com/price-standard/price-service/internal/storage"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "price-standard",
	Short: "Price Standard CLI - supplier price list standardization tool",
	Long: `A CLI tool that turns a supplier's spreadsheet price list into a standardized one.
It finds the product table, drops titles, category banners and repeated headers,
normalizes statuses, computes sale prices from К2/К3/К4 markers and renders a
print-ready workbook.`,
	PersistentPreRunE: persistentPreRun,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

// persistentPreRun runs before each command and initializes dependencies
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = initLogger(cfg.Logging)
	return nil
}

func initLogger(lc config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil || lc.Level == "" {
		level = zerolog.InfoLevel
	}

	// Logs go to stderr so command output on stdout stays machine readable
	var output io.Writer
	if lc.Format == "json" {
		output = os.Stderr
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: lc.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	// Library packages log through the global logger
	log.Logger = logger
	return &logger
}

// newPipeline builds a pipeline from the loaded configuration
func newPipeline(pc pipeline.Config, store storage.Storage) *pipeline.Pipeline {
	return pipeline.New(pc, store, logger)
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
