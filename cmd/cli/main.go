package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kosarica/price-aggregator/config"
	"github.com/kosarica/price-aggregator/internal/app"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "price-aggregator",
	Short: "Price Aggregator CLI - compare quick-commerce prices from the terminal",
	Long: `A CLI for the location-aware price aggregator. It searches grocery, food
and medicine platforms for one city, lists which platforms serve a location,
optimizes carts, and manages the analytics database.`,
	PersistentPreRunE: persistentPreRun,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

// persistentPreRun loads configuration and the logger before each command
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// CLI output goes to stdout, logs go to stderr in console format.
	logging := cfg.Logging
	if logging.Format != "json" {
		logging.Format = "console"
	}
	logger = logging.LoggerTo(os.Stderr, "price-aggregator-cli")
	return nil
}

// newPipeline builds the aggregation pipeline from the loaded config.
func newPipeline() (*app.Pipeline, error) {
	p, err := app.BuildPipeline(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	logger.Debug().Str("fetcher", p.Fetcher.Name()).Int("adapters", len(p.Adapters.List())).Msg("Pipeline ready")
	return p, nil
}

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
