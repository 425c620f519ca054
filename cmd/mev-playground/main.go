package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jihwankim/mev-playground/pkg/config"
)

var (
	// Global flags
	cfgFile   string
	dataDir   string
	verbose   bool
	logFormat string
	version   = "dev" // Will be set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "mev-playground",
	Short: "Local Ethereum devnet with a full MEV pipeline",
	Long: `MEV Playground runs a single-node Ethereum devnet (reth + lighthouse)
with a complete MEV pipeline: mev-boost, an ultrasound relay with its
redis/postgres stores, the rbuilder block builder, and the Dora explorer.
Everything runs as Docker containers on a private network with fixed
addresses.`,
	Version:           version,
	PersistentPreRun:  setupLogging,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is none, built-in defaults apply)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default is ~/.mev-playground)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	// Add subcommands
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(nukeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(contenderCmd)
	rootCmd.AddCommand(spamCmd)
}

func setupLogging(cmd *cobra.Command, args []string) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if logFormat != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
}

// loadConfig builds the effective configuration from defaults, the optional
// config file and the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
