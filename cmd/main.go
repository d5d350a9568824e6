// Command alertnorm serves the alert normalization API and runs the engine
// offline against files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ruby4mag/alert-normalizer/internal/config"
	"github.com/ruby4mag/alert-normalizer/internal/engine"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "alertnorm",
		Short:         "Normalize security alerts into analyst reports and check them against whitelist notes",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "path to config file (yaml, toml or json)")

	root.AddCommand(newServeCmd(), newFormatCmd(), newWhitelistCmd(), newSeedCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func engineOptions(cfg config.EngineConfig) (engine.Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		AllowedTenants: cfg.AllowedTenants,
		FuzzyThreshold: cfg.FuzzyThreshold,
		Location:       loc,
		MaxSearchDepth: cfg.MaxSearchDepth,
	}, nil
}
