// Command fts trains fuzzy time series models on csv series, forecasts from saved models,
// benchmarks configurations over sliding windows, searches hyperparameters and forecasts with
// date parts of the timestamps as seasonal variables.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile string
	input      string
	logLevel   string
}

func (f *rootFlags) config() (*config, error) {
	cfg, err := loadConfig(f.configFile)
	if err != nil {
		return nil, err
	}
	if f.input != "" {
		cfg.Input.Path = f.input
	}
	return cfg, nil
}

func setLogger(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("unable to parse log level, %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "fts",
		Short: "Fuzzy time series forecasting",
		Long: `Trains high order fuzzy time series models on a csv column and forecasts from them.
Settings are read from an optional toml config and the input path can be overridden by flag.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setLogger(flags.logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "toml config file")
	rootCmd.PersistentFlags().StringVarP(&flags.input, "input", "i", "", "csv input, overrides the config")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "debug, info, warn or error")

	rootCmd.AddCommand(trainCmd(flags))
	rootCmd.AddCommand(forecastCmd(flags))
	rootCmd.AddCommand(benchmarkCmd(flags))
	rootCmd.AddCommand(searchCmd(flags))
	rootCmd.AddCommand(seasonalCmd(flags))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
