package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aouyang1/go-fuzzyts"
	"github.com/aouyang1/go-fuzzyts/benchmark"
	"github.com/aouyang1/go-fuzzyts/hyperparam"
	"github.com/aouyang1/go-fuzzyts/multivariate"
	"github.com/aouyang1/go-fuzzyts/timedataset"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var ErrNoInput = errors.New("no input path, set it in the config or with --input")

// writeOutput writes data to path or to w when path is empty
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("unable to write %s, %w", path, err)
	}
	return nil
}

func loadInput(flags *rootFlags) (*config, *timedataset.TimeDataset, error) {
	cfg, err := flags.config()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Input.Path == "" {
		return nil, nil, ErrNoInput
	}
	td, err := readSeriesFile(cfg.Input.Path, cfg.Input)
	if err != nil {
		return nil, nil, err
	}
	return cfg, td, nil
}

func trainCmd(flags *rootFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a model on the input series and save it as json",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, td, err := loadInput(flags)
			if err != nil {
				return err
			}
			opt, err := cfg.options()
			if err != nil {
				return err
			}

			f, err := fuzzyts.New(opt)
			if err != nil {
				return err
			}
			if err := f.Fit(td.T, td.Y); err != nil {
				return fmt.Errorf("unable to fit model, %w", err)
			}
			m, err := f.Model()
			if err != nil {
				return err
			}
			if err := m.TablePrint(cmd.ErrOrStderr(), "", "  "); err != nil {
				return err
			}

			data, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return fmt.Errorf("unable to encode model, %w", err)
			}
			slog.Info("trained model", "observations", td.Len(), "rules", len(m.Rules))
			return writeOutput(cmd.OutOrStdout(), out, data)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "model output path, stdout if empty")
	return cmd
}

func forecastCmd(flags *rootFlags) *cobra.Command {
	var (
		modelPath    string
		horizon      int
		distribution bool
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast ahead from a saved model",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(modelPath)
			if err != nil {
				return fmt.Errorf("unable to read model, %w", err)
			}
			var m fuzzyts.Model
			if err := json.Unmarshal(raw, &m); err != nil {
				return fmt.Errorf("unable to decode model, %w", err)
			}
			f, err := fuzzyts.NewFromModel(m)
			if err != nil {
				return err
			}

			var res any
			if distribution {
				res, err = f.PredictDistribution(horizon)
			} else {
				res, err = f.Predict(horizon)
			}
			if err != nil {
				return fmt.Errorf("unable to forecast, %w", err)
			}

			data, err := json.Marshal(res)
			if err != nil {
				return fmt.Errorf("unable to encode forecast, %w", err)
			}
			slog.Info("forecasted", "horizon", horizon, "distribution", distribution)
			return writeOutput(cmd.OutOrStdout(), "", data)
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "model json written by train")
	cmd.Flags().IntVarP(&horizon, "horizon", "n", 10, "number of steps ahead")
	cmd.Flags().BoolVar(&distribution, "distribution", false, "forecast probability distributions")
	if err := cmd.MarkFlagRequired("model"); err != nil {
		panic(err)
	}
	return cmd
}

func benchmarkCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "benchmark",
		Short: "Score the configured methods over sliding windows of the input",
		Long: `Scores every [[methods]] entry of the config, or the top level model when there are none,
over sliding train and test windows. Unset method settings are taken from the top level model.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, td, err := loadInput(flags)
			if err != nil {
				return err
			}
			methods, err := cfg.methods()
			if err != nil {
				return err
			}
			r, err := benchmark.NewRunner(cfg.benchmarkOptions())
			if err != nil {
				return err
			}
			report, err := r.Run(cmd.Context(), td.Y, methods)
			if err != nil {
				return err
			}
			return report.TablePrint(cmd.OutOrStdout())
		},
	}
}

func searchCmd(flags *rootFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the model hyperparameters with a genetic algorithm",
		Long: `Evolves the membership function, number of partitions, order and alpha cut over sliding
windows of the input and writes the config of the best genotype as toml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, td, err := loadInput(flags)
			if err != nil {
				return err
			}
			opt, err := cfg.searchOptions()
			if err != nil {
				return err
			}
			s, err := hyperparam.New(opt)
			if err != nil {
				return err
			}
			res, err := s.Run(cmd.Context(), td.Y)
			if err != nil {
				return err
			}
			slog.Info("finished search",
				"best", res.Best.String(),
				"generations", res.Generations,
				"evaluations", res.Evaluations,
			)

			data, err := cfg.withGenotype(res.Best).encode()
			if err != nil {
				return fmt.Errorf("unable to encode config, %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), out, data)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "best config output path, stdout if empty")
	return cmd
}

func seasonalCmd(flags *rootFlags) *cobra.Command {
	var horizon int
	cmd := &cobra.Command{
		Use:   "seasonal",
		Short: "Forecast ahead using date parts of the timestamps as explanatory variables",
		Long: `Clusters the input series with the [seasonal] date_parts of its timestamps, trains a
multivariate model on the composites and forecasts ahead. Each point is the expected value of its
forecast distribution and the bounds are the alpha/2 and 1-alpha/2 quantiles.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, td, err := loadInput(flags)
			if err != nil {
				return err
			}
			opt, err := cfg.seasonalOptions()
			if err != nil {
				return err
			}
			s, err := multivariate.NewSeasonal(opt)
			if err != nil {
				return err
			}
			if err := s.Fit(td.T, td.Y); err != nil {
				return fmt.Errorf("unable to fit seasonal model, %w", err)
			}
			times, dists, err := s.Predict(horizon)
			if err != nil {
				return fmt.Errorf("unable to forecast, %w", err)
			}

			alpha := cfg.Seasonal.Alpha
			res := &fuzzyts.Results{
				T:        times,
				Forecast: make([]float64, 0, len(dists)),
				Upper:    make([]float64, 0, len(dists)),
				Lower:    make([]float64, 0, len(dists)),
			}
			for _, d := range dists {
				res.Forecast = append(res.Forecast, d.Expected())
				res.Lower = append(res.Lower, d.Quantile(alpha/2))
				res.Upper = append(res.Upper, d.Quantile(1-alpha/2))
			}

			data, err := json.Marshal(res)
			if err != nil {
				return fmt.Errorf("unable to encode forecast, %w", err)
			}
			slog.Info("forecasted seasonal model",
				"horizon", horizon,
				"date_parts", len(opt.DateParts),
				"composites", s.Model().Cluster().Len(),
				"rules", s.Model().Len(),
			)
			return writeOutput(cmd.OutOrStdout(), "", data)
		},
	}
	cmd.Flags().IntVarP(&horizon, "horizon", "n", 10, "number of steps ahead")
	return cmd
}
