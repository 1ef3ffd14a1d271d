package fuzzyts

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/aouyang1/go-fuzzyts/fuzzyset"
	"github.com/aouyang1/go-fuzzyts/membership"
	"github.com/aouyang1/go-fuzzyts/timedataset"
)

func generateExampleSeries() ([]time.Time, []float64) {
	// a daily cycle sampled every 15 minutes over four weeks with drifting level and spread
	n := 28 * 96
	t := timedataset.GenerateT(n, 15*time.Minute, time.Now)
	r := timedataset.NewRand(42)

	y := timedataset.GenerateConstY(n, 98.3).
		Add(timedataset.GenerateWaveY(n, 10.5, 96, 8)).
		Add(timedataset.GenerateWaveY(n, 3.5, 32, 0)).
		Add(timedataset.GenerateGaussianLinear(r, n, 0, 1.5, 0.005, 0.0005)).
		Add(timedataset.GenerateChange(n, n*3/4, 8, 0)).
		SetConst(n/3, n/3+4, 130)
	return t, y
}

func runForecastExample(opt *Options, t []time.Time, y []float64) error {
	f, err := New(opt)
	if err != nil {
		return err
	}
	if err := f.Fit(t, y); err != nil {
		return err
	}

	m, err := f.Model()
	if err != nil {
		return err
	}
	if err := m.TablePrint(os.Stderr, "", "  "); err != nil {
		return err
	}

	res, err := f.Predict(96)
	if err != nil {
		return err
	}
	for i := 0; i < len(res.T); i += 12 {
		fmt.Fprintf(os.Stderr, "%s  %.3f  [%.3f, %.3f]\n", res.T[i].Format(time.RFC3339), res.Forecast[i], res.Lower[i], res.Upper[i])
	}
	return nil
}

func recoverForecastPanic() {
	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr, "panic: %v\n", r)
		debug.PrintStack()
	}
}

func Example_forecaster() {
	t, y := generateExampleSeries()

	defer recoverForecastPanic()

	if err := runForecastExample(nil, t, y); err != nil {
		panic(err)
	}
	// Output:
}

func Example_forecasterNonStationary() {
	t, y := generateExampleSeries()

	opt := NewDefaultOptions()
	opt.Grid.Partitions = 20
	opt.Grid.MF = membership.Gaussian
	opt.Grid.Perturbation = &fuzzyset.Perturbation{
		Location: []fuzzyset.Term{{Kind: fuzzyset.TermPolynomial, Params: []float64{0.005, 0}}},
	}
	opt.Model.Order = 3
	opt.Model.WindowSize = 96
	opt.Model.Smoothing = 0.02

	defer recoverForecastPanic()

	if err := runForecastExample(opt, t, y); err != nil {
		panic(err)
	}
	// Output:
}
