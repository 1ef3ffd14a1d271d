package benchmark

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"text/tabwriter"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"gonum.org/v1/gonum/stat"
)

// maxLatency bounds the recorded window latencies in microseconds
const maxLatency = int64(10 * time.Minute / time.Microsecond)

// Stat is the mean and standard deviation of a score across windows, skipping NaN
type Stat struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

func newStat(values []float64) Stat {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			clean = append(clean, v)
		}
	}
	switch len(clean) {
	case 0:
		return Stat{Mean: math.NaN(), Std: math.NaN()}
	case 1:
		return Stat{Mean: clean[0]}
	}
	mean, std := stat.MeanStdDev(clean, nil)
	return Stat{Mean: mean, Std: std}
}

// Summary aggregates the windows of one method
type Summary struct {
	Method   string `json:"method"`
	Windows  int    `json:"windows"`
	Failures int    `json:"failures"`

	Rules      Stat `json:"rules"`
	RMSE       Stat `json:"rmse"`
	SMAPE      Stat `json:"smape"`
	TheilU     Stat `json:"theil_u"`
	Sharpness  Stat `json:"sharpness"`
	Resolution Stat `json:"resolution"`
	Coverage   Stat `json:"coverage"`
	Winkler    Stat `json:"winkler"`
	CRPS       Stat `json:"crps"`
	Pinball    Stat `json:"pinball"`

	LatencyP50 time.Duration `json:"latency_p50"`
	LatencyP95 time.Duration `json:"latency_p95"`
	LatencyP99 time.Duration `json:"latency_p99"`
}

func summarize(methods []Method, results []WindowResult) []Summary {
	byMethod := make(map[string][]WindowResult, len(methods))
	for _, r := range results {
		byMethod[r.Method] = append(byMethod[r.Method], r)
	}

	summaries := make([]Summary, 0, len(methods))
	for _, m := range methods {
		summaries = append(summaries, newSummary(m.Name, byMethod[m.Name]))
	}
	return summaries
}

func newSummary(method string, results []WindowResult) Summary {
	s := Summary{Method: method, Windows: len(results)}

	hg := hdrhistogram.New(1, maxLatency, 3)
	cols := make(map[string][]float64)
	for _, r := range results {
		if err := hg.RecordValue(min(max(r.Duration.Microseconds(), 1), maxLatency)); err != nil {
			slog.Debug("unable to record window latency", "method", method, "error", err)
		}
		if r.Err != nil {
			s.Failures++
			continue
		}
		cols["rules"] = append(cols["rules"], float64(r.Rules))
		cols["rmse"] = append(cols["rmse"], r.RMSE)
		cols["smape"] = append(cols["smape"], r.SMAPE)
		cols["theil_u"] = append(cols["theil_u"], r.TheilU)
		cols["sharpness"] = append(cols["sharpness"], r.Sharpness)
		cols["resolution"] = append(cols["resolution"], r.Resolution)
		cols["coverage"] = append(cols["coverage"], r.Coverage)
		cols["winkler"] = append(cols["winkler"], r.Winkler)
		cols["crps"] = append(cols["crps"], r.CRPS)
		cols["pinball"] = append(cols["pinball"], r.Pinball)
	}

	s.Rules = newStat(cols["rules"])
	s.RMSE = newStat(cols["rmse"])
	s.SMAPE = newStat(cols["smape"])
	s.TheilU = newStat(cols["theil_u"])
	s.Sharpness = newStat(cols["sharpness"])
	s.Resolution = newStat(cols["resolution"])
	s.Coverage = newStat(cols["coverage"])
	s.Winkler = newStat(cols["winkler"])
	s.CRPS = newStat(cols["crps"])
	s.Pinball = newStat(cols["pinball"])

	if hg.TotalCount() > 0 {
		s.LatencyP50 = time.Duration(hg.ValueAtQuantile(50)) * time.Microsecond
		s.LatencyP95 = time.Duration(hg.ValueAtQuantile(95)) * time.Microsecond
		s.LatencyP99 = time.Duration(hg.ValueAtQuantile(99)) * time.Microsecond
	}
	return s
}

// Report is the outcome of a benchmark run. Results are ordered by method and then by window.
type Report struct {
	ID        string         `json:"id"`
	Started   time.Time      `json:"started"`
	Elapsed   time.Duration  `json:"elapsed"`
	Methods   []Method       `json:"methods"`
	Windows   []Window       `json:"windows"`
	Results   []WindowResult `json:"-"`
	Summaries []Summary      `json:"summaries"`
}

// MethodResults returns the window results of a method
func (r *Report) MethodResults(method string) []WindowResult {
	var out []WindowResult
	for _, res := range r.Results {
		if res.Method == method {
			out = append(out, res)
		}
	}
	return out
}

// Summary returns the summary of a method
func (r *Report) Summary(method string) (Summary, bool) {
	for _, s := range r.Summaries {
		if s.Method == method {
			return s, true
		}
	}
	return Summary{}, false
}

func formatStat(s Stat) string {
	if math.IsNaN(s.Mean) {
		return "NaN"
	}
	return fmt.Sprintf("%.3f±%.3f", s.Mean, s.Std)
}

// TablePrint writes one row of mean and standard deviation of every score per method
func (r *Report) TablePrint(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Benchmark %s: %d windows in %s\n", r.ID, len(r.Windows), r.Elapsed.Round(time.Millisecond)); err != nil {
		return err
	}

	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintln(tbl, "Method\tFailed\tRules\tRMSE\tSMAPE\tU\tSharpness\tCoverage\tWinkler\tCRPS\tPinball\tP50\tP99\t"); err != nil {
		return err
	}
	for _, s := range r.Summaries {
		row := fmt.Sprintf("%s\t%d/%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t",
			s.Method, s.Failures, s.Windows,
			formatStat(s.Rules), formatStat(s.RMSE), formatStat(s.SMAPE), formatStat(s.TheilU),
			formatStat(s.Sharpness), formatStat(s.Coverage), formatStat(s.Winkler),
			formatStat(s.CRPS), formatStat(s.Pinball),
			s.LatencyP50, s.LatencyP99,
		)
		if _, err := fmt.Fprintln(tbl, row); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
