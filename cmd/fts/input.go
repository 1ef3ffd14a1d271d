package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/go-fuzzyts/timedataset"
)

var (
	ErrColumnNotFound = errors.New("column not found in header")
	ErrNoRows         = errors.New("no rows in input")
)

// column resolves a column by header name or by zero based index
func column(header []string, name string) (int, error) {
	if idx := slices.Index(header, name); idx >= 0 {
		return idx, nil
	}
	idx, err := strconv.Atoi(name)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("%q, %w", name, ErrColumnNotFound)
	}
	return idx, nil
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseTime(s, layout string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if layout == "unix" {
		sec, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Parse(layout, s)
}

// readSeries parses a csv series. Empty values are read as NaN. Without a time column the
// observations are spaced by the configured interval starting at the unix epoch.
func readSeries(r io.Reader, cfg inputConfig) (*timedataset.TimeDataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header := []string{}
	if cfg.Header {
		rec, err := reader.Read()
		if err != nil {
			return nil, fmt.Errorf("unable to read header, %w", err)
		}
		header = slices.Clone(rec)
	}

	valIdx, err := column(header, cfg.Column)
	if err != nil {
		return nil, fmt.Errorf("value column, %w", err)
	}
	timeIdx := -1
	if cfg.TimeColumn != "" {
		if timeIdx, err = column(header, cfg.TimeColumn); err != nil {
			return nil, fmt.Errorf("time column, %w", err)
		}
	}

	var t []time.Time
	var y []float64
	for line := 1; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read row %d, %w", line, err)
		}
		if valIdx >= len(rec) || timeIdx >= len(rec) {
			return nil, fmt.Errorf("row %d has %d columns, %w", line, len(rec), ErrColumnNotFound)
		}
		v, err := parseValue(rec[valIdx])
		if err != nil {
			return nil, fmt.Errorf("unable to parse value on row %d, %w", line, err)
		}
		y = append(y, v)

		if timeIdx >= 0 {
			ts, err := parseTime(rec[timeIdx], cfg.TimeLayout)
			if err != nil {
				return nil, fmt.Errorf("unable to parse time on row %d, %w", line, err)
			}
			t = append(t, ts)
		}
	}
	if len(y) == 0 {
		return nil, ErrNoRows
	}

	if timeIdx < 0 {
		return timedataset.NewIndexedDataset(y, cfg.Interval.Duration)
	}
	return timedataset.NewUnivariateDataset(t, y)
}

func readSeriesFile(path string, cfg inputConfig) (*timedataset.TimeDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open input, %w", err)
	}
	defer f.Close()
	return readSeries(f, cfg)
}
