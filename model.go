package fuzzyts

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-fuzzyts/hofts"
	"github.com/aouyang1/go-fuzzyts/measures"
	"github.com/aouyang1/go-fuzzyts/partitioner"
)

// Model represents a serializeable format of a forecaster storing the options, partitioner
// bounds, the observations seeding ahead forecasts, fit scores and rules
type Model struct {
	TrainEndTime time.Time        `json:"train_end_time"`
	Frequency    time.Duration    `json:"frequency"`
	Options      *Options         `json:"options"`
	Min          float64          `json:"min"`
	Max          float64          `json:"max"`
	History      []float64        `json:"history"`
	HistoryStart int              `json:"history_start"`
	Scores       *measures.Scores `json:"scores"`
	Rules        []hofts.Rule     `json:"rules"`
}

func (m Model) setName(i int) string {
	prefix := partitioner.DefaultPrefix
	if m.Options != nil && m.Options.Grid != nil && m.Options.Grid.Prefix != "" {
		prefix = m.Options.Grid.Prefix
	}
	return fmt.Sprintf("%s%d", prefix, i)
}

func (m Model) setNames(idx []int) string {
	names := make([]string, len(idx))
	for i, s := range idx {
		names[i] = m.setName(s)
	}
	return strings.Join(names, ",")
}

func (m Model) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sFuzzy Time Series:\n", prefix, indentExpand(indent, 0)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sTraining End Time: %s\n", prefix, indentExpand(indent, 1), m.TrainEndTime); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sFrequency: %s\n", prefix, indentExpand(indent, 1), m.Frequency); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sRange: [%.3f, %.3f]\n", prefix, indentExpand(indent, 1), m.Min, m.Max); err != nil {
		return err
	}

	if m.Options != nil && m.Options.Grid != nil {
		if _, err := fmt.Fprintf(w, "%s%sPartitions: %d    Membership: %s\n",
			prefix, indentExpand(indent, 1),
			m.Options.Grid.Partitions,
			m.Options.Grid.MF,
		); err != nil {
			return err
		}
	}
	if m.Options != nil && m.Options.Model != nil {
		if _, err := fmt.Fprintf(w, "%s%sOrder: %d    Alpha Cut: %.3f    Window: %d\n",
			prefix, indentExpand(indent, 1),
			m.Options.Model.Order,
			m.Options.Model.AlphaCut,
			m.Options.Model.WindowSize,
		); err != nil {
			return err
		}
	}

	if m.Scores != nil {
		if _, err := fmt.Fprintf(w, "%s%sScores:\n", prefix, indentExpand(indent, 0)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%sMAPE: %.3f    RMSE: %.3f    R2: %.3f    U: %.3f\n",
			prefix, indentExpand(indent, 1),
			m.Scores.MAPE,
			m.Scores.RMSE,
			m.Scores.R2,
			m.Scores.TheilU,
		); err != nil {
			return err
		}
	}

	return m.tablePrintRules(w, prefix, indent, 0)
}

func (m Model) tablePrintRules(w io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(w, "%s%sRules:\n", prefix, indentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sLHS\tRHS\t\n", prefix, indentExpand(indent, indentGrowth+1)); err != nil {
		return err
	}
	for _, r := range m.Rules {
		rhs := "..."
		if len(r.RHS) > 0 {
			rhs = m.setNames(r.RHS)
		}
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%s\t\n",
			prefix, indentExpand(indent, indentGrowth+1),
			m.setNames(r.LHS), rhs); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
