package services

import (
	"fmt"
	"io"
	"strings"

	"total-comp/charts"
	"total-comp/models"
)

// Reporter prints explorations and lookup results to a terminal.
type Reporter struct {
	out io.Writer
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

const (
	sep  = "══════════════════════════════════════════════════════════════════════"
	thin = "──────────────────────────────────────────────────────────────────────"
)

// PrintExploration writes the filters, the statistics table and a text
// histogram per compensation column.
func (r *Reporter) PrintExploration(e *Exploration) {
	fmt.Fprintf(r.out, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(r.out, "\033[1;35m  TOTAL COMPENSATION: AGGREGATE ANALYSIS\033[0m\n")
	fmt.Fprintf(r.out, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(r.out, "\033[1;33m  Filters\033[0m\n")
	fmt.Fprintf(r.out, "  %s\n", thin)
	if len(e.Filters) == 0 {
		fmt.Fprintf(r.out, "  All responses\n")
	}
	for _, f := range e.Filters {
		fmt.Fprintf(r.out, "  %s\n", f)
	}
	fmt.Fprintf(r.out, "  Matching responses : \033[1m%d\033[0m\n\n", e.Summary.Count)

	r.PrintSummary(e.Summary)

	for _, col := range models.CompensationColumns {
		vals, ok := e.Distributions[col]
		if !ok {
			continue
		}
		fmt.Fprintf(r.out, "\033[1;33m  %s distribution\033[0m\n", col)
		fmt.Fprintf(r.out, "  %s\n", thin)
		bins := charts.Bins(vals)
		if len(bins) == 0 {
			fmt.Fprintf(r.out, "  No %s data\n\n", col)
			continue
		}
		peak := 0
		for _, b := range bins {
			if b.Count > peak {
				peak = b.Count
			}
		}
		for _, b := range bins {
			bar := strings.Repeat("█", scaled(b.Count, peak, 40))
			fmt.Fprintf(r.out, "  %12s – %-12s %s (%d)\n", formatStat(b.Low), formatStat(b.High), bar, b.Count)
		}
		fmt.Fprintln(r.out)
	}

	fmt.Fprintf(r.out, "\033[1;35m%s\033[0m\n\n", sep)
}

// PrintSummary writes a describe()-style table, one column per numeric field.
func (r *Reporter) PrintSummary(s Summary) {
	fmt.Fprintf(r.out, "\033[1;33m  Data Table\033[0m\n")
	fmt.Fprintf(r.out, "  %s\n", thin)
	if s.Empty() {
		fmt.Fprintf(r.out, "  %s\n\n", models.NoDataMessage)
		return
	}

	fmt.Fprintf(r.out, "  %-6s", "")
	for _, c := range s.Columns {
		fmt.Fprintf(r.out, " %14s", c.Column)
	}
	fmt.Fprintln(r.out)

	rows := []struct {
		label string
		get   func(ColumnStats) *float64
	}{
		{"mean", func(c ColumnStats) *float64 { return c.Mean }},
		{"std", func(c ColumnStats) *float64 { return c.Std }},
		{"min", func(c ColumnStats) *float64 { return c.Min }},
		{"25%", func(c ColumnStats) *float64 { return c.P25 }},
		{"50%", func(c ColumnStats) *float64 { return c.P50 }},
		{"75%", func(c ColumnStats) *float64 { return c.P75 }},
		{"max", func(c ColumnStats) *float64 { return c.Max }},
	}

	fmt.Fprintf(r.out, "  %-6s", "count")
	for _, c := range s.Columns {
		fmt.Fprintf(r.out, " %14d", c.Count)
	}
	fmt.Fprintln(r.out)
	for _, row := range rows {
		fmt.Fprintf(r.out, "  %-6s", row.label)
		for _, c := range s.Columns {
			v := row.get(c)
			if v == nil {
				fmt.Fprintf(r.out, " %14s", "NaN")
				continue
			}
			fmt.Fprintf(r.out, " %14s", formatStat(*v))
		}
		fmt.Fprintln(r.out)
	}
	fmt.Fprintln(r.out)
}

// PrintAggregate writes the four reference metrics for a lookup hit.
func (r *Reporter) PrintAggregate(a *models.AggregateRow) {
	fmt.Fprintf(r.out, "\n\033[1;33m  Reference compensation\033[0m\n")
	fmt.Fprintf(r.out, "  %s\n", thin)
	fmt.Fprintf(r.out, "  %s\n", describeKey(a.Key))
	fmt.Fprintf(r.out, "  Average salary : \033[1;32m$%s\033[0m\n", formatStat(a.AverageSalary))
	fmt.Fprintf(r.out, "  Median salary  : \033[1;32m$%s\033[0m\n", formatStat(a.MedianSalary))
	fmt.Fprintf(r.out, "  Average AIP    : \033[1;32m$%s\033[0m\n", formatStat(a.AverageAIP))
	fmt.Fprintf(r.out, "  Median AIP     : \033[1;32m$%s\033[0m\n\n", formatStat(a.MedianAIP))
}

// PrintNoData writes the friendly message for an expected empty outcome.
func (r *Reporter) PrintNoData(err error) {
	fmt.Fprintf(r.out, "\n  \033[1;33m%s\033[0m\n  (%v)\n\n", models.NoDataMessage, err)
}

func formatStat(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func scaled(n, peak, width int) int {
	if peak == 0 {
		return 0
	}
	w := n * width / peak
	if n > 0 && w == 0 {
		w = 1
	}
	return w
}
