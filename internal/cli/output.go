package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/sqlauto/sqlauto"
	"github.com/sqlauto/sqlauto/history"
	"go.uber.org/multierr"
)

type resultsOutput struct {
	MigrationResults []result `json:"migrations"`
	TotalDuration    int64    `json:"total_duration_ms"`
	HasError         bool     `json:"has_error"`
}

type result struct {
	Filename  string `json:"filename"`
	AppliedAt string `json:"applied_at,omitempty"`
	Duration  int64  `json:"duration_ms"`
	Error     string `json:"error,omitempty"`
}

// printResults reports an up run. A partial error prints the files applied before the failure and
// then the failed file.
func (s *state) printResults(
	results []*sqlauto.MigrationResult,
	err error,
	totalDuration time.Duration,
	useJSON bool,
) error {
	var partial *sqlauto.PartialError
	if errors.As(err, &partial) {
		results = append(slices.Clip(partial.Applied), partial.Failed)
	}
	if useJSON {
		output := resultsOutput{
			MigrationResults: convertResults(results),
			TotalDuration:    totalDuration.Milliseconds(),
			HasError:         err != nil,
		}
		return multierr.Append(err, s.writeJSON(output))
	}
	if len(results) == 0 {
		if err == nil {
			fmt.Fprintln(s.stdout, "no migrations to run")
		}
		return err
	}
	for _, r := range results {
		state := "OK"
		if r.Error != nil {
			state = "FAIL"
		}
		fmt.Fprintf(s.stdout, "%-4s %s (%s)\n", state, r.File.Name, truncateDuration(r.Duration))
	}
	if err == nil {
		fmt.Fprintf(s.stdout, "\nsuccessfully applied %d migrations in %v\n", len(results), truncateDuration(totalDuration))
	}
	return err
}

func convertResults(results []*sqlauto.MigrationResult) []result {
	output := make([]result, 0, len(results))
	for _, r := range results {
		res := result{
			Filename: r.File.Name,
			Duration: r.Duration.Milliseconds(),
		}
		if !r.AppliedAt.IsZero() {
			res.AppliedAt = r.AppliedAt.Format(history.TimeFormat)
		}
		if r.Error != nil {
			res.Error = r.Error.Error()
		}
		output = append(output, res)
	}
	return output
}

func truncateDuration(d time.Duration) time.Duration {
	for _, v := range []time.Duration{
		time.Second,
		time.Millisecond,
		time.Microsecond,
	} {
		if d > v {
			return d.Round(v / time.Duration(100))
		}
	}
	return d
}

func renderTable(w io.Writer, header []string, data [][]string) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(
			tw.Rendition{
				Borders: tw.BorderNone,
				Symbols: tw.NewSymbols(tw.StyleASCII),
				Settings: tw.Settings{
					Lines: tw.Lines{
						ShowHeaderLine: tw.Off,
						ShowFooterLine: tw.Off,
						ShowTop:        tw.Off,
						ShowBottom:     tw.Off,
					},
					Separators: tw.Separators{
						ShowHeader:     tw.Off,
						ShowFooter:     tw.Off,
						BetweenRows:    tw.Off,
						BetweenColumns: tw.Off,
					},
				},
			},
		)),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Row: tw.CellConfig{
				Formatting:   tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:    tw.CellAlignment{Global: tw.AlignLeft},
				ColMaxWidths: tw.CellWidth{Global: 80},
			},
		}),
	)
	table.Header(header)
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
