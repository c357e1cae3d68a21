package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/terminwatch/internal/probe"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON:
		return nil
	default:
		return &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf("unknown output format %q, want %s or %s", format, outputTable, outputJSON)}
	}
}

// classificationReport is the machine readable form of a check.
type classificationReport struct {
	probe.Classification
	DurationMS int64 `json:"duration_ms"`
	ExitCode   int   `json:"exit_code"`
}

func renderClassification(w io.Writer, format string, c probe.Classification, exitCode int) error {
	if format == outputJSON {
		out, err := json.MarshalIndent(classificationReport{
			Classification: c,
			DurationMS:     c.Duration().Milliseconds(),
			ExitCode:       exitCode,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Outcome", c.Outcome})
	t.AppendRow(table.Row{"State", c.State})
	if c.Signature != "" {
		t.AppendRow(table.Row{"Signature", c.Signature})
	}
	if c.Title != "" {
		t.AppendRow(table.Row{"Title", c.Title})
	}
	if d := c.Diagnostic; d != nil {
		t.AppendRow(table.Row{"Failure", d.Kind})
		t.AppendRow(table.Row{"Error", d.Error})
	}
	if !c.StartedAt.IsZero() {
		t.AppendRow(table.Row{"Started", c.StartedAt.Format(time.RFC3339)})
		t.AppendRow(table.Row{"Duration", c.Duration().Round(time.Millisecond)})
	}
	t.AppendRow(table.Row{"Exit code", exitCode})
	t.Render()
	return nil
}
