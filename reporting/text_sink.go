package reporting

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-testreport/templates"
	"github.com/ethereum-optimism/infra/op-testreport/types"
	"github.com/ethereum-optimism/infra/op-testreport/ui"
)

const SummaryFilename = "summary.log"

// TextSummarySink writes a plain text tree of the report
type TextSummarySink struct {
	dir            string
	specRoot       string
	includeDetails bool
}

func NewTextSummarySink(dir, specRoot string, includeDetails bool) *TextSummarySink {
	return &TextSummarySink{dir: dir, specRoot: specRoot, includeDetails: includeDetails}
}

func (s *TextSummarySink) Name() string {
	return "text"
}

func (s *TextSummarySink) Write(_ context.Context, result *types.OverallResult) error {
	if s.dir == "" {
		return ErrNoOutputDir
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.dir, err)
	}
	content := FormatSummary(result, s.specRoot, s.includeDetails)
	if err := os.WriteFile(filepath.Join(s.dir, SummaryFilename), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

// OverallStatus is the status of the whole run in the same precedence the
// HTML view uses for file roots
func OverallStatus(o types.Overview) string {
	c := o.Counts()
	if status := templates.RootStatusClass(&c); status != "" {
		return status
	}
	return "empty"
}

// FormatSummary renders the report as a text tree
func FormatSummary(result *types.OverallResult, specRoot string, includeDetails bool) string {
	var buf bytes.Buffer
	o := result.Overview

	buf.WriteString("Test Results Summary\n")
	buf.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&buf, "Run ID: %s\n", result.RunID)
	if o.Browser != "" {
		fmt.Fprintf(&buf, "Browser: %s\n", o.Browser)
	}
	fmt.Fprintf(&buf, "Duration: %s\n", templates.MsToTime(o.Duration))
	fmt.Fprintf(&buf, "Total Tests: %d\n", o.TestCount)
	fmt.Fprintf(&buf, "Passed: %d\n", o.PassCount)
	fmt.Fprintf(&buf, "Failed: %d\n", o.FailCount)
	fmt.Fprintf(&buf, "Skipped: %d\n", o.SkipCount)
	fmt.Fprintf(&buf, "Unknown: %d\n", o.UnknownCount)
	fmt.Fprintf(&buf, "Status: %s\n\n", strings.ToUpper(OverallStatus(o)))

	buf.WriteString("Test Hierarchy:\n")
	buf.WriteString(strings.Repeat("-", 30) + "\n")

	var failed []string
	for _, root := range result.Suites.Roots() {
		file := templates.ShortFile(root.File, specRoot)
		line := fmt.Sprintf("%s %s (%s)", rootSymbol(root.Counts), root.Title, file)
		if root.Counts != nil {
			line += fmt.Sprintf(" [%d tests, %d passed, %d failed]",
				root.Counts.TestCount, root.Counts.PassCount, root.Counts.FailCount)
		}
		buf.WriteString(line + "\n")
		failed = writeChildren(&buf, root, nil, []string{file, root.Title}, failed, includeDetails)
	}

	if len(failed) > 0 {
		buf.WriteString("\nFailed Tests:\n")
		buf.WriteString(strings.Repeat("-", 20) + "\n")
		for _, f := range failed {
			buf.WriteString("- " + f + "\n")
		}
	}
	return buf.String()
}

// writeChildren writes nested suites then tests of rec, returning the
// failed test paths collected so far
func writeChildren(buf *bytes.Buffer, rec *types.SuiteRecord, parentIsLast []bool, path []string, failed []string, includeDetails bool) []string {
	tests := rec.Tests.All()
	total := len(rec.NestedSuites) + len(tests)
	depth := len(parentIsLast) + 1
	i := 0
	for _, child := range rec.NestedSuites {
		isLast := i == total-1
		i++
		fmt.Fprintf(buf, "%s%s\n", ui.BuildTreePrefix(depth, isLast, parentIsLast), child.Title)
		childPath := append(append([]string(nil), path...), child.Title)
		failed = writeChildren(buf, child, append(append([]bool(nil), parentIsLast...), isLast), childPath, failed, includeDetails)
	}
	for _, t := range tests {
		isLast := i == total-1
		i++
		prefix := ui.BuildTreePrefix(depth, isLast, parentIsLast)
		fmt.Fprintf(buf, "%s%s %s (%s)\n", prefix, stateSymbol(t.State), t.Title, templates.MsToTime(t.Duration))
		if t.State != types.TestStateFail {
			continue
		}
		entry := strings.Join(append(append([]string(nil), path...), t.Title), " > ")
		if t.Error != nil {
			if includeDetails {
				fmt.Fprintf(buf, "%sError: %s\n", strings.Repeat(" ", len([]rune(prefix))+2), t.Error.Message)
			}
			entry += fmt.Sprintf(" (Error: %s)", t.Error.Message)
		}
		failed = append(failed, entry)
	}
	return failed
}

func stateSymbol(s types.TestState) string {
	switch s {
	case types.TestStatePass:
		return ui.SymbolPass
	case types.TestStateFail:
		return ui.SymbolFail
	case types.TestStatePending:
		return ui.SymbolSkip
	default:
		return ui.SymbolUnknown
	}
}

func rootSymbol(c *types.AggregateCount) string {
	switch templates.RootStatusClass(c) {
	case "fail":
		return ui.SymbolFail
	case "skip":
		return ui.SymbolSkip
	case "pass":
		return ui.SymbolPass
	default:
		return ui.SymbolUnknown
	}
}

// FormatTable renders one row per file root as a console table
func FormatTable(result *types.OverallResult, title, specRoot string) string {
	var buf bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"FILE", "SUITE", "DURATION", "TESTS", "PASSED", "FAILED", "SKIPPED", "UNKNOWN", "STATUS"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "FILE", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "DURATION", Align: text.AlignRight},
		{Name: "TESTS", Align: text.AlignRight},
		{Name: "PASSED", Align: text.AlignRight},
		{Name: "FAILED", Align: text.AlignRight},
		{Name: "SKIPPED", Align: text.AlignRight},
		{Name: "UNKNOWN", Align: text.AlignRight},
	})

	for _, root := range result.Suites.Roots() {
		var c types.AggregateCount
		if root.Counts != nil {
			c = *root.Counts
		}
		status := templates.RootStatusClass(&c)
		if status == "" {
			status = "empty"
		}
		t.AppendRow(table.Row{
			templates.ShortFile(root.File, specRoot),
			root.Title,
			templates.MsToTime(root.Duration),
			c.TestCount, c.PassCount, c.FailCount, c.SkipCount, c.UnknownCount,
			strings.ToUpper(status),
		})
	}

	o := result.Overview
	overall := OverallStatus(o)
	switch overall {
	case "fail":
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case "skip", "unknown_state":
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	case "pass":
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	default:
		t.SetStyle(table.StyleDefault)
	}
	t.AppendFooter(table.Row{
		"TOTAL", "", templates.MsToTime(o.Duration),
		o.TestCount, o.PassCount, o.FailCount, o.SkipCount, o.UnknownCount,
		strings.ToUpper(overall),
	})
	t.Render()
	return buf.String()
}

// PrintTable writes the console table to w
func PrintTable(w io.Writer, result *types.OverallResult, title, specRoot string) error {
	_, err := io.WriteString(w, FormatTable(result, title, specRoot))
	return err
}
