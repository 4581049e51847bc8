package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
)

const excerptLen = 60

func newTable(markdown bool) table.Writer {
	t := table.NewWriter()
	if !markdown {
		t.SetStyle(table.StyleLight)
	}
	return t
}

func render(w io.Writer, t table.Writer, markdown bool) {
	if markdown {
		fmt.Fprintln(w, t.RenderMarkdown())
		return
	}
	fmt.Fprintln(w, t.Render())
}

// renderTestCases prints one row per case. Steps keep their line breaks.
func renderTestCases(w io.Writer, cases []models.TestCase, markdown bool) {
	t := newTable(markdown)
	t.AppendHeader(table.Row{"ID", "Scenario", "Steps", "Expected", "Priority", "Type", "Domain", "Suite", "Status"})
	for _, tc := range cases {
		steps := tc.Steps
		if markdown {
			steps = strings.ReplaceAll(steps, "\n", "<br>")
		}
		t.AppendRow(table.Row{
			tc.ID, tc.Scenario, steps, tc.ExpectedResult,
			tc.Priority, tc.Type, tc.Domain, tc.SuiteType, tc.Status,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 3, WidthMax: 50},
		{Number: 4, WidthMax: 40},
	})
	render(w, t, markdown)
}

func renderHistory(w io.Writer, entries []models.HistoryEntry, markdown bool) {
	t := newTable(markdown)
	t.AppendHeader(table.Row{"ID", "Created", "Cases", "Images", "Requirements"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.ID, e.CreatedAt.Local().Format(time.DateTime), len(e.TestCases), len(e.AttachmentNames), excerpt(e.DocumentText),
		})
	}
	t.AppendFooter(table.Row{"", "Total", len(entries)})
	render(w, t, markdown)
}

func renderJob(w io.Writer, job *models.GenerationJob, markdown bool) {
	t := newTable(markdown)
	t.AppendRow(table.Row{"Job", job.ID})
	t.AppendRow(table.Row{"Status", job.Status})
	t.AppendRow(table.Row{"Priority", job.Priority})
	t.AppendRow(table.Row{"Enqueued", formatTime(job.EnqueuedAt)})
	t.AppendRow(table.Row{"Started", formatTime(job.StartedAt)})
	t.AppendRow(table.Row{"Ended", formatTime(job.EndedAt)})
	if job.EntryID != 0 {
		t.AppendRow(table.Row{"History entry", job.EntryID})
	}
	if job.Error != "" {
		t.AppendRow(table.Row{"Error", job.Error})
	}
	render(w, t, markdown)
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(time.DateTime)
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= excerptLen {
		return s
	}
	return string(r[:excerptLen-3]) + "..."
}
