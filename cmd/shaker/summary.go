// # cmd/shaker/summary.go
package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"shaker/internal/core/app"
	"shaker/internal/data/history"
	"shaker/internal/shared/util"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	cycleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

func displayName(r *app.Report, id string) string {
	return util.DisplayPath(filepath.Dir(r.Entry), id)
}

func formatSummary(r *app.Report) string {
	var b strings.Builder
	res := r.Result

	b.WriteString(titleStyle.Render("Bundle for "+filepath.Base(r.Entry)) + "\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf(
		"%d modules, %d edges, %d/%d statements kept in %v",
		r.Graph.Len(), len(r.Graph.Edges), res.Included, res.Total, r.Duration.Round(time.Millisecond),
	)) + "\n\n")

	for i, mr := range res.Order {
		total := len(mr.Module.Statements)
		line := fmt.Sprintf("%3d. %s (%d/%d)", i+1, displayName(r, mr.Module.ID), len(mr.Statements), total)
		if len(mr.Statements) == 0 {
			line = statusStyle.Render(line + " shaken")
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	if len(r.Cycles) > 0 {
		b.WriteString(cycleStyle.Render(fmt.Sprintf("%d import cycles:", len(r.Cycles))) + "\n")
		for _, c := range r.Cycles {
			names := make([]string, 0, len(c)+1)
			for _, id := range c {
				names = append(names, displayName(r, id))
			}
			names = append(names, names[0])
			b.WriteString("   " + strings.Join(names, " -> ") + "\n")
		}
	} else {
		b.WriteString(successStyle.Render("No import cycles found.") + "\n")
	}

	if n := len(r.Warnings); n > 0 {
		b.WriteString(warningStyle.Render(fmt.Sprintf("%d warnings (run with -verbose for details)", n)) + "\n")
	}
	return b.String()
}

func formatChain(r *app.Report, chain []string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Import chain") + "\n")
	for i, id := range chain {
		b.WriteString(fmt.Sprintf("%s%s\n", strings.Repeat("  ", i), displayName(r, id)))
	}
	return b.String()
}

func formatHistory(builds []history.Build) string {
	if len(builds) == 0 {
		return statusStyle.Render("No recorded builds.") + "\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Recent builds") + "\n")
	for _, h := range builds {
		b.WriteString(fmt.Sprintf(
			"%s  %s  %d modules, %d cycles, %d warnings, %d/%d statements, %v\n",
			h.At.Local().Format("2006-01-02 15:04:05"),
			h.Entry,
			h.Modules, h.Cycles, h.Warnings, h.Included, h.Statements,
			h.Duration,
		))
	}
	return b.String()
}
