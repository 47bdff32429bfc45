package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/holobase-labs/seqpack-cli/internal/core/domain"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driving"
)

var (
	renderHeaderStyle  = lipgloss.NewStyle().Bold(true)
	renderWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	renderErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// renderSummary renders the final run table: one row per acquisition with
// its processed/failed counts, followed by totals and warnings.
func renderSummary(summary *domain.RunSummary) string {
	var b strings.Builder

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ACQUISITION", "FRAMES", "FAILED", "SEQUENCES", "LIDAR", "WARNINGS")
	for i := range summary.Reports {
		report := &summary.Reports[i]
		t.Row(
			report.AcquisitionID,
			strconv.Itoa(report.FramesProcessed),
			strconv.Itoa(report.FramesFailed),
			strconv.Itoa(report.SequencesEmitted),
			strconv.Itoa(report.LidarCopied),
			strconv.Itoa(len(report.Warnings)),
		)
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	fmt.Fprintf(&b, "Run %s %s: %d frame(s) processed, %d failed, %d warning(s). Elapsed %s.\n",
		summary.RunID, summary.Status,
		summary.TotalProcessed(), summary.TotalFailed(), summary.TotalWarnings(),
		summary.FinishedAt.Sub(summary.StartedAt).Round(10*time.Millisecond))

	for _, warning := range summary.Warnings {
		b.WriteString(renderWarningStyle.Render(fmt.Sprintf("  [%s] %s", warning.Kind, warning.Message)))
		b.WriteString("\n")
	}
	for i := range summary.Reports {
		report := &summary.Reports[i]
		for _, warning := range report.Warnings {
			line := fmt.Sprintf("  [%s] %s: %s", warning.Kind, report.AcquisitionID, warning.Message)
			if warning.Kind == domain.WarningFrameWrite || warning.Kind == domain.WarningFrameRead {
				b.WriteString(renderErrorStyle.Render(line))
			} else {
				b.WriteString(renderWarningStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderPlan renders the dry-run preview: the acquisitions a run would
// produce, with their sequences and frame counts, without writing anything.
func renderPlan(plan *driving.RunPlan) string {
	var b strings.Builder
	b.WriteString(renderHeaderStyle.Render("Plan (no output written)"))
	b.WriteString("\n")

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ACQUISITION", "SEQUENCE", "GROUP", "FRAMES", "UNTIMED")
	for i := range plan.Acquisitions {
		acq := &plan.Acquisitions[i]
		for j := range acq.Sequences {
			seq := &acq.Sequences[j]
			untimed := 0
			for k := range seq.Frames {
				if seq.Frames[k].UnorderedByTime() {
					untimed++
				}
			}
			group := seq.Group
			if group == "" {
				group = "."
			}
			t.Row(acq.ID(), seq.ID(), group, strconv.Itoa(len(seq.Frames)), strconv.Itoa(untimed))
		}
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	totalFrames := 0
	for i := range plan.Acquisitions {
		totalFrames += plan.Acquisitions[i].FrameCount()
	}
	fmt.Fprintf(&b, "%d acquisition(s), %d frame(s).\n", len(plan.Acquisitions), totalFrames)

	for _, warning := range plan.Warnings {
		b.WriteString(renderWarningStyle.Render(fmt.Sprintf("  [%s] %s", warning.Kind, warning.Message)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderHistory renders recorded runs, newest first.
func renderHistory(runs []domain.RunSummary) string {
	if len(runs) == 0 {
		return "No recorded runs.\n"
	}
	var b strings.Builder
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN", "STARTED", "STATUS", "ACQUISITIONS", "FRAMES", "FAILED")
	for i := range runs {
		run := &runs[i]
		t.Row(
			run.RunID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			string(run.Status),
			strconv.Itoa(len(run.Reports)),
			strconv.Itoa(run.TotalProcessed()),
			strconv.Itoa(run.TotalFailed()),
		)
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}
