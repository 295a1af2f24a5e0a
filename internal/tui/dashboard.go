package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/fentz26/hourglass/internal/aggregate"
)

const maxRanked = 8

// renderGoals draws one progress bar per weekly goal.
func renderGoals(th theme, goals []aggregate.CategoryProgress, width int) string {
	var b strings.Builder
	b.WriteString(th.section.Render("Weekly goals") + "\n")
	if len(goals) == 0 {
		b.WriteString(mutedStyle.Render("  No goals this week. Add one with: hourglass goal add") + "\n")
		return b.String()
	}

	barWidth := width - 40
	if barWidth < 10 {
		barWidth = 10
	}
	labelStyle := lipgloss.NewStyle().Width(16)
	for _, g := range goals {
		color := ProgressColor(g.Percent)
		bar := progress.New(
			progress.WithSolidFill(string(color)),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
		)
		label := labelStyle.Render(truncate(g.Category, 15))
		stats := lipgloss.NewStyle().Foreground(color).Render(
			fmt.Sprintf("%3.0f%%  %s / %s", g.Percent, FormatHours(g.CurrentHours), FormatHours(g.TargetHours)))
		b.WriteString("  " + label + bar.ViewAs(g.Percent/100) + "  " + stats + "\n")
	}
	return b.String()
}

// renderRanking lists lifetime category totals, largest first.
func renderRanking(th theme, totals []aggregate.CategoryTotal) string {
	var b strings.Builder
	b.WriteString(th.section.Render("Top categories") + "\n")
	if len(totals) == 0 {
		b.WriteString(mutedStyle.Render("  Nothing logged yet.") + "\n")
		return b.String()
	}
	for i, t := range totals {
		if i == maxRanked {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  … %d more", len(totals)-maxRanked)) + "\n")
			break
		}
		b.WriteString(fmt.Sprintf("  %d. %-16s %8s  %s\n", i+1, truncate(t.Category, 16),
			FormatHours(t.Hours), mutedStyle.Render(fmt.Sprintf("(%d tasks)", t.Count))))
	}
	return b.String()
}

// renderBreakdown draws a horizontal bar per day of the week.
func renderBreakdown(th theme, days []aggregate.DayBreakdown, width int) string {
	var b strings.Builder
	b.WriteString(th.section.Render("Daily hours") + "\n")

	peak := 0.0
	for _, d := range days {
		peak = math.Max(peak, d.Total)
	}
	barWidth := width - 24
	if barWidth < 10 {
		barWidth = 10
	}
	bar := lipgloss.NewStyle().Foreground(th.accent)
	for _, d := range days {
		n := 0
		if peak > 0 {
			n = int(math.Round(d.Total / peak * float64(barWidth)))
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			d.Date.Format("Mon 02"), bar.Render(strings.Repeat("█", n)), mutedStyle.Render(FormatHours(d.Total))))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
