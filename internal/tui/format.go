package tui

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
)

// FormatHours renders fractional hours as "1h 30m", "2h" or "45m".
func FormatHours(h float64) string {
	if !(h > 0) {
		return "0m"
	}
	whole := math.Floor(h)
	minutes := math.Round((h - whole) * 60)
	if minutes == 60 {
		whole++
		minutes = 0
	}
	switch {
	case whole == 0:
		return fmt.Sprintf("%.0fm", minutes)
	case minutes == 0:
		return fmt.Sprintf("%.0fh", whole)
	default:
		return fmt.Sprintf("%.0fh %.0fm", whole, minutes)
	}
}

// ProgressColor buckets a goal percentage: complete, close, halfway, behind.
func ProgressColor(percent float64) lipgloss.Color {
	switch {
	case percent >= 100:
		return successColor
	case percent >= 75:
		return infoColor
	case percent >= 50:
		return warningColor
	default:
		return errorColor
	}
}
