package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatHours(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0m"},
		{-2, "0m"},
		{0.25, "15m"},
		{1, "1h"},
		{1.5, "1h 30m"},
		{3.5, "3h 30m"},
		{2.999, "3h"},
		{10, "10h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatHours(tt.in), "FormatHours(%v)", tt.in)
	}
}

func TestProgressColor(t *testing.T) {
	assert.Equal(t, successColor, ProgressColor(100))
	assert.Equal(t, infoColor, ProgressColor(75))
	assert.Equal(t, warningColor, ProgressColor(50))
	assert.Equal(t, errorColor, ProgressColor(49.9))
	assert.Equal(t, errorColor, ProgressColor(0))
}
