package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	defaultBarWidth = 30
	minBarWidth     = 5
)

// barChart renders one horizontal bar per bucket. Bars share the scale
// given by top so the true and noised charts can be compared directly.
// Negative values render as an empty bar.
func barChart(title string, labels []string, values []int64, top int64, width int, bar, head lipgloss.Style) string {
	labelW := 0
	for _, l := range labels {
		labelW = max(labelW, len(l))
	}
	valueW := 1
	for _, v := range values {
		valueW = max(valueW, len(fmt.Sprint(v)))
	}

	var sb strings.Builder
	sb.WriteString(head.Render(title))
	sb.WriteString("\n")
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		n := 0
		if top > 0 && v > 0 {
			n = min(width, int(float64(v)/float64(top)*float64(width)))
			if n == 0 {
				n = 1
			}
		}
		fmt.Fprintf(&sb, "%*s %s%s %*d\n",
			labelW, label,
			bar.Render(strings.Repeat("█", n)),
			strings.Repeat(" ", width-n),
			valueW, v)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// chartScale returns the largest positive value across both vectors.
func chartScale(a, b []int64) int64 {
	var m int64
	for _, v := range a {
		if v > m {
			m = v
		}
	}
	for _, v := range b {
		if v > m {
			m = v
		}
	}
	return m
}
