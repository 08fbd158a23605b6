package http

import (
	"html/template"
	"strings"

	"igreja/internal/core"
)

// formatReais formats an amount for display (e.g., "R$ 1.234,56").
func formatReais(m core.Money) string {
	return m.BRL()
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// barWidth scales v against max to a percentage, keeping small non-zero
// values visible.
func barWidth(v, max int64) int {
	if max <= 0 || v <= 0 {
		return 0
	}
	width := int((v*100 + max/2) / max)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

var templateFuncs = template.FuncMap{
	"reais": formatReais,
	"slot": func(r core.AttendanceRecord, i int) core.Slot {
		if i < 0 || i >= len(r.Slots) {
			return core.Slot{}
		}
		return r.Slots[i]
	},
}
