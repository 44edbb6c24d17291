package handlers

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// formatDuration renders whole seconds the way the bot displays lesson
// lengths: "1ч 5м 3с", "5м 3с" or "3с".
func formatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dч %dм %dс", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dм %dс", m, s)
	default:
		return fmt.Sprintf("%dс", s)
	}
}

// formatSize renders a byte count for humans ("14.4 MiB").
func formatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
