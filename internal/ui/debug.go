package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/AlexLem84/east-idaho-news-app/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders sync-layer stats and recent events.
// Returns empty string if ring is nil; log may be nil.
func debugOverlay(ring *otel.RingBuffer, log *otel.Logger, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)
	now := time.Now()

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Sync Stats"))
	lines = append(lines, fmt.Sprintf("  Fetches:    %d complete, %d errors, %d category misses",
		stats[otel.KindFetchComplete], stats[otel.KindFetchError], stats[otel.KindCategoryMiss]))
	lines = append(lines, fmt.Sprintf("  Cache:      %d hits, %d misses, %d clears",
		stats[otel.KindCacheHit], stats[otel.KindCacheMiss], stats[otel.KindCacheClear]))
	lines = append(lines, fmt.Sprintf("  Polls:      %d complete, %d errors, %d updates",
		stats[otel.KindPollComplete], stats[otel.KindPollError], stats[otel.KindUpdate]))
	lines = append(lines, fmt.Sprintf("  Event log:  %d written, %d dropped, %d buffered",
		log.Written(), log.Dropped(), ring.Len()))
	lines = append(lines, "")

	if updates := ring.LastMatching(string(otel.KindUpdate), 5); len(updates) > 0 {
		lines = append(lines, DebugHeaderStyle.Render("Latest Updates"))
		for _, e := range updates {
			lines = append(lines, fmt.Sprintf("  %6s  post %-8d %s", formatAge(now.Sub(e.Time)), e.PostID, e.Msg))
		}
		lines = append(lines, "")
	}

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-26s", formatAge(now.Sub(e.Time)), string(e.Kind))
		if e.Msg != "" {
			line += "  " + runewidth.Truncate(e.Msg, 40, "…")
		}
		if e.Err != "" {
			line += "  ERR:" + runewidth.Truncate(e.Err, 30, "…")
		}
		lines = append(lines, line)
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 80
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
