package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/AlexLem84/east-idaho-news-app/internal/fetch"
	"github.com/AlexLem84/east-idaho-news-app/internal/model"
	"github.com/AlexLem84/east-idaho-news-app/internal/realtime"
)

// emptyHint is shown for both empty and failed queries; the two look the
// same from here.
const emptyHint = "No articles. Press r to retry."

const (
	authorColWidth = 18
	ageColWidth    = 8
)

// TimeBand returns a display string for grouping items by age.
func TimeBand(published, now time.Time) string {
	age := now.Sub(published)
	switch {
	case age < 15*time.Minute:
		return "Just Now"
	case age < 1*time.Hour:
		return "Past Hour"
	case age < 24*time.Hour:
		return "Today"
	case age < 48*time.Hour:
		return "Yesterday"
	default:
		return "Older"
	}
}

// RenderStream renders the article list with time bands, scrolled so the
// cursor is visible.
func RenderStream(items []model.ContentItem, cursor int, width, height int, now time.Time) string {
	if len(items) == 0 {
		return HelpStyle.Render(emptyHint) + "\n"
	}

	availableHeight := height
	if availableHeight < 1 {
		availableHeight = 1
	}

	scrollOffset := calcScrollOffset(items, cursor, availableHeight, now)

	var b strings.Builder
	currentBand := ""
	if scrollOffset > 0 {
		currentBand = TimeBand(items[scrollOffset-1].Published, now)
	}
	renderedLines := 0

	for i := scrollOffset; i < len(items) && renderedLines < availableHeight; i++ {
		band := TimeBand(items[i].Published, now)
		if band != currentBand {
			currentBand = band
			b.WriteString(TimeBandHeader.Render(band))
			b.WriteString("\n")
			renderedLines++
			if renderedLines >= availableHeight {
				break
			}
		}

		b.WriteString(renderItemLine(items[i], i == cursor, width, now))
		b.WriteString("\n")
		renderedLines++
	}

	return b.String()
}

// calcScrollOffset finds the smallest item index such that all visible lines
// from that index through the cursor (including band headers) fit within
// availableHeight.
func calcScrollOffset(items []model.ContentItem, cursor, availableHeight int, now time.Time) int {
	if len(items) == 0 || cursor < 0 {
		return 0
	}
	if cursor >= len(items) {
		cursor = len(items) - 1
	}

	offset := 0
	if cursor >= availableHeight {
		offset = cursor - availableHeight + 1
	}
	for offset <= cursor {
		if visibleLineCount(items, offset, cursor, now) <= availableHeight {
			return offset
		}
		offset++
	}
	return cursor
}

// visibleLineCount counts how many rendered lines items[from..to] would
// produce, including any band headers that appear within that range.
func visibleLineCount(items []model.ContentItem, from, to int, now time.Time) int {
	lines := 0
	currentBand := ""
	if from > 0 {
		currentBand = TimeBand(items[from-1].Published, now)
	}
	for i := from; i <= to && i < len(items); i++ {
		if band := TimeBand(items[i].Published, now); band != currentBand {
			currentBand = band
			lines++
		}
		lines++
	}
	return lines
}

// renderItemLine renders one article: author column, title, age.
func renderItemLine(item model.ContentItem, selected bool, width int, now time.Time) string {
	author := runewidth.FillRight(runewidth.Truncate(item.Author, authorColWidth-1, "…"), authorColWidth)
	age := runewidth.FillLeft(formatAgeShort(item.Published, now), ageColWidth)

	// 2 for item padding, 1 space on each side of the title.
	titleWidth := width - authorColWidth - ageColWidth - 4
	if titleWidth < 20 {
		titleWidth = 20
	}
	title := runewidth.FillRight(runewidth.Truncate(item.PlainTitle(), titleWidth, "…"), titleWidth)

	if selected {
		return SelectedItem.Render(author + " " + title + " " + age)
	}
	authorStyle := lipgloss.NewStyle().Foreground(authorColor(item.Author))
	return authorStyle.Render(author) + NormalItem.Render(title) + MetaItem.Render(age)
}

// formatAgeShort is a compact relative time for list rows.
func formatAgeShort(published, now time.Time) string {
	if published.IsZero() {
		return ""
	}
	age := now.Sub(published)
	switch {
	case age < time.Minute:
		return "now"
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}

// authorColor picks a stable palette color per author.
func authorColor(name string) lipgloss.Color {
	palette := []lipgloss.Color{
		lipgloss.Color("62"),
		lipgloss.Color("69"),
		lipgloss.Color("39"),
		lipgloss.Color("141"),
		lipgloss.Color("208"),
		lipgloss.Color("75"),
		lipgloss.Color("99"),
		lipgloss.Color("212"),
	}
	sum := 0
	for i := 0; i < len(name); i++ {
		sum += int(name[i])
	}
	return palette[sum%len(palette)]
}

// RenderHeader shows the active query and the server total.
func RenderHeader(f fetch.Filter, total int, cached bool, width int) string {
	category := f.Category
	if category == "" {
		category = "All news"
	}
	parts := []string{category}
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("%q", f.Search))
	}
	left := strings.Join(parts, " · ")

	right := fmt.Sprintf("%d articles", total)
	if cached {
		right = CachedBadge.Render("cached") + " " + right
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return HeaderBar.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

// RenderBanner announces the latest realtime update.
func RenderBanner(u realtime.Update, unseen int, width int) string {
	style := UpdateBanner
	label := "NEW"
	switch u.Type {
	case realtime.BreakingNews:
		style = BreakingBanner
		label = "BREAKING"
	case realtime.UpdatedArticle:
		label = "UPDATED"
	}

	more := ""
	if unseen > 1 {
		more = fmt.Sprintf("  (+%d more, u to refresh)", unseen-1)
	} else {
		more = "  (u to refresh)"
	}
	textWidth := width - len(label) - runewidth.StringWidth(more) - 4
	if textWidth < 10 {
		textWidth = 10
	}
	title := runewidth.Truncate(u.Item.PlainTitle(), textWidth, "…")
	return style.Width(width).Render(label + ": " + title + more)
}

// RenderStatusBar renders the bottom status bar with paging and key hints.
func RenderStatusBar(cursor, count, page int, hasMore bool, width int, loading bool, spin string) string {
	var position string
	switch {
	case loading:
		position = " " + spin + " Loading... "
	case count == 0:
		position = fmt.Sprintf(" p%d ", page)
	default:
		position = fmt.Sprintf(" %d/%d  p%d ", cursor+1, count, page)
	}

	keys := []string{
		StatusBarKey.Render("j/k") + StatusBarText.Render(":nav"),
		StatusBarKey.Render("Enter") + StatusBarText.Render(":read"),
		StatusBarKey.Render("/") + StatusBarText.Render(":search"),
		StatusBarKey.Render("c") + StatusBarText.Render(":category"),
	}
	if hasMore {
		keys = append(keys, StatusBarKey.Render("n")+StatusBarText.Render(":next"))
	}
	if page > 1 {
		keys = append(keys, StatusBarKey.Render("p")+StatusBarText.Render(":prev"))
	}
	keys = append(keys,
		StatusBarKey.Render("r")+StatusBarText.Render(":refresh"),
		StatusBarKey.Render("q")+StatusBarText.Render(":quit"),
	)
	keyHints := strings.Join(keys, " ")

	padding := width - lipgloss.Width(position) - lipgloss.Width(keyHints) - 2
	if padding < 0 {
		padding = 0
	}
	return StatusBar.Width(width).Render(position + strings.Repeat(" ", padding) + keyHints)
}
