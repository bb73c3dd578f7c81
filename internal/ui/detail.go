package ui

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/AlexLem84/east-idaho-news-app/internal/model"
)

// RenderDetail renders one article: headline, byline, image, excerpt, link.
func RenderDetail(item model.ContentItem, image string, width, height int, now time.Time) string {
	bodyWidth := width - 4
	if bodyWidth < 20 {
		bodyWidth = 20
	}

	var b strings.Builder
	b.WriteString(DetailTitle.Width(width).Render(item.PlainTitle()))
	b.WriteString("\n")

	byline := item.Author
	if !item.Published.IsZero() {
		byline += " · " + humanize.RelTime(item.Published, now, "ago", "from now")
	}
	b.WriteString(DetailMeta.Render(byline))
	b.WriteString("\n")

	if image != "" {
		b.WriteString(DetailMeta.Render("Image: " + image))
		b.WriteString("\n")
	}

	excerpt := item.PlainExcerpt()
	if excerpt == "" {
		excerpt = model.PlainText(item.Content)
	}
	if excerpt != "" {
		b.WriteString(DetailBody.Width(width).Render(excerpt))
		b.WriteString("\n")
	}

	if item.Link != "" {
		b.WriteString(DetailLink.Render(item.Link))
		b.WriteString("\n")
	}

	lines := strings.Split(b.String(), "\n")
	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}
