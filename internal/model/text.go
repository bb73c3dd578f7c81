package model

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips HTML tags, decodes entities and collapses whitespace.
// Input that fails to parse is returned with whitespace collapsed.
func PlainText(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return collapseSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapseSpace(html)
	}
	doc.Find("script, style").Remove()
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
