package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/AlexLem84/east-idaho-news-app/internal/fetch"
	"github.com/AlexLem84/east-idaho-news-app/internal/model"
)

var (
	queryCategory string
	querySearch   string
	queryAfter    string
	queryBefore   string
	queryAuthor   int
	queryPage     int
	queryPerPage  int
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print one page of articles",
	Example: `  eidnews query --category "all sports"
  eidnews query --search "snow" --after 7d
  eidnews query --category crime --page 2 --json`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryCategory, "category", "c", "", "category id, slug or aggregate (\"all sports\", \"all featured\")")
	queryCmd.Flags().StringVarP(&querySearch, "search", "s", "", "full-text search")
	queryCmd.Flags().StringVar(&queryAfter, "after", "", "only posts after this time (RFC 3339, 2006-01-02 or a span like 7d)")
	queryCmd.Flags().StringVar(&queryBefore, "before", "", "only posts before this time")
	queryCmd.Flags().IntVar(&queryAuthor, "author", 0, "author id")
	queryCmd.Flags().IntVarP(&queryPage, "page", "p", 1, "page number")
	queryCmd.Flags().IntVarP(&queryPerPage, "per-page", "n", 0, "posts per page (default source.per_page)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print items as JSON lines")
}

// queryItem is the JSON shape printed by --json.
type queryItem struct {
	ID         int64     `json:"id"`
	Published  time.Time `json:"published"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Categories []int     `json:"categories,omitempty"`
	Link       string    `json:"link"`
	Image      string    `json:"image,omitempty"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	now := time.Now()
	after, err := parseTime(queryAfter, now)
	if err != nil {
		return fmt.Errorf("--after: %w", err)
	}
	before, err := parseTime(queryBefore, now)
	if err != nil {
		return fmt.Errorf("--before: %w", err)
	}
	perPage := queryPerPage
	if perPage == 0 {
		perPage = cfg.Source.PerPage
	}

	svc, err := newServices(cfg, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	f := fetch.Filter{
		Category: queryCategory,
		Search:   querySearch,
		After:    after,
		Before:   before,
		Author:   queryAuthor,
		Page:     queryPage,
		PerPage:  perPage,
	}.Normalize()

	res := svc.page(cmd.Context(), f)
	if res.Err != nil {
		return res.Err
	}

	if queryJSON {
		enc := json.NewEncoder(os.Stdout)
		for _, it := range res.Items {
			if err := enc.Encode(toQueryItem(it)); err != nil {
				return err
			}
		}
		return nil
	}

	if len(res.Items) == 0 {
		fmt.Println("No articles.")
		return nil
	}
	for _, it := range res.Items {
		fmt.Println(formatQueryLine(it, now))
	}
	more := ""
	if res.HasMore {
		more = fmt.Sprintf(", next: --page %d", f.Page+1)
	}
	fmt.Printf("\npage %d · %s of %s posts%s\n",
		f.Page, humanize.Comma(int64(len(res.Items))), humanize.Comma(int64(res.Total)), more)
	return nil
}

func toQueryItem(it model.ContentItem) queryItem {
	return queryItem{
		ID:         it.ID,
		Published:  it.Published,
		Title:      it.PlainTitle(),
		Author:     it.Author,
		Categories: it.Categories,
		Link:       it.Link,
		Image:      it.OriginalImageURL(),
	}
}

const (
	queryTitleWidth  = 64
	queryAuthorWidth = 18
)

// formatQueryLine renders one row: id, age, author and title, padded by
// display width so wide runes line up.
func formatQueryLine(it model.ContentItem, now time.Time) string {
	age := humanize.RelTime(it.Published, now, "ago", "from now")
	if it.Published.IsZero() {
		age = "-"
	}
	author := runewidth.FillRight(runewidth.Truncate(it.Author, queryAuthorWidth, "…"), queryAuthorWidth)
	title := runewidth.Truncate(it.PlainTitle(), queryTitleWidth, "…")
	return strings.TrimRight(fmt.Sprintf("%-8d %-16s %s  %s", it.ID, age, author, title), " ")
}
