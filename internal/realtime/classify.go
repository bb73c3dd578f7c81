package realtime

import (
	"strings"
	"time"

	"github.com/AlexLem84/east-idaho-news-app/internal/model"
)

// UpdateType classifies a newly seen post.
type UpdateType string

const (
	NewArticle     UpdateType = "new_article"
	UpdatedArticle UpdateType = "updated_article"
	BreakingNews   UpdateType = "breaking_news"
)

// newWindow is how recently a post must have been published to count as new.
const newWindow = time.Hour

var breakingWords = []string{"breaking", "urgent"}

// Update is delivered to subscribers once per never-seen post.
type Update struct {
	Type      UpdateType
	Item      model.ContentItem
	Timestamp time.Time
}

// Classify decides how a never-seen post is announced. Keywords win over
// age: a breaking post from last week is still breaking.
func Classify(item model.ContentItem, now time.Time) UpdateType {
	title := strings.ToLower(item.PlainTitle())
	body := strings.ToLower(model.PlainText(item.Content))
	for _, w := range breakingWords {
		if strings.Contains(title, w) || strings.Contains(body, w) {
			return BreakingNews
		}
	}
	if !item.Published.IsZero() && now.Sub(item.Published) < newWindow {
		return NewArticle
	}
	return UpdatedArticle
}
