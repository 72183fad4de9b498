package places

import (
	"time"

	"github.com/go-shiori/go-readability"
)

// WebsiteExcerpt fetches a competitor's website and returns up to maxChars of
// readable text for the dossier prompt. Any failure returns the empty string;
// a website snapshot is best-effort color, never a pipeline dependency.
func WebsiteExcerpt(pageURL string, maxChars int) string {
	if pageURL == "" || maxChars <= 0 {
		return ""
	}
	article, err := readability.FromURL(pageURL, 20*time.Second)
	if err != nil {
		return ""
	}
	text := article.TextContent
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return text
}
