package news

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	spaceRe     = regexp.MustCompile(`\s+`)
	titlePunctR = regexp.MustCompile(`[^a-z0-9 ]+`)
)

// CleanText strips markup from feed summaries and collapses whitespace.
func CleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			doc.Find("script, style").Remove()
			s = doc.Text()
		}
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// NormalizeTitle is the key used to collapse syndicated copies of a headline.
func NormalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = titlePunctR.ReplaceAllString(t, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(t, " "))
}
