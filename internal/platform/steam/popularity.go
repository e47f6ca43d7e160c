package steam

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLPopularity pulls a follower or review count out of a store page.
// It returns 0 when nothing recognizable is present.
type HTMLPopularity struct{}

var followersText = regexp.MustCompile(`(?i)([0-9][0-9,.]*)\s+followers`)

func (HTMLPopularity) Extract(raw []byte) int64 {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return 0
	}

	if v, ok := doc.Find(`meta[itemprop="reviewCount"]`).First().Attr("content"); ok {
		if n := parseCount(v); n > 0 {
			return n
		}
	}

	var found int64
	doc.Find(".user_reviews_count").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = parseCount(s.Text())
		return found == 0
	})
	if found > 0 {
		return found
	}

	if m := followersText.FindStringSubmatch(doc.Text()); m != nil {
		return parseCount(m[1])
	}
	return 0
}

// parseCount keeps only the digits of s, so "1,234" and "(1.234)" both read as 1234.
func parseCount(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
