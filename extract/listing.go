package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/agentscrape/models"
)

// maxCardDepth bounds how far up from a profile link we look for the card
// that holds the agent's location.
const maxCardDepth = 5

// ParseListing extracts summary records from a rendered search-agent page.
// Each distinct profile link yields one record; relative links are resolved
// against baseURL.
func ParseListing(rawHTML, baseURL string) ([]models.AgentRecord, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("extract: parse base url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("extract: parse listing html: %w", err)
	}

	agents := []models.AgentRecord{}
	seen := make(map[string]struct{})
	doc.FindMatcher(selProfileLink).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		profileURL := resolved.String()
		if _, dup := seen[profileURL]; dup {
			return
		}
		seen[profileURL] = struct{}{}

		rec := models.AgentRecord{ProfileURL: profileURL}

		if img := link.FindMatcher(selImage).First(); img.Length() > 0 {
			alt, _ := img.Attr("alt")
			rec.Name = strings.TrimSpace(alt)
			rec.ImageURL = imageSource(img, base)
		}

		if card := enclosingCard(link); card != nil {
			rec.Location = cardLocation(card)
		}

		agents = append(agents, rec)
	})

	return agents, nil
}

// enclosingCard walks up from the link to the nearest ancestor that is a div
// or carries a "card" class.
func enclosingCard(link *goquery.Selection) *goquery.Selection {
	cur := link
	for range maxCardDepth {
		cur = cur.Parent()
		if cur.Length() == 0 {
			return nil
		}
		class, _ := cur.Attr("class")
		if goquery.NodeName(cur) == "div" || strings.Contains(strings.ToLower(class), "card") {
			return cur
		}
	}
	return cur
}

// cardLocation returns the first "City, ST" shaped text inside the card.
func cardLocation(card *goquery.Selection) string {
	var location string
	card.FindMatcher(selCardText).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text := strings.TrimSpace(el.Text())
		if cityStatePattern.MatchString(text) {
			location = text
			return false
		}
		return true
	})
	return location
}

// imageSource prefers src, falling back to the lazy-load data-src attribute.
func imageSource(img *goquery.Selection, base *url.URL) string {
	src, _ := img.Attr("src")
	src = strings.TrimSpace(src)
	if src == "" {
		src, _ = img.Attr("data-src")
		src = strings.TrimSpace(src)
	}
	if src == "" {
		return ""
	}
	if resolved, err := base.Parse(src); err == nil {
		return resolved.String()
	}
	return src
}
