// Package extract turns rendered directory pages into agent records. It only
// sees HTML: how the page was obtained (rod, Playwright MCP, plain HTTP) is
// the caller's concern.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Selectors are compiled once; a typo panics at init instead of silently
// matching nothing on every request.
var (
	selProfileLink = cascadia.MustCompile(`a[href*="/profile/"]`)
	selImage       = cascadia.MustCompile(`img`)
	selCardText    = cascadia.MustCompile(`div, span, p`)

	selName      = cascadia.MustCompile(`h1, h2, [class*="name"], [class*="Name"]`)
	selLocation  = cascadia.MustCompile(`[class*="location"], [class*="Location"], [class*="address"]`)
	selPhone     = cascadia.MustCompile(`a[href^="tel:"]`)
	selEmail     = cascadia.MustCompile(`a[href^="mailto:"]`)
	selBreak     = cascadia.MustCompile(`.break-words`)
	selLanguages = cascadia.MustCompile(`span.font-telegraf`)
	selWebsite   = cascadia.MustCompile(`a[href*="onereal.com"][target="_blank"]`)
	selFacebook  = cascadia.MustCompile(`a[href*="facebook.com"]`)
	selInstagram = cascadia.MustCompile(`a[href*="instagram.com"]`)
	selBio       = cascadia.MustCompile(`[class*="bio"], [class*="Bio"], [class*="description"], [class*="about"]`)
	selAvatar    = cascadia.MustCompile(`img[alt], img[class*="profile"], img[class*="avatar"]`)
	selItems     = cascadia.MustCompile(`div, span, a, li`)
	selExp       = cascadia.MustCompile(`[class*="experience"], [class*="Experience"], [class*="years"]`)
	selOffice    = cascadia.MustCompile(`[class*="office"], [class*="Office"]`)
	selTitle     = cascadia.MustCompile(`title`)
	selAny       = cascadia.MustCompile(`*`)

	selRosterCard         = cascadia.MustCompile(`#agents-list .agent-card, .agents-list .agent-card, .agent-card`)
	selRosterCardFallback = cascadia.MustCompile(`div[class*="agent"], div[class*="card"]`)
	selRosterName         = cascadia.MustCompile(`h3, h2, h1, [class*="name"]`)
	selRosterField        = cascadia.MustCompile(`p, div, span`)
	selRosterLabel        = cascadia.MustCompile(`.label`)
)

var cityStatePattern = regexp.MustCompile(`^[A-Z][a-z]+,\s*[A-Z]{2}$`)

// firstText returns the trimmed text of the first match under s that has any
// text at all.
func firstText(s *goquery.Selection, m goquery.Matcher) string {
	var text string
	s.FindMatcher(m).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text = strings.TrimSpace(el.Text())
		return text == ""
	})
	return text
}

// firstAttr returns the trimmed attribute of the first match under s.
func firstAttr(s *goquery.Selection, m goquery.Matcher, attr string) string {
	v, _ := s.FindMatcher(m).First().Attr(attr)
	return strings.TrimSpace(v)
}

// innermostContaining returns the deepest elements under s whose text contains
// needle, i.e. those with no child element that also contains it.
func innermostContaining(s *goquery.Selection, needle string) *goquery.Selection {
	return s.FindMatcher(selAny).FilterFunction(func(_ int, el *goquery.Selection) bool {
		if !strings.Contains(el.Text(), needle) {
			return false
		}
		return el.Children().FilterFunction(func(_ int, c *goquery.Selection) bool {
			return strings.Contains(c.Text(), needle)
		}).Length() == 0
	})
}

// lineAfter returns the text following label in text, up to the next line
// break.
func lineAfter(text, label string) string {
	idx := strings.Index(strings.ToLower(text), label)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(text[idx+len(label):])
	if end := strings.IndexAny(rest, "\r\n"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
