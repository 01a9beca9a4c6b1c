package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/agentscrape/models"
)

// ParseRoster extracts identity records from the agent roster page served at
// <base>/static/index.html. Only name, email, phone and license are read;
// cards without a name are dropped.
func ParseRoster(rawHTML string) ([]models.AgentRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("extract: parse roster html: %w", err)
	}

	cards := doc.FindMatcher(selRosterCard)
	if cards.Length() == 0 {
		cards = doc.FindMatcher(selRosterCardFallback)
	}

	agents := []models.AgentRecord{}
	cards.Each(func(_ int, card *goquery.Selection) {
		rec := models.AgentRecord{Name: firstText(card, selRosterName)}
		if rec.Name == "" {
			return
		}

		// Outer elements come first in document order, so values read from
		// the innermost element holding a field win.
		card.FindMatcher(selRosterField).Each(func(_ int, el *goquery.Selection) {
			text := el.Text()
			if label := el.FindMatcher(selRosterLabel).First(); label.Length() > 0 {
				labelText := label.Text()
				value := strings.TrimSpace(strings.Replace(text, labelText, "", 1))
				setLabelled(&rec, strings.ToLower(strings.TrimSpace(labelText)), value)
				return
			}
			setInline(&rec, text)
		})

		agents = append(agents, rec)
	})

	return agents, nil
}

func setLabelled(rec *models.AgentRecord, label, value string) {
	switch {
	case strings.Contains(label, "email"):
		rec.Email = value
	case strings.Contains(label, "phone"):
		rec.Phone = value
	case strings.Contains(label, "licence"), strings.Contains(label, "license"):
		rec.License = value
	}
}

// setInline handles cards that render "Email: x" without a .label span.
func setInline(rec *models.AgentRecord, text string) {
	if v := lineAfter(text, "email:"); v != "" {
		rec.Email = v
	}
	if v := lineAfter(text, "phone:"); v != "" {
		rec.Phone = v
	}
	for _, label := range []string{"licence:", "license:"} {
		if v := lineAfter(text, label); v != "" {
			rec.License = v
			break
		}
	}
}
