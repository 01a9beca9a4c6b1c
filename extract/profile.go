package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/agentscrape/models"
)

const (
	licenseLabel  = "License #:"
	languageLabel = "Languages:"
)

var specialtyHeadings = []string{"My Specialities", "My Specialties"}

// ParseProfile extracts a detail record from a rendered profile page. The
// returned record always carries profileURL; callers use IsEmpty to detect
// pages that rendered no agent data.
func ParseProfile(rawHTML, profileURL string) (models.AgentRecord, error) {
	rec := models.AgentRecord{ProfileURL: profileURL}

	base, err := url.Parse(profileURL)
	if err != nil {
		return rec, fmt.Errorf("extract: parse profile url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rec, fmt.Errorf("extract: parse profile html: %w", err)
	}
	root := doc.Selection

	rec.Name = firstText(root, selName)
	if rec.Name == "" {
		rec.Name = strings.TrimSpace(root.FindMatcher(selTitle).First().Text())
	}
	rec.Location = firstText(root, selLocation)
	rec.Phone = profilePhone(root)
	rec.Email = profileEmail(root)
	rec.License = profileLicense(root)
	rec.Languages = profileLanguages(root)

	if site := root.FindMatcher(selWebsite).First(); site.Length() > 0 {
		href, _ := site.Attr("href")
		rec.Website = strings.TrimSpace(href)
		if rec.Website == "" {
			rec.Website = strings.TrimSpace(site.Text())
		}
	}
	rec.Facebook = firstAttr(root, selFacebook, "href")
	rec.Instagram = firstAttr(root, selInstagram, "href")

	rec.Bio = firstText(root, selBio)
	if img := root.FindMatcher(selAvatar).First(); img.Length() > 0 {
		rec.ImageURL = imageSource(img, base)
	}
	rec.Specialties = profileSpecialties(root)
	rec.YearsExperience = firstText(root, selExp)
	rec.Office = firstText(root, selOffice)

	return rec, nil
}

func profilePhone(root *goquery.Selection) string {
	link := root.FindMatcher(selPhone).First()
	if link.Length() == 0 {
		return ""
	}
	if text := strings.TrimSpace(link.Text()); text != "" {
		return text
	}
	href, _ := link.Attr("href")
	return strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
}

// profileEmail prefers a mailto link whose text is itself an address; the
// site also renders "Get In Touch" buttons that point at the same mailbox.
func profileEmail(root *goquery.Selection) string {
	links := root.FindMatcher(selEmail)
	if links.Length() == 0 {
		return ""
	}

	var email string
	links.EachWithBreak(func(_ int, link *goquery.Selection) bool {
		text := strings.TrimSpace(link.Text())
		if strings.Contains(text, "@") && !strings.Contains(text, "Get In Touch") {
			email = text
			return false
		}
		return true
	})
	if email != "" {
		return email
	}

	href, _ := links.First().Attr("href")
	addr := strings.TrimPrefix(strings.TrimSpace(href), "mailto:")
	if i := strings.IndexByte(addr, '?'); i >= 0 {
		addr = addr[:i]
	}
	return addr
}

// profileLicense reads the license number from the block labelled
// "License #:". The number sits in a .break-words element inside that block;
// when the markup lacks it, the text after the label is used.
func profileLicense(root *goquery.Selection) string {
	holders := root.FindMatcher(selAny).FilterFunction(func(_ int, el *goquery.Selection) bool {
		return strings.Contains(el.Text(), licenseLabel) && el.FindMatcher(selBreak).Length() > 0
	})
	if holders.Length() > 0 {
		if v := strings.TrimSpace(holders.Last().FindMatcher(selBreak).First().Text()); v != "" {
			return v
		}
	}

	label := innermostContaining(root, licenseLabel).First()
	if label.Length() == 0 {
		return ""
	}
	text := label.Text()
	return strings.TrimSpace(text[strings.Index(text, licenseLabel)+len(licenseLabel):])
}

func profileLanguages(root *goquery.Selection) []string {
	span := root.FindMatcher(selLanguages).FilterFunction(func(_ int, el *goquery.Selection) bool {
		return strings.Contains(el.Text(), languageLabel)
	}).First()
	if span.Length() == 0 {
		return nil
	}

	list := strings.TrimSpace(strings.Replace(span.Text(), languageLabel, "", 1))
	return splitList(list)
}

// profileSpecialties collects the leaf items of the section headed by
// "My Specialities".
func profileSpecialties(root *goquery.Selection) []string {
	for _, heading := range specialtyHeadings {
		h := innermostContaining(root, heading).First()
		if h.Length() == 0 {
			continue
		}

		section := h.Parent()
		var items []string
		section.FindMatcher(selItems).Each(func(_ int, el *goquery.Selection) {
			if el.Children().Length() > 0 {
				return
			}
			text := strings.TrimSpace(el.Text())
			if text == "" || strings.Contains(text, heading) {
				return
			}
			items = append(items, text)
		})
		return items
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
