package enrich

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ktrnka/seattle-outdoor-volunteering/internal/event"
)

// maxDescriptionRunes bounds the stored description so one verbose page does
// not dominate the table.
const maxDescriptionRunes = 2000

// DetailPage holds the fields scraped from one event detail page.
type DetailPage struct {
	Description     *string
	ContactName     *string
	ContactEmail    *string
	RegistrationURL *string
}

// ParseDetailPage extracts enrichment fields from a detail page body. Pages
// vary per source, so every field is optional; an empty result is not an
// error.
func ParseDetailPage(body string) (DetailPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return DetailPage{}, fmt.Errorf("parse detail page: %w", err)
	}

	var page DetailPage
	page.Description = extractDescription(doc)
	page.ContactName, page.ContactEmail = extractContact(doc)
	page.RegistrationURL = extractRegistrationURL(doc)
	return page, nil
}

func extractDescription(doc *goquery.Document) *string {
	for _, selector := range []string{
		"div.event-description",
		"div.description",
		"section.description",
		"meta[property='og:description']",
	} {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := sel.Text()
		if strings.HasPrefix(selector, "meta") {
			text, _ = sel.Attr("content")
		}
		if trimmed := collapseWhitespace(text); trimmed != "" {
			return strPtr(truncateRunes(trimmed, maxDescriptionRunes))
		}
	}

	// Fall back to the paragraphs following the page heading.
	var parts []string
	doc.Find("h1 ~ p, h2 ~ p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if text := collapseWhitespace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
		return len(parts) < 3
	})
	if len(parts) == 0 {
		return nil
	}
	return strPtr(truncateRunes(strings.Join(parts, "\n\n"), maxDescriptionRunes))
}

func extractContact(doc *goquery.Document) (name, email *string) {
	doc.Find("a[href^='mailto:']").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		addr = strings.TrimSpace(addr)
		if addr == "" || !strings.Contains(addr, "@") {
			return true
		}
		email = strPtr(strings.ToLower(addr))
		if text := collapseWhitespace(sel.Text()); text != "" && !strings.Contains(text, "@") {
			name = strPtr(text)
		}
		return false
	})
	return name, email
}

func extractRegistrationURL(doc *goquery.Document) *string {
	var registration *string
	doc.Find("a[href*='greencitypartnerships.org/event/'], a.register, a.registration-link").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		normalized, err := event.NormalizeURL(href)
		if err != nil {
			return true
		}
		registration = strPtr(normalized)
		return false
	})
	return registration
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func strPtr(s string) *string {
	return &s
}
