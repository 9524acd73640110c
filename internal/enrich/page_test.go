package enrich

import (
	"strings"
	"testing"
)

func TestParseDetailPageEmptyBody(t *testing.T) {
	t.Parallel()

	page, err := ParseDetailPage("<html><body></body></html>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if page.Description != nil || page.ContactEmail != nil || page.RegistrationURL != nil {
		t.Errorf("expected empty result, got %+v", page)
	}
}

func TestParseDetailPageMetaDescriptionFallback(t *testing.T) {
	t.Parallel()

	body := `<html><head>
<meta property="og:description" content="Join us for a work party at Golden Gardens.">
</head><body><h1>Work Party</h1></body></html>`

	page, err := ParseDetailPage(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if page.Description == nil || *page.Description != "Join us for a work party at Golden Gardens." {
		t.Errorf("description = %v", page.Description)
	}
}

func TestParseDetailPageTruncatesLongDescription(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("restore the understory ", 200)
	body := `<html><body><div class="description">` + long + `</div></body></html>`

	page, err := ParseDetailPage(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if page.Description == nil {
		t.Fatal("expected a description")
	}
	if got := len([]rune(*page.Description)); got > maxDescriptionRunes {
		t.Errorf("description length = %d, want <= %d", got, maxDescriptionRunes)
	}
}

func TestParseDetailPageIgnoresMalformedMailto(t *testing.T) {
	t.Parallel()

	body := `<html><body><a href="mailto:">empty</a><a href="mailto:not-an-email">x</a></body></html>`

	page, err := ParseDetailPage(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if page.ContactEmail != nil {
		t.Errorf("contact email = %v, want nil", page.ContactEmail)
	}
}
