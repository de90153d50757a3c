package templates

import (
	"strings"
	"testing"
	"unicode/utf8"

	"sitesmith/internal/normalize"
	"sitesmith/pkg/models"
)

func testContext() models.GenerationContext {
	return models.GenerationContext{
		Prompt:   "A cozy neighborhood bakery in Lisbon selling sourdough bread and pastries",
		Language: models.LanguageEnglish,
		SiteType: models.SiteTypeSinglePage,
	}
}

func TestFallbackDeterministic(t *testing.T) {
	t.Parallel()

	ctx := testContext()
	if FallbackHTML(ctx) != FallbackHTML(ctx) {
		t.Error("FallbackHTML is not deterministic")
	}
	if FallbackCSS(ctx) != FallbackCSS(ctx) {
		t.Error("FallbackCSS is not deterministic")
	}
	if FallbackJS(ctx) != FallbackJS(ctx) {
		t.Error("FallbackJS is not deterministic")
	}
	if FallbackSEO(ctx.Prompt, ctx.Language) != FallbackSEO(ctx.Prompt, ctx.Language) {
		t.Error("FallbackSEO is not deterministic")
	}
}

func TestFallbackHTMLReflectsPrompt(t *testing.T) {
	t.Parallel()

	ctx := testContext()
	html := FallbackHTML(ctx)

	if !strings.Contains(html, "cozy neighborhood bakery") {
		t.Error("home page does not carry the prompt excerpt")
	}
	if !strings.Contains(html, `lang="en"`) || !strings.Contains(html, `dir="ltr"`) {
		t.Error("home page missing lang/dir attributes for English")
	}
	for _, ref := range []string{`href="styles.css"`, `src="script.js"`} {
		if !strings.Contains(html, ref) {
			t.Errorf("home page missing asset reference %s", ref)
		}
	}
}

func TestFallbackRTLDirection(t *testing.T) {
	t.Parallel()

	ctx := testContext()
	ctx.Language = models.LanguagePersian
	html := FallbackHTML(ctx)

	if !strings.Contains(html, `lang="fa"`) || !strings.Contains(html, `dir="rtl"`) {
		t.Error("Persian page should declare lang=fa and dir=rtl")
	}
	if !strings.Contains(html, "خوش آمدید") {
		t.Error("Persian page should use localized chrome text")
	}
}

func TestFallbackPageUsesName(t *testing.T) {
	t.Parallel()

	ctx := testContext()
	page := FallbackPage(ctx, "About")

	if !strings.Contains(page, "<h1>About</h1>") {
		t.Error("secondary page should use the page name as heading")
	}
	if !strings.Contains(page, `href="index.html"`) {
		t.Error("secondary page should link back to the home page")
	}
}

func TestFallbackAdminPage(t *testing.T) {
	t.Parallel()

	ctx := testContext()
	admin := FallbackAdminPage(ctx)

	if !strings.Contains(admin, "Admin Dashboard") {
		t.Error("admin page missing dashboard heading")
	}
	if !strings.Contains(admin, `class="data-table"`) {
		t.Error("admin page missing records table")
	}
}

func TestFallbackSEOFromPrompt(t *testing.T) {
	t.Parallel()

	seo := FallbackSEO("Portfolio site for a freelance wildlife photographer", models.LanguageEnglish)

	if !strings.HasPrefix(seo.Title, "Portfolio site") {
		t.Errorf("title should derive from the prompt, got %q", seo.Title)
	}
	if seo.Description == "" {
		t.Error("description should not be empty")
	}
	for _, kw := range []string{"portfolio", "freelance", "wildlife", "photographer"} {
		if !strings.Contains(seo.Keywords, kw) {
			t.Errorf("keywords missing %q: %q", kw, seo.Keywords)
		}
	}
	if strings.Contains(seo.Keywords, "for") {
		t.Errorf("short words should be excluded from keywords: %q", seo.Keywords)
	}
}

func TestSiteTitle(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("travel blog about slow train journeys ", 5)
	title := SiteTitle(long, models.LanguageEnglish)
	if utf8.RuneCountInString(title) > maxTitleRunes {
		t.Errorf("title exceeds %d runes: %q", maxTitleRunes, title)
	}
	collapsed := strings.Join(strings.Fields(long), " ")
	if !strings.HasPrefix(collapsed, title) {
		t.Errorf("title should be a prefix of the prompt: %q", title)
	}
	if collapsed[len(title)] != ' ' {
		t.Errorf("title should end on a word boundary: %q", title)
	}

	if got := SiteTitle("", models.LanguageEnglish); got != "New Website" {
		t.Errorf("empty prompt default = %q", got)
	}
	if got := SiteTitle("   ", models.LanguagePersian); got == "" || got == "New Website" {
		t.Errorf("Persian default should be localized, got %q", got)
	}
}

func TestFallbacksMeetSizeThresholds(t *testing.T) {
	t.Parallel()

	ctx := testContext()
	cases := []struct {
		name    string
		content string
		kind    models.FileKind
	}{
		{"html", FallbackHTML(ctx), models.FileHTML},
		{"page", FallbackPage(ctx, "Contact"), models.FileHTML},
		{"admin", FallbackAdminPage(ctx), models.FileHTML},
		{"css", FallbackCSS(ctx), models.FileCSS},
		{"js", FallbackJS(ctx), models.FileJS},
	}
	for _, tc := range cases {
		if normalize.Undersized(tc.content, tc.kind) {
			t.Errorf("%s fallback is below the minimum size for its kind", tc.name)
		}
	}
}
