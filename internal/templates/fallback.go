// Package templates - Static Fallback Site Content
// Deterministic files served when a generation step cannot be completed by the provider
package templates

import (
	"fmt"
	"strings"
	"unicode"

	"sitesmith/pkg/models"
)

// Fallback content is parameterized only by the user's prompt and language
// (plus the page name for per-page files). Two runs with the same input
// produce byte-identical files.

const maxTitleRunes = 60

// SiteTitle derives a short display title from the prompt text.
func SiteTitle(prompt string, lang models.Language) string {
	title := collapseWhitespace(prompt)
	if title == "" {
		if lang == models.LanguagePersian {
			return "وب‌سایت جدید"
		}
		return "New Website"
	}
	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}
	cut := maxTitleRunes
	for i := maxTitleRunes; i > maxTitleRunes/2; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimSpace(string(runes[:cut]))
}

// FallbackHTML returns the stand-in home page.
func FallbackHTML(ctx models.GenerationContext) string {
	title := SiteTitle(ctx.Prompt, ctx.Language)
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="%s" dir="%s">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%s</title>
  <link rel="stylesheet" href="styles.css">
</head>
<body>
  <header class="site-header">
    <div class="container">
      <span class="brand">%s</span>
    </div>
  </header>
  <main>
    <section class="hero">
      <div class="container">
        <h1>%s</h1>
        <p class="lead">%s</p>
        <a class="button" href="#contact">%s</a>
      </div>
    </section>
    <section class="features">
      <div class="container grid">
        <article class="card">
          <h2>%s</h2>
          <p>%s</p>
        </article>
        <article class="card">
          <h2>%s</h2>
          <p>%s</p>
        </article>
        <article class="card">
          <h2>%s</h2>
          <p>%s</p>
        </article>
      </div>
    </section>
    <section id="contact" class="contact">
      <div class="container">
        <h2>%s</h2>
        <p>%s</p>
      </div>
    </section>
  </main>
  <footer class="site-footer">
    <div class="container">
      <p>%s</p>
    </div>
  </footer>
  <script src="script.js"></script>
</body>
</html>
`,
		ctx.Language, htmlDir(ctx.Language),
		title,
		title,
		uiText(ctx.Language, "welcome"),
		promptExcerpt(ctx.Prompt, 200),
		uiText(ctx.Language, "cta"),
		uiText(ctx.Language, "feature_quality"), uiText(ctx.Language, "feature_quality_body"),
		uiText(ctx.Language, "feature_service"), uiText(ctx.Language, "feature_service_body"),
		uiText(ctx.Language, "feature_trust"), uiText(ctx.Language, "feature_trust_body"),
		uiText(ctx.Language, "contact"),
		uiText(ctx.Language, "contact_body"),
		title,
	)
}

// FallbackPage returns a stand-in secondary page under the given name.
func FallbackPage(ctx models.GenerationContext, page string) string {
	title := SiteTitle(ctx.Prompt, ctx.Language)
	heading := collapseWhitespace(page)
	if heading == "" {
		heading = uiText(ctx.Language, "page")
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="%s" dir="%s">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%s | %s</title>
  <link rel="stylesheet" href="styles.css">
</head>
<body>
  <header class="site-header">
    <div class="container">
      <span class="brand">%s</span>
      <nav><a href="index.html">%s</a></nav>
    </div>
  </header>
  <main>
    <section class="hero">
      <div class="container">
        <h1>%s</h1>
        <p class="lead">%s</p>
      </div>
    </section>
  </main>
  <footer class="site-footer">
    <div class="container">
      <p>%s</p>
    </div>
  </footer>
  <script src="script.js"></script>
</body>
</html>
`,
		ctx.Language, htmlDir(ctx.Language),
		heading, title,
		title,
		uiText(ctx.Language, "home"),
		heading,
		promptExcerpt(ctx.Prompt, 200),
		title,
	)
}

// FallbackAdminPage returns the stand-in admin dashboard.
func FallbackAdminPage(ctx models.GenerationContext) string {
	title := SiteTitle(ctx.Prompt, ctx.Language)
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="%s" dir="%s">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%s | %s</title>
  <link rel="stylesheet" href="styles.css">
</head>
<body class="admin">
  <header class="site-header">
    <div class="container">
      <span class="brand">%s</span>
      <nav><a href="index.html">%s</a></nav>
    </div>
  </header>
  <main>
    <section class="admin-panel">
      <div class="container">
        <h1>%s</h1>
        <div class="grid">
          <article class="card stat"><h2>0</h2><p>%s</p></article>
          <article class="card stat"><h2>0</h2><p>%s</p></article>
          <article class="card stat"><h2>0</h2><p>%s</p></article>
        </div>
        <table class="data-table">
          <thead>
            <tr><th>%s</th><th>%s</th><th>%s</th></tr>
          </thead>
          <tbody>
            <tr><td colspan="3" class="empty">%s</td></tr>
          </tbody>
        </table>
      </div>
    </section>
  </main>
  <script src="script.js"></script>
</body>
</html>
`,
		ctx.Language, htmlDir(ctx.Language),
		uiText(ctx.Language, "admin"), title,
		title,
		uiText(ctx.Language, "home"),
		uiText(ctx.Language, "admin"),
		uiText(ctx.Language, "stat_visits"),
		uiText(ctx.Language, "stat_messages"),
		uiText(ctx.Language, "stat_pages"),
		uiText(ctx.Language, "col_name"), uiText(ctx.Language, "col_date"), uiText(ctx.Language, "col_status"),
		uiText(ctx.Language, "table_empty"),
	)
}

// FallbackCSS returns the stand-in stylesheet.
func FallbackCSS(ctx models.GenerationContext) string {
	fontStack := `"Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif`
	if ctx.Language.RTL() {
		fontStack = `Vazirmatn, Tahoma, "Segoe UI", Arial, sans-serif`
	}
	return fmt.Sprintf(`*, *::before, *::after { box-sizing: border-box; }

:root {
  --color-primary: #2563eb;
  --color-primary-dark: #1d4ed8;
  --color-text: #1f2937;
  --color-muted: #6b7280;
  --color-surface: #ffffff;
  --color-background: #f3f4f6;
}

body {
  margin: 0;
  font-family: %s;
  color: var(--color-text);
  background: var(--color-background);
  line-height: 1.6;
}

.container { max-width: 1100px; margin: 0 auto; padding: 0 1.25rem; }

.site-header {
  background: var(--color-surface);
  border-bottom: 1px solid #e5e7eb;
  padding: 1rem 0;
}
.site-header .container { display: flex; align-items: center; justify-content: space-between; }
.brand { font-size: 1.25rem; font-weight: 700; }
.site-header nav a { color: var(--color-primary); text-decoration: none; }

.hero { padding: 4rem 0; text-align: center; background: var(--color-surface); }
.hero h1 { font-size: 2.25rem; margin: 0 0 1rem; }
.lead { color: var(--color-muted); max-width: 42rem; margin: 0 auto 1.5rem; }

.button {
  display: inline-block;
  background: var(--color-primary);
  color: #fff;
  padding: 0.75rem 1.75rem;
  border-radius: 0.5rem;
  text-decoration: none;
}
.button:hover { background: var(--color-primary-dark); }

.features { padding: 3rem 0; }
.grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(240px, 1fr)); gap: 1.5rem; }
.card {
  background: var(--color-surface);
  border-radius: 0.75rem;
  padding: 1.5rem;
  box-shadow: 0 1px 3px rgba(0, 0, 0, 0.08);
}
.card h2 { margin-top: 0; font-size: 1.15rem; }
.card p { color: var(--color-muted); margin-bottom: 0; }

.contact { padding: 3rem 0; text-align: center; }

.site-footer {
  background: var(--color-text);
  color: #d1d5db;
  padding: 1.5rem 0;
  text-align: center;
  margin-top: 3rem;
}

.admin-panel { padding: 2.5rem 0; }
.stat { text-align: center; }
.stat h2 { font-size: 2rem; margin-bottom: 0.25rem; }
.data-table { width: 100%%; margin-top: 2rem; border-collapse: collapse; background: var(--color-surface); }
.data-table th, .data-table td { padding: 0.75rem 1rem; border-bottom: 1px solid #e5e7eb; text-align: start; }
.data-table .empty { text-align: center; color: var(--color-muted); }

@media (max-width: 640px) {
  .hero h1 { font-size: 1.6rem; }
  .site-header .container { flex-direction: column; gap: 0.5rem; }
}
`, fontStack)
}

// FallbackJS returns the stand-in script.
func FallbackJS(ctx models.GenerationContext) string {
	return `document.addEventListener('DOMContentLoaded', function () {
  // Smooth-scroll for same-page anchors.
  document.querySelectorAll('a[href^="#"]').forEach(function (link) {
    link.addEventListener('click', function (event) {
      var target = document.querySelector(link.getAttribute('href'));
      if (target) {
        event.preventDefault();
        target.scrollIntoView({ behavior: 'smooth' });
      }
    });
  });

  // Mark the footer with the current year when a placeholder is present.
  var footer = document.querySelector('.site-footer p');
  if (footer && footer.textContent.indexOf(String(new Date().getFullYear())) === -1) {
    footer.textContent = '© ' + new Date().getFullYear() + ' ' + footer.textContent;
  }
});
`
}

// FallbackSEO derives placeholder metadata from the prompt text alone.
func FallbackSEO(prompt string, lang models.Language) models.SEO {
	return models.SEO{
		Title:       SiteTitle(prompt, lang),
		Description: promptExcerpt(prompt, 160),
		Keywords:    promptKeywords(prompt, 8),
	}
}

func htmlDir(lang models.Language) string {
	if lang.RTL() {
		return "rtl"
	}
	return "ltr"
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// promptExcerpt returns the leading part of the prompt, cut on a word
// boundary at roughly max runes.
func promptExcerpt(prompt string, max int) string {
	text := collapseWhitespace(prompt)
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := max
	for i := max; i > max/2; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}

// promptKeywords picks up to max distinct words of four or more runes
// from the prompt, in order of first appearance.
func promptKeywords(prompt string, max int) string {
	seen := make(map[string]bool)
	var picked []string
	for _, field := range strings.Fields(prompt) {
		word := strings.ToLower(strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}))
		if len([]rune(word)) < 4 || seen[word] {
			continue
		}
		seen[word] = true
		picked = append(picked, word)
		if len(picked) == max {
			break
		}
	}
	return strings.Join(picked, ", ")
}

// uiText returns the chrome label for the key in the given language,
// falling back to English for unknown keys or languages.
func uiText(lang models.Language, key string) string {
	if lang == models.LanguagePersian {
		if s, ok := faStrings[key]; ok {
			return s
		}
	}
	if s, ok := enStrings[key]; ok {
		return s
	}
	return key
}

var enStrings = map[string]string{
	"welcome":              "Welcome",
	"cta":                  "Get in Touch",
	"home":                 "Home",
	"page":                 "Page",
	"admin":                "Admin Dashboard",
	"contact":              "Contact Us",
	"contact_body":         "We would love to hear from you.",
	"feature_quality":      "Quality",
	"feature_quality_body": "Carefully crafted down to the smallest detail.",
	"feature_service":      "Service",
	"feature_service_body": "Here for you whenever you need us.",
	"feature_trust":        "Trust",
	"feature_trust_body":   "Built on a foundation you can rely on.",
	"stat_visits":          "Visits",
	"stat_messages":        "Messages",
	"stat_pages":           "Pages",
	"col_name":             "Name",
	"col_date":             "Date",
	"col_status":           "Status",
	"table_empty":          "No records yet",
}

var faStrings = map[string]string{
	"welcome":              "خوش آمدید",
	"cta":                  "تماس با ما",
	"home":                 "خانه",
	"page":                 "صفحه",
	"admin":                "پنل مدیریت",
	"contact":              "تماس با ما",
	"contact_body":         "منتظر شنیدن نظرات شما هستیم.",
	"feature_quality":      "کیفیت",
	"feature_quality_body": "با دقت در کوچک‌ترین جزئیات ساخته شده است.",
	"feature_service":      "خدمات",
	"feature_service_body": "هر زمان که نیاز داشته باشید در کنار شما هستیم.",
	"feature_trust":        "اعتماد",
	"feature_trust_body":   "بر پایه‌ای قابل اتکا بنا شده است.",
	"stat_visits":          "بازدیدها",
	"stat_messages":        "پیام‌ها",
	"stat_pages":           "صفحات",
	"col_name":             "نام",
	"col_date":             "تاریخ",
	"col_status":           "وضعیت",
	"table_empty":          "هنوز رکوردی ثبت نشده است",
}
