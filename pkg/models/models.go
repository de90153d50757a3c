package models

import "strings"

// Language identifies the language the generated site's visible text is
// written in.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguagePersian Language = "fa"
)

// RTL returns true for languages written right-to-left.
func (l Language) RTL() bool {
	switch l {
	case "fa", "ar", "he":
		return true
	}
	return false
}

// Valid returns true for languages the generator accepts.
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguagePersian
}

// SiteType selects the overall shape of the generated site
type SiteType string

const (
	SiteTypeSinglePage SiteType = "single-page"
	SiteTypeMultiPage  SiteType = "multi-page"
)

// Valid returns true for site types the generator accepts.
func (s SiteType) Valid() bool {
	return s == SiteTypeSinglePage || s == SiteTypeMultiPage
}

// FileKind classifies a generated file's content type
type FileKind string

const (
	FileHTML     FileKind = "html"
	FileCSS      FileKind = "css"
	FileJS       FileKind = "js"
	FileJSON     FileKind = "json"
	FileMarkdown FileKind = "markdown"
)

// GenerationContext captures one user request. It is immutable once built
// and is threaded through every pipeline step unchanged.
type GenerationContext struct {
	Prompt           string   `json:"prompt"`
	Language         Language `json:"language"`
	SiteType         SiteType `json:"site_type"`
	SelectedPages    []string `json:"selected_pages"`    // ordered page identifiers, e.g. home, about, contact
	SelectedOptions  []string `json:"selected_options"`  // optional feature identifiers, e.g. contact-form, gallery
	IncludeAdminPage bool     `json:"include_admin_page"`
	ReferenceURL     string   `json:"reference_url,omitempty"`
	ReferenceImage   string   `json:"reference_image,omitempty"` // base64 data-URI
}

// ExtraPages returns the selected pages that get their own markup file,
// i.e. everything except the home/index page, which is always produced as
// index.html. Only multi-page sites have extra pages; for single-page sites
// the selected pages become sections of the index.
func (g *GenerationContext) ExtraPages() []string {
	if g.SiteType != SiteTypeMultiPage {
		return nil
	}
	var extras []string
	for _, page := range g.SelectedPages {
		slug := PageSlug(page)
		if slug == "" || slug == "home" || slug == "index" {
			continue
		}
		extras = append(extras, page)
	}
	return extras
}

// PageSlug normalizes a page identifier into a filename-safe slug.
func PageSlug(page string) string {
	slug := strings.ToLower(strings.TrimSpace(page))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")
	return slug
}

// GeneratedFile is one file of the produced site. Files are appended to the
// artifact in generation order and never mutated afterwards.
type GeneratedFile struct {
	Path    string   `json:"path"`
	Content string   `json:"content"`
	Kind    FileKind `json:"kind"`
}

// SEO holds the site-level metadata produced by the final pipeline step.
type SEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

// WebsiteArtifact is the terminal output of a generation run: the ordered
// file set plus SEO metadata. It is complete even when every step degraded
// to its static fallback.
type WebsiteArtifact struct {
	Files []GeneratedFile `json:"files"`
	SEO   SEO             `json:"seo"`
}

// FileByPath returns the file with the given path, if present.
func (w *WebsiteArtifact) FileByPath(path string) (GeneratedFile, bool) {
	for _, f := range w.Files {
		if f.Path == path {
			return f, true
		}
	}
	return GeneratedFile{}, false
}
