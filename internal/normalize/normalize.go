// Package normalize cleans raw provider output before it enters an
// artifact: fence stripping, tolerant structured decoding, and the
// minimum-size quality gate.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"sitesmith/pkg/models"
)

// ErrMalformed reports that provider output could not be decoded as the
// declared structure.
var ErrMalformed = errors.New("malformed structured response")

// StripCodeFences removes one leading and one trailing fenced-code marker
// from s. The provider wraps payloads in fences regardless of instructions,
// so parsing always runs on the stripped form. Unfenced input passes
// through unchanged apart from whitespace trimming.
func StripCodeFences(s string) string {
	out := strings.TrimSpace(s)
	if !strings.HasPrefix(out, "```") {
		return out
	}
	out = out[3:]

	if i := strings.IndexByte(out, '\n'); i >= 0 {
		// Drop the opening fence line when it holds only a language tag.
		if fenceTag(strings.TrimSpace(out[:i])) {
			out = out[i+1:]
		}
	} else {
		// Single-line fenced payload.
		return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(out), "```"))
	}

	out = strings.TrimSpace(out)
	out = strings.TrimSuffix(out, "```")
	return strings.TrimSpace(out)
}

// fenceTag reports whether s looks like a fence language tag (json, html,
// css...) rather than payload.
func fenceTag(s string) bool {
	if s == "" {
		return true
	}
	if len(s) > 20 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '+' {
			return false
		}
	}
	return true
}

// seoWire tolerates the shapes providers actually emit: keywords arrive as
// a comma-joined string or as an array.
type seoWire struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Keywords    json.RawMessage `json:"keywords"`
}

func (w seoWire) toSEO() (models.SEO, bool) {
	if strings.TrimSpace(w.Title) == "" {
		return models.SEO{}, false
	}
	seo := models.SEO{Title: w.Title, Description: w.Description}
	if len(w.Keywords) > 0 {
		var single string
		var list []string
		switch {
		case json.Unmarshal(w.Keywords, &single) == nil:
			seo.Keywords = single
		case json.Unmarshal(w.Keywords, &list) == nil:
			seo.Keywords = strings.Join(list, ", ")
		}
	}
	return seo, true
}

// DecodeSEO parses the SEO step's output. Decoding tolerates a fenced
// payload, a single-element array, and a handful of wrapper keys before
// giving up with ErrMalformed.
func DecodeSEO(raw string) (models.SEO, error) {
	text := StripCodeFences(raw)

	var wire seoWire
	if err := json.Unmarshal([]byte(text), &wire); err == nil {
		if seo, ok := wire.toSEO(); ok {
			return seo, nil
		}
	}

	var list []seoWire
	if err := json.Unmarshal([]byte(text), &list); err == nil && len(list) > 0 {
		if seo, ok := list[0].toSEO(); ok {
			return seo, nil
		}
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &wrapped); err == nil {
		for _, key := range []string{"seo", "metadata", "data", "result"} {
			payload, ok := wrapped[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(payload, &wire); err == nil {
				if seo, ok := wire.toSEO(); ok {
					return seo, nil
				}
			}
		}
	}

	return models.SEO{}, fmt.Errorf("%w: no usable SEO object in %q", ErrMalformed, preview(text))
}

func preview(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}

// Minimum acceptable content sizes per artifact kind. Markup carries the
// page structure and needs substance; metadata can be tiny.
var minSizes = map[models.FileKind]int{
	models.FileHTML:     400,
	models.FileCSS:      120,
	models.FileJS:       80,
	models.FileJSON:     30,
	models.FileMarkdown: 80,
}

// MinSize returns the minimum acceptable content size in bytes for kind.
func MinSize(kind models.FileKind) int {
	if n, ok := minSizes[kind]; ok {
		return n
	}
	return 30
}

// Undersized reports whether content fails kind's quality gate.
func Undersized(content string, kind models.FileKind) bool {
	return len(strings.TrimSpace(content)) < MinSize(kind)
}
