package pipeline

import (
	"fmt"
	"strings"

	"sitesmith/internal/ai"
	"sitesmith/pkg/models"
)

// Markup passed back into follow-up prompts is capped so a large home page
// cannot crowd the instructions out of the context window.
const maxEmbeddedMarkup = 6000

func languageName(lang models.Language) string {
	if lang == models.LanguagePersian {
		return "Persian (Farsi)"
	}
	return "English"
}

func writeContextLines(b *strings.Builder, gen models.GenerationContext) {
	fmt.Fprintf(b, "Website description: %s\n", gen.Prompt)
	fmt.Fprintf(b, "Content language: %s\n", languageName(gen.Language))
	if gen.Language.RTL() {
		b.WriteString("The language is written right-to-left; lay the page out accordingly.\n")
	}
	if len(gen.SelectedOptions) > 0 {
		fmt.Fprintf(b, "Requested features: %s\n", strings.Join(gen.SelectedOptions, ", "))
	}
	if gen.ReferenceURL != "" {
		fmt.Fprintf(b, "Take stylistic inspiration from: %s\n", gen.ReferenceURL)
	}
}

func htmlRequest(gen models.GenerationContext) ai.CallRequest {
	var b strings.Builder
	b.WriteString("Generate the complete HTML for the main page (index.html) of a website.\n\n")
	writeContextLines(&b, gen)
	if gen.SiteType == models.SiteTypeMultiPage {
		var links []string
		for _, page := range gen.ExtraPages() {
			links = append(links, models.PageSlug(page)+".html")
		}
		if len(links) > 0 {
			fmt.Fprintf(&b, "This is a multi-page site; the navigation must link to: %s\n", strings.Join(links, ", "))
		}
	} else {
		b.WriteString("This is a single-page site; cover all content in sections on this page.\n")
	}
	if gen.ReferenceImage != "" {
		b.WriteString("A reference image of the desired look is attached; match its layout and mood.\n")
	}
	b.WriteString(`
Requirements:
- Semantic HTML5 with a proper head section
- Reference the stylesheet as styles.css and the script as script.js
- No inline styles and no inline scripts
- Respond with the raw HTML document only, no commentary and no markdown fences`)

	return ai.CallRequest{
		Messages: ai.UserMessage(b.String()),
		Image:    gen.ReferenceImage,
	}
}

func cssRequest(gen models.GenerationContext, html string) ai.CallRequest {
	var b strings.Builder
	b.WriteString("Generate the complete stylesheet (styles.css) for the website whose HTML is shown below.\n\n")
	writeContextLines(&b, gen)
	b.WriteString(`
Requirements:
- Style every class and element the HTML uses
- Responsive layout with a mobile breakpoint
- Respond with raw CSS only, no commentary and no markdown fences

HTML:
`)
	b.WriteString(clipMarkup(html))
	return ai.CallRequest{Messages: ai.UserMessage(b.String())}
}

func jsRequest(gen models.GenerationContext, html string) ai.CallRequest {
	var b strings.Builder
	b.WriteString("Generate the JavaScript (script.js) for the website whose HTML is shown below.\n\n")
	writeContextLines(&b, gen)
	b.WriteString(`
Requirements:
- Wire up the interactive elements present in the HTML (navigation, forms, galleries)
- Plain browser JavaScript, no build step and no external libraries
- Guard every DOM lookup so the script never throws on missing elements
- Respond with raw JavaScript only, no commentary and no markdown fences

HTML:
`)
	b.WriteString(clipMarkup(html))
	return ai.CallRequest{Messages: ai.UserMessage(b.String())}
}

func pageRequest(gen models.GenerationContext, page, homeHTML string) ai.CallRequest {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate the complete HTML for the %q page (%s.html) of an existing website.\n\n",
		page, models.PageSlug(page))
	writeContextLines(&b, gen)
	b.WriteString(`
Requirements:
- Keep the header, navigation and footer consistent with the home page shown below
- Reference the shared styles.css and script.js
- Respond with the raw HTML document only, no commentary and no markdown fences

Home page HTML:
`)
	b.WriteString(clipMarkup(homeHTML))
	return ai.CallRequest{Messages: ai.UserMessage(b.String())}
}

func adminRequest(gen models.GenerationContext, homeHTML string) ai.CallRequest {
	var b strings.Builder
	b.WriteString("Generate the complete HTML for a simple admin dashboard page (admin.html) for the website described below.\n\n")
	writeContextLines(&b, gen)
	b.WriteString(`
Requirements:
- A dashboard layout with summary cards and a content table fitting this site's domain
- Reuse the shared styles.css and script.js
- Static markup only, no backend calls
- Respond with the raw HTML document only, no commentary and no markdown fences

Home page HTML for visual reference:
`)
	b.WriteString(clipMarkup(homeHTML))
	return ai.CallRequest{Messages: ai.UserMessage(b.String())}
}

func seoRequest(gen models.GenerationContext) ai.CallRequest {
	var b strings.Builder
	b.WriteString("Generate SEO metadata for the website described below.\n\n")
	writeContextLines(&b, gen)
	b.WriteString(`
Respond with a single JSON object of this exact shape and nothing else:
{"title": "...", "description": "...", "keywords": "comma, separated, keywords"}
The title must stay under 60 characters and the description under 160.`)
	return ai.CallRequest{
		Messages:  ai.UserMessage(b.String()),
		ForceJSON: true,
	}
}

// correctiveRequest extends the original conversation with the flawed reply
// and one follow-up instruction naming the problem.
func correctiveRequest(req ai.CallRequest, flawed, problem string) ai.CallRequest {
	messages := make([]ai.Message, 0, len(req.Messages)+2)
	messages = append(messages, req.Messages...)
	messages = append(messages,
		ai.Message{Role: ai.RoleModel, Content: flawed},
		ai.Message{Role: ai.RoleUser, Content: problem},
	)
	out := req
	out.Messages = messages
	return out
}

func undersizedProblem(kind models.FileKind) string {
	return fmt.Sprintf(
		"That response is incomplete: the %s content is far too short to be a usable file. Generate the full %s again, complete this time, with no commentary and no markdown fences.",
		kind, kind)
}

const malformedSEOProblem = "That response was not the requested JSON object. Respond again with exactly one JSON object of the shape {\"title\": ..., \"description\": ..., \"keywords\": ...} and nothing else."

func clipMarkup(s string) string {
	if len(s) <= maxEmbeddedMarkup {
		return s
	}
	return s[:maxEmbeddedMarkup] + "\n<!-- truncated -->"
}
