package service

import (
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"mailforge/internal/model"
)

// Component types understood by the preview renderer.
const (
	ComponentHeading = "heading"
	ComponentText    = "text"
	ComponentButton  = "button"
	ComponentImage   = "image"
	ComponentDivider = "divider"
	ComponentSpacer  = "spacer"
	ComponentHTML    = "html"
)

// Preview is a rendered template body.
type Preview struct {
	TemplateID uuid.UUID `json:"templateId"`
	Name       string    `json:"name"`
	Subject    string    `json:"subject"`
	HTML       string    `json:"html"`
}

// PreviewRenderer turns template components into a sanitized HTML email body.
type PreviewRenderer struct {
	policy *bluemonday.Policy
}

// NewPreviewRenderer builds a renderer with a UGC policy widened for email layout markup.
func NewPreviewRenderer() *PreviewRenderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("p", "br", "div", "span", "h1", "h2", "h3", "h4", "h5", "h6")
	policy.AllowElements("table", "thead", "tbody", "tr", "th", "td", "hr")
	policy.AllowAttrs("href").OnElements("a")
	policy.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	policy.AllowAttrs("class", "id").Globally()
	policy.AllowAttrs("style").OnElements("span", "div", "p", "a", "td", "table", "hr")
	policy.AllowAttrs("align", "width", "cellpadding", "cellspacing").OnElements("table", "td")
	policy.RequireParseableURLs(true)
	policy.AllowURLSchemes("http", "https", "mailto")

	return &PreviewRenderer{policy: policy}
}

// Render renders components in order. Unknown component types are skipped.
func (r *PreviewRenderer) Render(template *model.Template) *Preview {
	var b strings.Builder
	b.WriteString(`<div class="mf-email">`)
	for _, c := range template.Components {
		r.renderComponent(&b, c)
	}
	b.WriteString(`</div>`)

	return &Preview{
		TemplateID: template.ID,
		Name:       template.Name,
		Subject:    template.Subject,
		HTML:       r.policy.Sanitize(b.String()),
	}
}

func (r *PreviewRenderer) renderComponent(b *strings.Builder, c model.Component) {
	switch c.Type {
	case ComponentHeading:
		level := propInt(c.Props, "level", 2)
		if level < 1 || level > 6 {
			level = 2
		}
		fmt.Fprintf(b, "<h%d>%s</h%d>", level, html.EscapeString(c.Content), level)
	case ComponentText:
		for _, line := range strings.Split(c.Content, "\n\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			text := strings.ReplaceAll(html.EscapeString(line), "\n", "<br>")
			fmt.Fprintf(b, "<p>%s</p>", text)
		}
	case ComponentButton:
		href := propString(c.Props, "url", "#")
		fmt.Fprintf(b, `<p><a href="%s" class="mf-button">%s</a></p>`, html.EscapeString(href), html.EscapeString(c.Content))
	case ComponentImage:
		src := propString(c.Props, "src", c.Content)
		if src == "" {
			return
		}
		alt := propString(c.Props, "alt", "")
		fmt.Fprintf(b, `<img src="%s" alt="%s">`, html.EscapeString(src), html.EscapeString(alt))
	case ComponentDivider:
		b.WriteString("<hr>")
	case ComponentSpacer:
		height := propInt(c.Props, "height", 16)
		if height < 0 {
			height = 0
		}
		fmt.Fprintf(b, `<div class="mf-spacer" style="height: %dpx"></div>`, height)
	case ComponentHTML:
		b.WriteString(c.Content)
	}
}

func propString(props map[string]interface{}, key, def string) string {
	if v, ok := props[key].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func propInt(props map[string]interface{}, key string, def int) int {
	switch v := props[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}
