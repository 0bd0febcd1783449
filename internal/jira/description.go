package jira

import "strings"

// RenderDescription converts a rich-text description into markdown-like text.
//
// Each top-level block becomes one line. Headings are prefixed with one '#'
// per level, inline fragments are trimmed and joined by a single space, and
// fragments carrying a strong mark are wrapped in "**". A nil document
// renders as "".
func RenderDescription(doc *Document) string {
	if doc == nil || len(doc.Content) == 0 {
		return ""
	}

	var b strings.Builder
	for _, block := range doc.Content {
		if len(block.Content) == 0 {
			continue
		}

		if block.Type == "heading" && block.Attrs.Level > 0 {
			b.WriteString(strings.Repeat("#", block.Attrs.Level))
			b.WriteString(" ")
		}

		fragments := make([]string, 0, len(block.Content))
		for _, inline := range block.Content {
			if text := renderInline(inline); text != "" {
				fragments = append(fragments, text)
			}
		}
		b.WriteString(strings.Join(fragments, " "))
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}

func renderInline(node Node) string {
	text := strings.TrimSpace(node.Text)
	if text == "" {
		return ""
	}
	for _, mark := range node.Marks {
		if mark.Type == "strong" {
			text = "**" + text + "**"
			break
		}
	}
	return text
}
