package ollama

import (
	"fmt"
	"strings"

	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/profile"
)

const maxSnippet = 6000

// buildExtractionPrompt is schema-first: the target fields and the output
// shape come before the document text, with the profile's few-shot
// examples in between.
func buildExtractionPrompt(prof *profile.Profile, parse *domain.ParseResult) string {
	var b strings.Builder

	b.WriteString("You extract technical specification values from vendor documents.\n")
	fmt.Fprintf(&b, "Document domain: %s.\n\n", prof.Domain)

	b.WriteString("Target fields:\n")
	for _, field := range prof.ActiveFields {
		line := fmt.Sprintf("- %s (%s)", field.Field, field.DisplayLabel)
		if target, ok := prof.UnitTargets[field.Field]; ok {
			line += fmt.Sprintf(", preferred unit %s", target)
		}
		if field.Required {
			line += ", required"
		}
		b.WriteString(line + "\n")
	}

	b.WriteString(`
Return a strict JSON object:
{"fields":[{"label":"<field or raw label>","value":<number|string|boolean>,"unit":"<unit or empty>","confidence":<0..1>,"context":"<short source quote>","page":<page number>}]}
Only values literally present in the document. No markdown, no extra keys, no commentary.
`)

	if len(prof.FewShot) > 0 {
		b.WriteString("\nExamples:\n")
		for _, example := range prof.FewShot {
			fmt.Fprintf(&b, "Input: %s\nOutput: %s\n", example.Input, example.Output)
		}
	}

	b.WriteString("\nDocument:\n")
	b.WriteString(documentSnippet(parse))
	return b.String()
}

// documentSnippet concatenates text blocks up to the prompt budget,
// keeping page markers so the model can report page references.
func documentSnippet(parse *domain.ParseResult) string {
	var b strings.Builder
	lastPage := -1
	for _, block := range parse.TextBlocks {
		if block.Page != lastPage {
			fmt.Fprintf(&b, "[page %d]\n", block.Page)
			lastPage = block.Page
		}
		b.WriteString(block.Text)
		b.WriteString("\n")
		if b.Len() >= maxSnippet {
			break
		}
	}
	snippet := b.String()
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}
	return snippet
}
