package prompt

import (
	"fmt"
	"strings"
)

// Limits the SEO prompt asks the model to respect.
const (
	MaxTitleLen       = 60
	MaxDescriptionLen = 160
	// MaxSnippetLen caps the article content included in the prompt.
	MaxSnippetLen = 1500
)

// SEO builds the prompt for generating a meta title and description. With a
// focus keyword the model must use it and answer with a two-field JSON object;
// without one it must pick a keyword and return it as suggested_keyword.
func SEO(articleTitle, contentSnippet, focusKeyword, siteTitle string) string {
	var b strings.Builder

	b.WriteString("You are an expert SEO copywriter. Your task is to generate an SEO-optimized meta title and description.\n")
	b.WriteString("RULES:\n")
	fmt.Fprintf(&b, "1. The meta title must be compelling and under %d characters total.\n", MaxTitleLen)
	fmt.Fprintf(&b, "2. The generated title must end with a separator and the site title. Example format: 'Generated Title - %s'. You may need to shorten the generated part to fit the character limit.\n", siteTitle)
	fmt.Fprintf(&b, "3. The meta description must be enticing, encourage clicks, and be under %d characters.\n", MaxDescriptionLen)

	if focusKeyword != "" {
		fmt.Fprintf(&b, "4. You MUST naturally incorporate the Focus Keyword '%s' into both the title and the description.\n", focusKeyword)
		b.WriteString(`5. Your response MUST be ONLY a valid JSON object in the format: {"title": "...", "description": "..."}` + "\n")
	} else {
		b.WriteString("4. First, identify the single most relevant 'Focus Keyword' for the article.\n")
		b.WriteString(`5. Your response MUST be ONLY a valid JSON object in the format: {"title": "...", "description": "...", "suggested_keyword": "..."}` + "\n")
	}

	b.WriteString("\n--- ARTICLE DETAILS ---\n")
	fmt.Fprintf(&b, "Site Title: %s\n", siteTitle)
	fmt.Fprintf(&b, "Article Title: %s\n", articleTitle)
	fmt.Fprintf(&b, "Content Snippet: %s\n", truncateRunes(contentSnippet, MaxSnippetLen))

	return b.String()
}

// truncateRunes cuts s to at most n runes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
