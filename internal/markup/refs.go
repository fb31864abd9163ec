// Package markup locates URLs inside wiki markup and rewrites AMP URLs in
// place without touching the surrounding text.
package markup

import (
	"regexp"
)

// refPattern matches a <ref ...>...</ref> pair. The opening tag must not be
// self-closing; content is matched lazily across line breaks.
var refPattern = regexp.MustCompile(`(?is)<ref(\s[^>]*[^/>])?\s*>(.*?)</ref\s*>`)

// urlPattern matches a URL token. Whitespace, '|', angle brackets, square and
// curly brackets and double quotes end a token so adjacent markup is never
// swallowed.
var urlPattern = regexp.MustCompile(`(?i:https?)://[^\s|<>\[\]{}"]+`)

// Reference is one <ref> element.
type Reference struct {
	// Element covers the whole element including tags.
	Element Span `json:"element"`
	// Content covers the text between the tags.
	Content Span `json:"content"`
}

// FindReferences returns every <ref> element in text in document order.
func FindReferences(text string) []Reference {
	matches := refPattern.FindAllStringSubmatchIndex(text, -1)
	refs := make([]Reference, 0, len(matches))

	for _, m := range matches {
		refs = append(refs, Reference{
			Element: Span{Start: m[0], End: m[1]},
			Content: Span{Start: m[4], End: m[5]},
		})
	}

	return refs
}

// FindURLs returns the URL tokens of text. Offsets are relative to text.
func FindURLs(text string) []Occurrence {
	matches := urlPattern.FindAllStringIndex(text, -1)
	occurrences := make([]Occurrence, 0, len(matches))

	for _, m := range matches {
		occurrences = append(occurrences, Occurrence{
			URL:       text[m[0]:m[1]],
			Span:      Span{Start: m[0], End: m[1]},
			Container: Span{Start: 0, End: len(text)},
		})
	}

	return occurrences
}

// ReferenceOccurrences returns the URL tokens found inside reference content,
// with absolute offsets and the reference content as container.
func ReferenceOccurrences(text string) []Occurrence {
	var occurrences []Occurrence

	for _, ref := range FindReferences(text) {
		content := text[ref.Content.Start:ref.Content.End]

		for _, occ := range FindURLs(content) {
			occurrences = append(occurrences, Occurrence{
				URL: occ.URL,
				Span: Span{
					Start: ref.Content.Start + occ.Span.Start,
					End:   ref.Content.Start + occ.Span.End,
				},
				Container: ref.Content,
			})
		}
	}

	return occurrences
}
