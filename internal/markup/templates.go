package markup

import (
	"strings"
)

// URLParams are the citation parameters whose value is a URL.
var URLParams = []string{"url", "archive-url"}

// citationPrefixes are template name prefixes treated as citations.
var citationPrefixes = []string{"cite", "citation"}

// Template is one {{...}} invocation.
type Template struct {
	Name   string  `json:"name"`
	Params []Param `json:"params"`
	// Span covers the invocation from "{{" to "}}" inclusive.
	Span Span `json:"span"`
}

// Param is one '|'-separated parameter of a template.
type Param struct {
	// Name is the trimmed text before the first '='; empty for positional
	// parameters.
	Name string `json:"name,omitempty"`
	// Raw covers the whole parameter text after the separating '|'.
	Raw Span `json:"raw"`
	// Value covers the text after the first '=' (the whole parameter for
	// positional ones).
	Value Span `json:"value"`
	Named bool `json:"named"`
}

// IsCitation reports whether the template is citation-shaped.
func (t Template) IsCitation() bool {
	name := strings.ToLower(strings.TrimSpace(t.Name))
	name = strings.TrimPrefix(name, "template:")

	for _, prefix := range citationPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	return false
}

// IsURLParam reports whether the parameter carries a URL.
func (p Param) IsURLParam() bool {
	if !p.Named {
		return false
	}

	for _, name := range URLParams {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}

	return false
}

// FindTemplates returns every template invocation in text, outer templates
// before the ones nested inside them. Unterminated invocations are ignored.
func FindTemplates(text string) []Template {
	var templates []Template

	for i := 0; i+1 < len(text); i++ {
		if skip := commentEnd(text, i); skip > i {
			i = skip - 1
			continue
		}

		if text[i] != '{' || text[i+1] != '{' {
			continue
		}

		if tpl, ok := parseTemplate(text, i); ok {
			templates = append(templates, tpl)
		}

		// Continue inside the invocation so nested templates are found too.
		i++
	}

	return templates
}

// parseTemplate parses the invocation starting at text[start:] == "{{".
func parseTemplate(text string, start int) (Template, bool) {
	braces, links := 0, 0
	separators := []int{}

	i := start + 2
	for i < len(text) {
		if skip := commentEnd(text, i); skip > i {
			i = skip
			continue
		}

		switch {
		case strings.HasPrefix(text[i:], "{{"):
			braces++
			i += 2
		case strings.HasPrefix(text[i:], "}}"):
			if braces == 0 {
				return buildTemplate(text, start, i+2, separators), true
			}

			braces--
			i += 2
		case strings.HasPrefix(text[i:], "[["):
			links++
			i += 2
		case strings.HasPrefix(text[i:], "]]"):
			if links > 0 {
				links--
			}

			i += 2
		case text[i] == '|' && braces == 0 && links == 0:
			separators = append(separators, i)
			i++
		default:
			i++
		}
	}

	return Template{}, false
}

// commentEnd returns the offset just past an HTML comment starting at i, or i
// when there is none. An unterminated comment runs to the end of text.
func commentEnd(text string, i int) int {
	if !strings.HasPrefix(text[i:], "<!--") {
		return i
	}

	end := strings.Index(text[i+4:], "-->")
	if end < 0 {
		return len(text)
	}

	return i + 4 + end + 3
}

func buildTemplate(text string, start, end int, separators []int) Template {
	bodyEnd := end - 2
	nameEnd := bodyEnd

	if len(separators) > 0 {
		nameEnd = separators[0]
	}

	tpl := Template{
		Name: strings.TrimSpace(text[start+2 : nameEnd]),
		Span: Span{Start: start, End: end},
	}

	for i, sep := range separators {
		paramEnd := bodyEnd
		if i+1 < len(separators) {
			paramEnd = separators[i+1]
		}

		tpl.Params = append(tpl.Params, newParam(text, sep+1, paramEnd))
	}

	return tpl
}

func newParam(text string, start, end int) Param {
	param := Param{
		Raw:   Span{Start: start, End: end},
		Value: Span{Start: start, End: end},
	}

	raw := text[start:end]

	eq := strings.IndexByte(raw, '=')
	if eq < 0 {
		return param
	}

	param.Named = true
	param.Name = strings.TrimSpace(raw[:eq])
	param.Value = Span{Start: start + eq + 1, End: end}

	return param
}

// TemplateOccurrences returns the URL values of URL-bearing parameters of
// citation templates. The occurrence span excludes surrounding whitespace
// of the value; the container is the parameter value.
func TemplateOccurrences(text string) []Occurrence {
	var occurrences []Occurrence

	for _, tpl := range FindTemplates(text) {
		if !tpl.IsCitation() {
			continue
		}

		for _, param := range tpl.Params {
			if !param.IsURLParam() {
				continue
			}

			value := text[param.Value.Start:param.Value.End]
			trimmed := strings.TrimLeft(value, " \t\r\n")

			// Only a URL at the start of the value counts; trailing comments
			// or text stay outside the occurrence.
			loc := urlPattern.FindStringIndex(trimmed)
			if loc == nil || loc[0] != 0 {
				continue
			}

			offset := param.Value.Start + len(value) - len(trimmed)
			occurrences = append(occurrences, Occurrence{
				URL:       trimmed[:loc[1]],
				Span:      Span{Start: offset, End: offset + loc[1]},
				Container: param.Value,
			})
		}
	}

	return occurrences
}
