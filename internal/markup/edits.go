package markup

import (
	"sort"
	"strings"
)

// Span is a half-open byte range [Start, End) of a document.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether other lies entirely inside s.
func (s Span) Contains(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Occurrence locates one URL inside a document together with the smallest
// structural span that encloses it (reference content or template parameter).
type Occurrence struct {
	URL       string `json:"url"`
	Span      Span   `json:"span"`
	Container Span   `json:"container"`
}

// Edit replaces the bytes of Span with Replacement.
type Edit struct {
	Replacement string
	Span        Span
}

// ApplyEdits applies non-overlapping edits to text by offset. Edits that are
// out of range or overlap an earlier edit are not applied and are returned in
// skipped so the caller can leave those occurrences untouched.
func ApplyEdits(text string, edits []Edit) (out string, applied, skipped []Edit) {
	if len(edits) == 0 {
		return text, nil, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Span.Start < sorted[j].Span.Start
	})

	var b strings.Builder

	b.Grow(len(text))

	cursor := 0

	for _, edit := range sorted {
		if edit.Span.Start < cursor || edit.Span.End > len(text) || edit.Span.Start > edit.Span.End {
			skipped = append(skipped, edit)
			continue
		}

		b.WriteString(text[cursor:edit.Span.Start])
		b.WriteString(edit.Replacement)
		cursor = edit.Span.End

		applied = append(applied, edit)
	}

	b.WriteString(text[cursor:])

	return b.String(), applied, skipped
}
