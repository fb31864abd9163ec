package markup

import (
	"fmt"
	"strings"

	"github.com/btraven00/ampclean/internal/resolver"
)

// Pass identifies which extraction pass produced a record.
type Pass string

const (
	PassReference Pass = "ref"
	PassTemplate  Pass = "template"
)

// EditRecord describes one accepted or rejected rewrite.
type EditRecord struct {
	Title           string               `json:"title"`
	Pass            Pass                 `json:"pass"`
	OldURL          string               `json:"old_url"`
	NewURL          string               `json:"new_url"`
	Candidate       string               `json:"candidate"`
	Disposition     resolver.Disposition `json:"disposition"`
	OriginalStatus  string               `json:"original_status"`
	CandidateStatus string               `json:"candidate_status"`
}

// String renders the record as a single log line.
func (r EditRecord) String() string {
	return fmt.Sprintf("%s: %s -> %s [%s; original %s, candidate %s]",
		r.Title, r.OldURL, r.Candidate, r.Disposition, r.OriginalStatus, r.CandidateStatus)
}

// Block renders the record as a multi-line entry for the edit list.
func (r EditRecord) Block() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Article: %s\n", r.Title)
	fmt.Fprintf(&b, "Old AMP URL: %s\n", r.OldURL)
	fmt.Fprintf(&b, "Cleaned URL: %s\n", r.NewURL)
	fmt.Fprintf(&b, "Result: %s (original %s, cleaned %s)\n", r.Disposition, r.OriginalStatus, r.CandidateStatus)

	return b.String()
}

// Emitter receives edit records as they are decided.
type Emitter interface {
	Emit(record EditRecord)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(record EditRecord)

// Emit calls f.
func (f EmitterFunc) Emit(record EditRecord) { f(record) }
