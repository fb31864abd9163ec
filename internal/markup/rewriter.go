package markup

import (
	"context"
	"fmt"

	"github.com/btraven00/ampclean/internal/ampurl"
	"github.com/btraven00/ampclean/internal/resolver"
	"github.com/btraven00/ampclean/internal/verifier"
)

// Result is the outcome of rewriting one document.
type Result struct {
	Text    string       `json:"-"`
	Records []EditRecord `json:"records,omitempty"`
	// Replacements counts occurrences rewritten across both passes.
	Replacements int `json:"replacements"`
	// Unsafe counts accepted occurrences left alone because their span
	// could not be located unambiguously.
	Unsafe  int  `json:"unsafe,omitempty"`
	Changed bool `json:"changed"`
}

// Rewriter runs the reference and template passes over a document.
type Rewriter struct {
	prober  verifier.Prober
	emitter Emitter
}

// NewRewriter creates a Rewriter. emitter may be nil.
func NewRewriter(prober verifier.Prober, emitter Emitter) *Rewriter {
	return &Rewriter{
		prober:  prober,
		emitter: emitter,
	}
}

// Rewrite cleans AMP URLs in text. The reference pass runs first and the
// template pass runs on its output. Decisions are memoised for this call
// only; nothing is shared between documents.
func (r *Rewriter) Rewrite(ctx context.Context, title, text string) (Result, error) {
	s := &session{
		rewriter:  r,
		title:     title,
		decisions: make(map[string]resolver.Decision),
	}

	result := Result{Text: text}

	passes := []struct {
		pass   Pass
		locate func(string) []Occurrence
	}{
		{pass: PassReference, locate: ReferenceOccurrences},
		{pass: PassTemplate, locate: TemplateOccurrences},
	}

	for _, p := range passes {
		updated, applied, skipped, err := s.run(ctx, p.pass, result.Text, p.locate(result.Text))
		if err != nil {
			return Result{Text: text}, fmt.Errorf("%s pass: %w", p.pass, err)
		}

		result.Text = updated
		result.Replacements += applied
		result.Unsafe += skipped

		s.settle()
	}

	result.Changed = result.Replacements > 0
	result.Records = s.records

	return result, nil
}

// session holds the per-document state of one Rewrite call.
type session struct {
	rewriter  *Rewriter
	decisions map[string]resolver.Decision
	title     string
	records   []EditRecord
	// written holds replacement URLs put into the text by the current pass.
	written   []string
}

// settle marks every URL written by the finished pass as decided, so a later
// pass does not clean the same occurrence a second time.
func (s *session) settle() {
	for _, written := range s.written {
		if _, ok := s.decisions[written]; !ok {
			s.decisions[written] = resolver.Decision{URL: written, Disposition: resolver.Unchanged}
		}
	}

	s.written = s.written[:0]
}

func (s *session) run(ctx context.Context, pass Pass, text string, occurrences []Occurrence) (string, int, int, error) {
	edits := make([]Edit, 0, len(occurrences))

	for _, occ := range occurrences {
		decision, err := s.decide(ctx, pass, occ.URL)
		if err != nil {
			return text, 0, 0, err
		}

		if !decision.Disposition.Replaces() {
			continue
		}

		edits = append(edits, Edit{Span: occ.Span, Replacement: decision.URL})
	}

	updated, applied, skipped := ApplyEdits(text, edits)

	return updated, len(applied), len(skipped), nil
}

// decide classifies, normalizes, probes and resolves raw once per session.
func (s *session) decide(ctx context.Context, pass Pass, raw string) (resolver.Decision, error) {
	if decision, ok := s.decisions[raw]; ok {
		return decision, nil
	}

	unchanged := resolver.Decision{URL: raw, Disposition: resolver.Unchanged}

	u, err := ampurl.Parse(raw)
	if err != nil || !ampurl.Classify(u).IsAMP {
		s.decisions[raw] = unchanged
		return unchanged, nil
	}

	candidate := ampurl.Normalize(u).String()
	if candidate == raw {
		s.decisions[raw] = unchanged
		return unchanged, nil
	}

	if err := ctx.Err(); err != nil {
		return unchanged, err
	}

	originalOutcome := s.rewriter.prober.Probe(ctx, raw)
	candidateOutcome := s.rewriter.prober.Probe(ctx, candidate)

	// A cancelled probe is not a dead link.
	if err := ctx.Err(); err != nil {
		return unchanged, err
	}

	decision := resolver.Resolve(raw, candidate, originalOutcome, candidateOutcome)
	s.decisions[raw] = decision

	if decision.Disposition.Replaces() {
		s.written = append(s.written, decision.URL)
	}

	record := EditRecord{
		Title:           s.title,
		Pass:            pass,
		OldURL:          raw,
		NewURL:          decision.URL,
		Candidate:       candidate,
		Disposition:     decision.Disposition,
		OriginalStatus:  originalOutcome.Status(),
		CandidateStatus: candidateOutcome.Status(),
	}

	s.records = append(s.records, record)
	if s.rewriter.emitter != nil {
		s.rewriter.emitter.Emit(record)
	}

	return decision, nil
}
