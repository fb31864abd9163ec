// Package resolver decides whether a cleaned URL may replace the original.
package resolver

import (
	"github.com/btraven00/ampclean/internal/verifier"
)

// Disposition tags the outcome of a resolution.
type Disposition string

const (
	// Unchanged means the normalizer produced the original URL.
	Unchanged Disposition = "unchanged"
	// Accepted means the candidate resolves.
	Accepted Disposition = "accepted"
	// AcceptedBothFailed means neither URL resolves; the canonical form wins.
	AcceptedBothFailed Disposition = "accepted-both-failed"
	// RejectedRegression means the original works and the candidate does not.
	RejectedRegression Disposition = "rejected-regression"
)

// Replaces reports whether the document should be rewritten.
func (d Disposition) Replaces() bool {
	return d == Accepted || d == AcceptedBothFailed
}

// Decision is the URL to keep and why.
type Decision struct {
	URL         string      `json:"url"`
	Disposition Disposition `json:"disposition"`
}

// Resolve applies the policy. A working link is never traded for a broken
// one; when both are broken the canonical candidate is preferred.
func Resolve(original, candidate string, originalOutcome, candidateOutcome verifier.Outcome) Decision {
	switch {
	case candidate == original:
		return Decision{URL: original, Disposition: Unchanged}
	case originalOutcome.OK() && !candidateOutcome.OK():
		return Decision{URL: original, Disposition: RejectedRegression}
	case candidateOutcome.OK():
		return Decision{URL: candidate, Disposition: Accepted}
	default:
		return Decision{URL: candidate, Disposition: AcceptedBothFailed}
	}
}
