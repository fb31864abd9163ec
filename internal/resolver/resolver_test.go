package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/btraven00/ampclean/internal/verifier"
)

const (
	original  = "https://amp.example.com/story"
	candidate = "https://example.com/story"
)

func outcome(status int) verifier.Outcome {
	return verifier.Outcome{StatusCode: status}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		candidate   string
		orig, cand  int
		wantURL     string
		disposition Disposition
	}{
		{name: "no change", candidate: original, orig: 200, cand: 200, wantURL: original, disposition: Unchanged},
		{name: "both ok", candidate: candidate, orig: 200, cand: 200, wantURL: candidate, disposition: Accepted},
		{name: "candidate fixes broken original", candidate: candidate, orig: 404, cand: 200, wantURL: candidate, disposition: Accepted},
		{name: "regression 404", candidate: candidate, orig: 200, cand: 404, wantURL: original, disposition: RejectedRegression},
		{name: "regression transport failure", candidate: candidate, orig: 200, cand: 0, wantURL: original, disposition: RejectedRegression},
		{name: "both failed", candidate: candidate, orig: 0, cand: 0, wantURL: candidate, disposition: AcceptedBothFailed},
		{name: "both non-200", candidate: candidate, orig: 500, cand: 404, wantURL: candidate, disposition: AcceptedBothFailed},
		{name: "redirect status is not ok", candidate: candidate, orig: 301, cand: 403, wantURL: candidate, disposition: AcceptedBothFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Resolve(original, tt.candidate, outcome(tt.orig), outcome(tt.cand))
			assert.Equal(t, tt.wantURL, decision.URL)
			assert.Equal(t, tt.disposition, decision.Disposition)
		})
	}
}

func TestResolve_NeverBreaksWorkingLink(t *testing.T) {
	for _, status := range []int{0, 301, 403, 404, 410, 500, 503} {
		decision := Resolve(original, candidate, outcome(200), outcome(status))
		assert.Equal(t, original, decision.URL, "candidate status %d", status)
		assert.False(t, decision.Disposition.Replaces())
	}
}

func TestDisposition_Replaces(t *testing.T) {
	assert.True(t, Accepted.Replaces())
	assert.True(t, AcceptedBothFailed.Replaces())
	assert.False(t, RejectedRegression.Replaces())
	assert.False(t, Unchanged.Replaces())
}
