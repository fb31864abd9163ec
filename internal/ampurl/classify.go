package ampurl

import (
	"strings"
	"unicode"
)

// EvidenceKind identifies which part of a URL carried the AMP marker.
type EvidenceKind string

const (
	EvidenceSubdomain EvidenceKind = "subdomain"
	EvidencePath      EvidenceKind = "path"
	EvidenceQuery     EvidenceKind = "query"
)

// Evidence is one matched AMP marker.
type Evidence struct {
	Kind  EvidenceKind `json:"kind"`
	Match string       `json:"match"`
}

// Signal is the result of classifying a URL.
type Signal struct {
	Evidence []Evidence `json:"evidence,omitempty"`
	IsAMP    bool       `json:"is_amp"`
}

// ampHostLabels are subdomain labels that mark an AMP host.
var ampHostLabels = []string{"amp", "mobile-amp"}

// ampPathTokens are path tokens that mark an AMP page. A token is a run of
// letters and digits, so "/amp/", "-amp", "amp_articleshow", ".amp.html" and
// "-amphtml" all match while "/ampere" does not.
var ampPathTokens = []string{"amp", "amphtml"}

// Classify reports whether u is an AMP variant. Every rule is evaluated so the
// returned evidence lists all markers found.
func Classify(u URL) Signal {
	var signal Signal

	if label, ok := ampSubdomain(u.Hostname()); ok {
		signal.Evidence = append(signal.Evidence, Evidence{Kind: EvidenceSubdomain, Match: label + "."})
	}

	for _, token := range pathTokens(u.Path()) {
		if isAMPPathToken(token) {
			signal.Evidence = append(signal.Evidence, Evidence{Kind: EvidencePath, Match: token})
			break
		}
	}

	for _, param := range u.query {
		if isAMPParam(param, "amp") {
			signal.Evidence = append(signal.Evidence, Evidence{Kind: EvidenceQuery, Match: param.Raw})
		}
	}

	signal.IsAMP = len(signal.Evidence) > 0

	return signal
}

// ClassifyString parses raw and classifies it. Unparsable input is not AMP.
func ClassifyString(raw string) Signal {
	u, err := Parse(raw)
	if err != nil {
		return Signal{}
	}

	return Classify(u)
}

// IsAMP is shorthand for ClassifyString(raw).IsAMP.
func IsAMP(raw string) bool {
	return ClassifyString(raw).IsAMP
}

// ampSubdomain returns the first AMP label among the subdomain labels of
// hostname. The registrable domain is never considered, so "amp.com" and
// "amp.co.uk" are not AMP hosts.
func ampSubdomain(hostname string) (string, bool) {
	subdomains, _ := splitHost(hostname)
	for _, label := range subdomains {
		if isAMPHostLabel(label) {
			return label, true
		}
	}

	return "", false
}

func isAMPHostLabel(label string) bool {
	for _, candidate := range ampHostLabels {
		if strings.EqualFold(label, candidate) {
			return true
		}
	}

	return false
}

func isAMPPathToken(token string) bool {
	for _, candidate := range ampPathTokens {
		if strings.EqualFold(token, candidate) {
			return true
		}
	}

	return false
}

// pathTokens splits path on every non-alphanumeric rune.
func pathTokens(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// isAMPParam reports whether a query parameter marks an AMP page: its key
// contains "amp" or its value is exactly one of values.
func isAMPParam(param QueryParam, values ...string) bool {
	if strings.Contains(strings.ToLower(param.Key), "amp") {
		return true
	}

	if !param.HasValue {
		return false
	}

	for _, v := range values {
		if strings.EqualFold(param.Value, v) {
			return true
		}
	}

	return false
}
