package ampurl

import (
	"regexp"
	"strings"
)

// pathRule is a single rewrite applied to the escaped path.
type pathRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// pathRules run in order, each exactly once. A rule never sees text it
// produced itself and earlier rules are not re-run, so a path matching
// several overlapping patterns can keep a residual marker.
var pathRules = []pathRule{
	// interior segments
	{regexp.MustCompile(`(?i)/amp/`), "/"},
	{regexp.MustCompile(`(?i)-amp/`), "/"},
	{regexp.MustCompile(`(?i)/amp-`), "/"},
	{regexp.MustCompile(`(?i)/amphtml/`), "/"},
	{regexp.MustCompile(`(?i)-amphtml`), ""},
	{regexp.MustCompile(`(?i)amp_articleshow`), "articleshow"},
	// trailing segment
	{regexp.MustCompile(`(?i)/amp$`), ""},
	// suffixes, keeping a known extension or "_section"
	{regexp.MustCompile(`(?i)[-_.]amp(\.(?:html?|shtml|php|aspx?|cms)|_section)?$`), "${1}"},
}

// Normalize removes AMP artifacts from u and returns the candidate URL. When
// no rule applies the input is returned unchanged.
func Normalize(u URL) URL {
	out := u

	if host, ok := stripAMPHost(u); ok {
		out = out.WithHost(host)
	}

	if path, ok := stripAMPPath(u.Path()); ok {
		out = out.WithPath(path)
	}

	if params, ok := stripAMPQuery(u.query); ok {
		out = out.WithQuery(params)
	}

	return out
}

// NormalizeString parses raw and normalizes it. Unparsable input is returned
// as-is.
func NormalizeString(raw string) string {
	u, err := Parse(raw)
	if err != nil {
		return raw
	}

	return Normalize(u).String()
}

// stripAMPHost drops every AMP subdomain label. The registrable domain is
// kept whole.
func stripAMPHost(u URL) (string, bool) {
	subdomains, registrable := splitHost(u.hostname)

	kept := make([]string, 0, len(subdomains)+1)
	for _, label := range subdomains {
		if !isAMPHostLabel(label) {
			kept = append(kept, label)
		}
	}

	if len(kept) == len(subdomains) {
		return "", false
	}

	host := strings.Join(append(kept, registrable), ".")
	if u.port != "" {
		host += ":" + u.port
	}

	return host, true
}

func stripAMPPath(path string) (string, bool) {
	if path == "" {
		return path, false
	}

	cleaned := path
	for _, rule := range pathRules {
		cleaned = rule.pattern.ReplaceAllString(cleaned, rule.replacement)
	}

	if cleaned == path {
		return path, false
	}

	if cleaned == "" {
		cleaned = "/"
	}

	return cleaned, true
}

func stripAMPQuery(params []QueryParam) ([]QueryParam, bool) {
	if len(params) == 0 {
		return params, false
	}

	kept := make([]QueryParam, 0, len(params))

	for _, param := range params {
		if isAMPParam(param, "amp", "amphtml") {
			continue
		}

		kept = append(kept, param)
	}

	return kept, len(kept) != len(params)
}
