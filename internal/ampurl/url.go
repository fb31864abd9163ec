// Package ampurl detects AMP (Accelerated Mobile Pages) artifacts in URLs and
// rewrites AMP URLs into their canonical non-AMP form.
package ampurl

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrMissingHost is returned for URLs without an authority.
	ErrMissingHost = errors.New("URL has no host")
)

// QueryParam is one key/value pair of a query string. Raw holds the exact
// text as it appeared between separators so untouched parameters serialise
// byte-for-byte.
type QueryParam struct {
	Key      string
	Value    string
	Raw      string
	HasValue bool
}

// URL is an immutable, parsed http(s) URL. Values are never modified in place;
// the With* methods return copies.
type URL struct {
	raw         string
	scheme      string
	userinfo    string
	host        string
	hostname    string
	port        string
	path        string
	rawQuery    string
	query       []QueryParam
	hasQuery    bool
	fragment    string
	hasFragment bool
}

// Parse splits raw into its components. The split is done on the raw text so
// that String reproduces the input exactly; net/url is only used to reject
// malformed input and to decode the hostname.
func Parse(raw string) (URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return URL{}, fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return URL{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsed.Scheme)
	}

	if parsed.Host == "" {
		return URL{}, fmt.Errorf("%w: %q", ErrMissingHost, raw)
	}

	u := URL{
		raw:      raw,
		hostname: parsed.Hostname(),
		port:     parsed.Port(),
	}

	sep := strings.Index(raw, "://")
	if sep < 0 {
		return URL{}, fmt.Errorf("%w: %q", ErrMissingHost, raw)
	}

	u.scheme = raw[:sep]
	rest := raw[sep+3:]

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		u.fragment = rest[i+1:]
		u.hasFragment = true
		rest = rest[:i]
	}

	if i := strings.IndexByte(rest, '?'); i >= 0 {
		u.rawQuery = rest[i+1:]
		u.hasQuery = true
		u.query = parseQuery(u.rawQuery)
		rest = rest[:i]
	}

	authority := rest
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		authority = rest[:i]
		u.path = rest[i:]
	}

	if i := strings.LastIndexByte(authority, '@'); i >= 0 {
		u.userinfo = authority[:i]
		authority = authority[i+1:]
	}

	u.host = authority

	return u, nil
}

// MustParse is like Parse but panics on error. Intended for tests and fixed inputs.
func MustParse(raw string) URL {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}

	return u
}

func parseQuery(rawQuery string) []QueryParam {
	if rawQuery == "" {
		return nil
	}

	pieces := strings.Split(rawQuery, "&")
	params := make([]QueryParam, 0, len(pieces))

	for _, piece := range pieces {
		param := QueryParam{Raw: piece}

		key, value, found := strings.Cut(piece, "=")
		param.Key = unescapeQuery(key)
		param.HasValue = found

		if found {
			param.Value = unescapeQuery(value)
		}

		params = append(params, param)
	}

	return params
}

func unescapeQuery(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}

	return decoded
}

// Hostname returns the host without port, lower-cased.
func (u URL) Hostname() string { return strings.ToLower(u.hostname) }

// Path returns the escaped path.
func (u URL) Path() string { return u.path }

// Query returns a copy of the ordered query parameters.
func (u URL) Query() []QueryParam {
	if u.query == nil {
		return nil
	}

	out := make([]QueryParam, len(u.query))
	copy(out, u.query)

	return out
}

// WithHost returns a copy of u with its host replaced.
func (u URL) WithHost(host string) URL {
	u.raw = ""
	u.host = host

	hostname, port, found := strings.Cut(host, ":")
	u.hostname = hostname
	u.port = ""

	if found {
		u.port = port
	}

	return u
}

// WithPath returns a copy of u with its escaped path replaced.
func (u URL) WithPath(path string) URL {
	u.raw = ""
	u.path = path

	return u
}

// WithQuery returns a copy of u with the given parameters. Parameters are
// serialised from their Raw text; an empty list drops the '?' entirely.
func (u URL) WithQuery(params []QueryParam) URL {
	u.raw = ""
	u.query = make([]QueryParam, len(params))
	copy(u.query, params)

	raws := make([]string, 0, len(params))
	for _, p := range params {
		raw := p.Raw
		if raw == "" && p.Key != "" {
			raw = url.QueryEscape(p.Key)
			if p.HasValue {
				raw += "=" + url.QueryEscape(p.Value)
			}
		}

		raws = append(raws, raw)
	}

	u.rawQuery = strings.Join(raws, "&")
	u.hasQuery = len(params) > 0

	return u
}

// String reassembles the URL. An unmodified value returns its original text.
func (u URL) String() string {
	if u.raw != "" {
		return u.raw
	}

	var b strings.Builder

	b.WriteString(u.scheme)
	b.WriteString("://")

	if u.userinfo != "" {
		b.WriteString(u.userinfo)
		b.WriteByte('@')
	}

	b.WriteString(u.host)
	b.WriteString(u.path)

	if u.hasQuery {
		b.WriteByte('?')
		b.WriteString(u.rawQuery)
	}

	if u.hasFragment {
		b.WriteByte('#')
		b.WriteString(u.fragment)
	}

	return b.String()
}

// Equal reports whether both values serialise to the same text.
func (u URL) Equal(other URL) bool {
	return u.String() == other.String()
}
