package ampurl

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// splitHost separates hostname into its subdomain labels and its registrable
// domain (public suffix plus one label). Hosts without a registrable domain,
// such as a bare public suffix, have no subdomain labels.
func splitHost(hostname string) (subdomains []string, registrable string) {
	domain, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(hostname))
	if err != nil {
		return nil, hostname
	}

	labels := strings.Split(hostname, ".")
	n := len(labels) - strings.Count(domain, ".") - 1
	if n <= 0 {
		return nil, hostname
	}

	return labels[:n], strings.Join(labels[n:], ".")
}
