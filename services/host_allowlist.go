package services

import (
	"net"
	"strings"

	"github.com/sahilchouksey/course-week-planner/config"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// HostAllowlist decides which hosts curated resources may link to
type HostAllowlist struct {
	hosts    map[string]struct{}
	suffixes []string
}

// NewHostAllowlist builds an allowlist from trusted host settings. Hosts match
// themselves and their subdomains; suffixes (".edu") match any registrable domain
// under them.
func NewHostAllowlist(trusted config.TrustedHosts) *HostAllowlist {
	a := &HostAllowlist{hosts: make(map[string]struct{}, len(trusted.Hosts))}
	for _, h := range trusted.Hosts {
		if ascii, ok := canonicalHost(h); ok {
			a.hosts[ascii] = struct{}{}
		}
	}
	for _, s := range trusted.Suffixes {
		s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
		if s != "" {
			a.suffixes = append(a.suffixes, "."+s)
		}
	}
	return a
}

// Hosts lists the exact hosts of the allowlist
func (a *HostAllowlist) Hosts() []string {
	out := make([]string, 0, len(a.hosts))
	for h := range a.hosts {
		out = append(out, h)
	}
	return out
}

// Allowed reports whether host, or a parent domain of it, is trusted. IP literals and
// bare public suffixes are never trusted.
func (a *HostAllowlist) Allowed(host string) bool {
	host, ok := canonicalHost(host)
	if !ok || net.ParseIP(host) != nil {
		return false
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}

	for candidate := host; ; {
		if _, ok := a.hosts[candidate]; ok {
			return true
		}
		if candidate == registrable {
			break
		}
		dot := strings.IndexByte(candidate, '.')
		if dot < 0 {
			break
		}
		candidate = candidate[dot+1:]
	}

	for _, suffix := range a.suffixes {
		if strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
			return true
		}
	}
	return false
}

// canonicalHost lowercases host, drops a trailing dot and converts IDNs to ASCII
func canonicalHost(host string) (string, bool) {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" {
		return "", false
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil || ascii == "" {
		return "", false
	}
	return ascii, true
}
