package util

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// RegistrableDomain returns the eTLD+1 for host. Hosts that are themselves a
// public suffix, or that the list cannot place, fall back to the last two
// labels.
func RegistrableDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// Subdomain returns the labels to the left of the registrable domain.
func Subdomain(host string) []string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	reg := RegistrableDomain(host)
	if host == reg || !strings.HasSuffix(host, "."+reg) {
		return nil
	}
	return strings.Split(strings.TrimSuffix(host, "."+reg), ".")
}

// MatchesDomain reports whether host equals domain or is one of its subdomains.
func MatchesDomain(host, domain string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
