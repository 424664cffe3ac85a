package detect

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"github.com/selimozcann/LinkSentry/internal/util"
)

// Target is a normalized URL with the host forms every heuristic needs
// precomputed once.
type Target struct {
	URL *url.URL
	// Raw is the normalized URL string.
	Raw string
	// Host is the lowercased hostname as written.
	Host string
	// ASCIIHost is Host in punycode form.
	ASCIIHost string
	// UnicodeHost is Host with punycode labels decoded.
	UnicodeHost string
	// Domain is the registrable domain (eTLD+1) of ASCIIHost.
	Domain string
	// IP is set when the host is an IP literal.
	IP bool
}

// NewTarget derives a Target from a parsed URL. It never fails: hosts the
// IDNA codec rejects keep their original spelling in every form.
func NewTarget(raw string, u *url.URL) *Target {
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	t := &Target{URL: u, Raw: raw, Host: host, ASCIIHost: host, UnicodeHost: host}
	if _, ok := util.ParseIPLiteral(host); ok {
		t.IP = true
		t.Domain = host
		return t
	}
	if a, err := idna.Punycode.ToASCII(host); err == nil {
		t.ASCIIHost = a
	}
	if uh, err := idna.Punycode.ToUnicode(t.ASCIIHost); err == nil {
		t.UnicodeHost = uh
	}
	t.Domain = util.RegistrableDomain(t.ASCIIHost)
	return t
}

// PathAndQuery returns the lowercased path, query and fragment.
func (t *Target) PathAndQuery() string {
	var b strings.Builder
	b.WriteString(t.URL.EscapedPath())
	if t.URL.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(t.URL.RawQuery)
	}
	if t.URL.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(t.URL.Fragment)
	}
	s, err := url.PathUnescape(b.String())
	if err != nil {
		s = b.String()
	}
	return strings.ToLower(s)
}

// Path returns the lowercased, unescaped path.
func (t *Target) Path() string {
	return strings.ToLower(t.URL.Path)
}
