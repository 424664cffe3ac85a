package detect

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/selimozcann/LinkSentry/internal/model"
	"github.com/selimozcann/LinkSentry/internal/util"
)

// Rule names, in evaluation order.
const (
	RuleNonHTTPS         = "non_https"
	RuleIPLiteral        = "ip_literal"
	RuleHomograph        = "homograph"
	RuleShortener        = "shortener"
	RuleSubdomainDepth   = "subdomain_depth"
	RulePhishingKeywords = "phishing_keywords"
	RuleURLLength        = "url_length"
	RuleDenylist         = "denylist"
)

// NonHTTPS reports any scheme other than https.
func NonHTTPS(t *Target) *model.Flag {
	if t.URL.Scheme == "https" {
		return nil
	}
	return &model.Flag{Rule: RuleNonHTTPS, Severity: model.SeverityLow, Detail: "scheme " + t.URL.Scheme + " is not encrypted"}
}

// IPLiteral reports hosts written as a raw IP address.
func IPLiteral(t *Target) *model.Flag {
	ip, ok := util.ParseIPLiteral(t.Host)
	if !ok {
		return nil
	}
	detail := "host is IP address " + ip.String()
	if util.IsInternalIP(ip) {
		detail += " (internal range)"
	}
	return &model.Flag{Rule: RuleIPLiteral, Severity: model.SeverityMedium, Detail: detail}
}

// scripts that commonly stand in for Latin letters.
var scriptTables = []struct {
	name  string
	table *unicode.RangeTable
}{
	{"Latin", unicode.Latin},
	{"Cyrillic", unicode.Cyrillic},
	{"Greek", unicode.Greek},
	{"Armenian", unicode.Armenian},
	{"Cherokee", unicode.Cherokee},
	{"Georgian", unicode.Georgian},
	{"Hebrew", unicode.Hebrew},
	{"Arabic", unicode.Arabic},
	{"Han", unicode.Han},
	{"Hiragana", unicode.Hiragana},
	{"Katakana", unicode.Katakana},
	{"Hangul", unicode.Hangul},
	{"Thai", unicode.Thai},
}

func labelScripts(label string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range label {
		for _, s := range scriptTables {
			if unicode.Is(s.table, r) {
				if !seen[s.name] {
					seen[s.name] = true
					out = append(out, s.name)
				}
				break
			}
		}
	}
	return out
}

// Homograph reports internationalized hosts: punycode labels, labels mixing
// scripts, and compatibility characters that normalize to something else.
func Homograph(t *Target) *model.Flag {
	if t.IP {
		return nil
	}
	var idn []string
	for _, label := range strings.Split(t.ASCIIHost, ".") {
		if strings.HasPrefix(label, "xn--") {
			idn = append(idn, label)
		}
	}
	if len(idn) == 0 {
		return nil
	}
	flag := &model.Flag{Rule: RuleHomograph, Severity: model.SeverityHigh}
	for _, label := range strings.Split(t.UnicodeHost, ".") {
		if s := labelScripts(label); len(s) > 1 {
			flag.Detail = fmt.Sprintf("label %q mixes %s scripts", label, strings.Join(s, " and "))
			return flag
		}
	}
	if n := norm.NFKC.String(t.Host); n != t.Host {
		flag.Detail = fmt.Sprintf("host %q contains compatibility characters (normalizes to %q)", t.Host, n)
		return flag
	}
	flag.Detail = fmt.Sprintf("internationalized host %q (punycode %s)", t.UnicodeHost, strings.Join(idn, ", "))
	return flag
}

// Shortener reports hosts belonging to a known URL shortener.
func Shortener(t *Target, shorteners []string) *model.Flag {
	if t.IP {
		return nil
	}
	for _, s := range shorteners {
		if util.MatchesDomain(t.ASCIIHost, s) {
			return &model.Flag{Rule: RuleShortener, Severity: model.SeverityLow, Detail: "shortened link via " + s + " hides the destination"}
		}
	}
	return nil
}

// SubdomainDepth reports hosts with more than max labels left of the
// registrable domain.
func SubdomainDepth(t *Target, max int) *model.Flag {
	if t.IP {
		return nil
	}
	sub := util.Subdomain(t.ASCIIHost)
	if len(sub) <= max {
		return nil
	}
	return &model.Flag{
		Rule:     RuleSubdomainDepth,
		Severity: model.SeverityMedium,
		Detail:   fmt.Sprintf("%d subdomain levels above %s (limit %d)", len(sub), t.Domain, max),
	}
}

// PhishingKeywords reports credential-phishing vocabulary in the path and
// query, escalating when a brand is named on a domain that brand does not own.
// Brands count only in the host and path; a query such as a search term is
// not an impersonation.
func PhishingKeywords(t *Target, keywords []string, brands map[string][]string) *model.Flag {
	pq := t.PathAndQuery()
	var hits []string
	for _, kw := range keywords {
		if strings.Contains(pq, kw) {
			hits = append(hits, kw)
		}
	}
	brand := impersonatedBrand(t, brands)

	flag := &model.Flag{Rule: RulePhishingKeywords}
	switch {
	case brand != "" && len(hits) > 0:
		flag.Severity = model.SeverityHigh
		flag.Detail = fmt.Sprintf("brand %q on unrelated domain %s with keywords %s", brand, t.Domain, strings.Join(hits, ", "))
	case len(hits) >= 2:
		flag.Severity = model.SeverityMedium
		flag.Detail = "credential keywords " + strings.Join(hits, ", ")
	case brand != "":
		flag.Severity = model.SeverityMedium
		flag.Detail = fmt.Sprintf("brand %q on unrelated domain %s", brand, t.Domain)
	default:
		return nil
	}
	return flag
}

func impersonatedBrand(t *Target, brands map[string][]string) string {
	tokens := make(map[string]bool)
	split := func(s string) {
		for _, tok := range strings.FieldsFunc(s, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			tokens[tok] = true
		}
	}
	split(t.Path())
	if !t.IP {
		split(t.ASCIIHost)
	}

	names := make([]string, 0, len(brands))
	for name := range brands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !tokens[name] {
			continue
		}
		owned := false
		for _, d := range brands[name] {
			if util.MatchesDomain(t.ASCIIHost, d) {
				owned = true
				break
			}
		}
		if !owned {
			return name
		}
	}
	return ""
}

// URLLength reports URLs longer than max characters.
func URLLength(t *Target, max int) *model.Flag {
	n := utf8.RuneCountInString(t.Raw)
	if n <= max {
		return nil
	}
	return &model.Flag{
		Rule:     RuleURLLength,
		Severity: model.SeverityLow,
		Detail:   fmt.Sprintf("URL is %d characters (limit %d)", n, max),
	}
}

// Denylist reports hosts on the static denylist.
func Denylist(t *Target, denylist []string) *model.Flag {
	for _, d := range denylist {
		if util.MatchesDomain(t.ASCIIHost, d) {
			return &model.Flag{Rule: RuleDenylist, Severity: model.SeverityHigh, Detail: "host matches denylist entry " + d}
		}
	}
	return nil
}
