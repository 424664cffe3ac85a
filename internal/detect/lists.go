package detect

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lists holds the static pattern lists the heuristics match against.
type Lists struct {
	Shorteners []string            `yaml:"shorteners"`
	Denylist   []string            `yaml:"denylist"`
	Keywords   []string            `yaml:"keywords"`
	Brands     map[string][]string `yaml:"brands"`
}

// DefaultLists returns the built-in lists.
func DefaultLists() Lists {
	return Lists{
		Shorteners: []string{
			"bit.ly", "bit.do", "buff.ly", "cutt.ly", "goo.gl", "is.gd", "lnkd.in",
			"ow.ly", "rb.gy", "rebrand.ly", "s.id", "shorturl.at", "t.co", "t.ly",
			"tiny.cc", "tinyurl.com",
		},
		// Well-known test indicators; deployments extend this from a rules file.
		Denylist: []string{
			"ianfette.org",
			"malware.testing.google.test",
			"malware.wicar.org",
			"phishing.example",
			"testsafebrowsing.appspot.com",
		},
		Keywords: []string{
			"account", "banking", "confirm", "login", "password", "secure",
			"signin", "suspend", "unlock", "update", "verify", "wallet", "webscr",
		},
		Brands: map[string][]string{
			"amazon":        {"amazon.com", "amazon.co.uk", "amazon.de"},
			"apple":         {"apple.com", "icloud.com"},
			"bankofamerica": {"bankofamerica.com"},
			"chase":         {"chase.com"},
			"dropbox":       {"dropbox.com"},
			"facebook":      {"facebook.com", "fb.com"},
			"google":        {"google.com", "gmail.com", "youtube.com"},
			"instagram":     {"instagram.com"},
			"linkedin":      {"linkedin.com"},
			"microsoft":     {"microsoft.com", "live.com", "office.com", "outlook.com"},
			"netflix":       {"netflix.com"},
			"paypal":        {"paypal.com", "paypal.me"},
			"wellsfargo":    {"wellsfargo.com"},
		},
	}
}

// Merge appends extra entries to l. Brand domains are appended per brand.
func (l Lists) Merge(extra Lists) Lists {
	out := Lists{
		Shorteners: appendLower(l.Shorteners, extra.Shorteners),
		Denylist:   appendLower(l.Denylist, extra.Denylist),
		Keywords:   appendLower(l.Keywords, extra.Keywords),
		Brands:     make(map[string][]string, len(l.Brands)+len(extra.Brands)),
	}
	for b, ds := range l.Brands {
		out.Brands[b] = append([]string(nil), ds...)
	}
	for b, ds := range extra.Brands {
		b = strings.ToLower(b)
		out.Brands[b] = appendLower(out.Brands[b], ds)
	}
	return out
}

// LoadLists reads a YAML rules file and merges it over the defaults.
func LoadLists(path string) (Lists, error) {
	base := DefaultLists()
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read rules file %q: %w", path, err)
	}
	var extra Lists
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return base, fmt.Errorf("parse rules file %q: %w", path, err)
	}
	return base.Merge(extra), nil
}

func appendLower(dst, src []string) []string {
	seen := make(map[string]struct{}, len(dst)+len(src))
	out := make([]string, 0, len(dst)+len(src))
	for _, s := range append(append([]string(nil), dst...), src...) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
