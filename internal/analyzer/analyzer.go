package analyzer

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/selimozcann/LinkSentry/internal/detect"
	"github.com/selimozcann/LinkSentry/internal/model"
	"github.com/selimozcann/LinkSentry/internal/plugin"
)

// MaxScore is the ceiling of a risk score.
const MaxScore = 100

// ErrMalformedURL is matched by every *MalformedURLError via errors.Is.
var ErrMalformedURL = errors.New("malformed URL")

// MalformedURLError is returned when input cannot be split into scheme, host
// and path after normalization.
type MalformedURLError struct {
	Input  string
	Reason string
	Err    error
}

func (e *MalformedURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed URL %q: %s: %v", e.Input, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed URL %q: %s", e.Input, e.Reason)
}

func (e *MalformedURLError) Unwrap() error { return e.Err }

func (e *MalformedURLError) Is(target error) bool { return target == ErrMalformedURL }

// Config holds the analyzer policy.
type Config struct {
	DefaultScheme string
	SafeThreshold int
}

// DefaultConfig returns the policy used when nothing is configured.
func DefaultConfig() Config {
	return Config{DefaultScheme: "https", SafeThreshold: 50}
}

// Analyzer maps a URL to a verdict. It holds no mutable state.
type Analyzer struct {
	cfg   Config
	rules []plugin.Rule
}

// New creates an Analyzer running rules in the given order.
func New(cfg Config, rules []plugin.Rule) *Analyzer {
	def := DefaultConfig()
	if cfg.DefaultScheme == "" {
		cfg.DefaultScheme = def.DefaultScheme
	}
	if cfg.SafeThreshold <= 0 {
		cfg.SafeThreshold = def.SafeThreshold
	}
	return &Analyzer{cfg: cfg, rules: append([]plugin.Rule(nil), rules...)}
}

// Rules returns the names of the rules this analyzer runs, in order.
func (a *Analyzer) Rules() []string {
	names := make([]string, len(a.rules))
	for i, r := range a.rules {
		names[i] = r.Name()
	}
	return names
}

// Threshold is the score at or above which a URL is unsafe.
func (a *Analyzer) Threshold() int { return a.cfg.SafeThreshold }

// Analyze normalizes raw and runs every rule over it. The returned verdict
// has no ID or timestamp.
func (a *Analyzer) Analyze(raw string) (model.Verdict, error) {
	t, err := Normalize(raw, a.cfg.DefaultScheme)
	if err != nil {
		return model.Verdict{}, err
	}

	v := model.Verdict{URL: t.Raw}
	denied := false
	for _, r := range a.rules {
		f := r.Evaluate(t)
		if f == nil {
			continue
		}
		v.Flags = append(v.Flags, *f)
		v.RiskScore += f.Severity.Weight()
		if f.Rule == detect.RuleDenylist {
			denied = true
		}
	}
	if denied || v.RiskScore > MaxScore {
		v.RiskScore = MaxScore
	}
	v.Safe = v.RiskScore < a.cfg.SafeThreshold
	return v, nil
}

var (
	schemeRe = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.\-]*):`)
	portRe   = regexp.MustCompile(`^[0-9]+(?:[/?#]|$)`)
)

// Normalize trims raw, adds defaultScheme when no scheme is present, and
// parses the result. http and https inputs with too few or too many slashes
// after the colon are repaired. Any other scheme must be followed by "//"
// and a host.
func Normalize(raw, defaultScheme string) (*detect.Target, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, &MalformedURLError{Input: raw, Reason: "empty input"}
	}
	s, err := withScheme(s, defaultScheme)
	if err != nil {
		return nil, &MalformedURLError{Input: raw, Reason: err.Error()}
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, &MalformedURLError{Input: raw, Reason: "parse failed", Err: err}
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return nil, &MalformedURLError{Input: raw, Reason: "missing host"}
	}
	if err := validateHost(host); err != nil {
		return nil, &MalformedURLError{Input: raw, Reason: "invalid host", Err: err}
	}
	return detect.NewTarget(render(u, host), u), nil
}

// withScheme returns s in "scheme://rest" form. "host:8080" counts as a
// host with a port, not a scheme.
func withScheme(s, defaultScheme string) (string, error) {
	m := schemeRe.FindStringSubmatch(s)
	rest := ""
	if m != nil {
		rest = s[len(m[0]):]
	}
	if m == nil || portRe.MatchString(rest) {
		return defaultScheme + "://" + strings.TrimPrefix(s, "//"), nil
	}
	scheme := strings.ToLower(m[1])
	switch {
	case scheme == "http" || scheme == "https":
		return scheme + "://" + strings.TrimLeft(rest, "/\\"), nil
	case strings.HasPrefix(rest, "//"):
		return s, nil
	default:
		return "", fmt.Errorf("scheme %q has no host", scheme)
	}
}

func validateHost(host string) error {
	if strings.Contains(host, ":") {
		// IPv6 literal; url.Parse has already checked the brackets.
		return nil
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" {
			return errors.New("empty label")
		}
	}
	for _, r := range host {
		switch {
		case r < unicode.MaxASCII && (r >= 'a' && r <= 'z' || r >= '0' && r <= '9'):
		case r == '-' || r == '.' || r == '_':
		case r > unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || unicode.IsSymbol(r)):
			// emoji labels
		default:
			return fmt.Errorf("character %q not allowed", r)
		}
	}
	return nil
}

// render rebuilds the URL without percent-encoding the host, so Unicode
// hosts stay readable.
func render(u *url.URL, host string) string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	if u.User != nil {
		b.WriteString(u.User.String())
		b.WriteByte('@')
	}
	if strings.Contains(host, ":") {
		b.WriteString("[" + host + "]")
	} else {
		b.WriteString(host)
	}
	if p := u.Port(); p != "" {
		b.WriteString(":" + p)
	}
	b.WriteString(u.EscapedPath())
	if u.ForceQuery || u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.EscapedFragment())
	}
	return b.String()
}
