package plugin

import (
	"strings"

	"github.com/selimozcann/LinkSentry/internal/detect"
	"github.com/selimozcann/LinkSentry/internal/model"
)

// Rule inspects a normalized target and returns at most one flag.
type Rule interface {
	Name() string
	Evaluate(t *detect.Target) *model.Flag
}

// Limits are the numeric thresholds some rules compare against.
type Limits struct {
	MaxSubdomainDepth int
	MaxURLLength      int
}

// DefaultLimits returns the thresholds used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{MaxSubdomainDepth: 3, MaxURLLength: 100}
}

type ruleFunc struct {
	name string
	fn   func(*detect.Target) *model.Flag
}

func (r ruleFunc) Name() string                          { return r.name }
func (r ruleFunc) Evaluate(t *detect.Target) *model.Flag { return r.fn(t) }

// Builtin returns every built-in rule in evaluation order.
func Builtin(lists detect.Lists, limits Limits) []Rule {
	return []Rule{
		ruleFunc{detect.RuleNonHTTPS, detect.NonHTTPS},
		ruleFunc{detect.RuleIPLiteral, detect.IPLiteral},
		ruleFunc{detect.RuleHomograph, detect.Homograph},
		ruleFunc{detect.RuleShortener, func(t *detect.Target) *model.Flag {
			return detect.Shortener(t, lists.Shorteners)
		}},
		ruleFunc{detect.RuleSubdomainDepth, func(t *detect.Target) *model.Flag {
			return detect.SubdomainDepth(t, limits.MaxSubdomainDepth)
		}},
		ruleFunc{detect.RulePhishingKeywords, func(t *detect.Target) *model.Flag {
			return detect.PhishingKeywords(t, lists.Keywords, lists.Brands)
		}},
		ruleFunc{detect.RuleURLLength, func(t *detect.Target) *model.Flag {
			return detect.URLLength(t, limits.MaxURLLength)
		}},
		ruleFunc{detect.RuleDenylist, func(t *detect.Target) *model.Flag {
			return detect.Denylist(t, lists.Denylist)
		}},
	}
}

// depthTable lists the rules each scan depth runs.
var depthTable = map[model.ScanDepth]map[string]bool{
	model.ScanQuick: {
		detect.RuleNonHTTPS:  true,
		detect.RuleIPLiteral: true,
		detect.RuleDenylist:  true,
	},
	model.ScanStandard: {
		detect.RuleNonHTTPS:         true,
		detect.RuleIPLiteral:        true,
		detect.RuleHomograph:        true,
		detect.RuleShortener:        true,
		detect.RulePhishingKeywords: true,
		detect.RuleDenylist:         true,
	},
}

// ForDepth filters rules down to those the depth runs, preserving order.
// Deep, and any unrecognized depth, runs everything.
func ForDepth(rules []Rule, depth model.ScanDepth) []Rule {
	allowed, ok := depthTable[depth]
	if !ok {
		return append([]Rule(nil), rules...)
	}
	out := make([]Rule, 0, len(allowed))
	for _, r := range rules {
		if allowed[r.Name()] {
			out = append(out, r)
		}
	}
	return out
}

// LoadWithWarnings resolves a comma-separated list of rule names against
// rules, keeping evaluation order. Unknown names are returned separately.
// An empty list selects every rule.
func LoadWithWarnings(rules []Rule, names string) ([]Rule, []string) {
	names = strings.TrimSpace(names)
	if names == "" || names == "all" {
		return append([]Rule(nil), rules...), nil
	}
	want := make(map[string]bool)
	known := make(map[string]bool, len(rules))
	for _, r := range rules {
		known[r.Name()] = true
	}
	var unknown []string
	for _, n := range strings.Split(names, ",") {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if !known[n] {
			unknown = append(unknown, n)
			continue
		}
		want[n] = true
	}
	var out []Rule
	for _, r := range rules {
		if want[r.Name()] {
			out = append(out, r)
		}
	}
	return out, unknown
}
