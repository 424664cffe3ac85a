package output

import (
	"html/template"
	"io"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/selimozcann/LinkSentry/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ResultType classifies a verdict for reporting.
type ResultType string

const (
	ResultTypeSafe   ResultType = "safe"
	ResultTypeThreat ResultType = "threat"
	ResultTypeError  ResultType = "error"
)

// Record represents one line in the JSONL export. Safe and RiskScore are
// nil on error records.
type Record struct {
	ID        string       `json:"id"`
	Timestamp string       `json:"timestamp"`
	URL       string       `json:"url"`
	Type      ResultType   `json:"type"`
	Safe      *bool        `json:"safe,omitempty"`
	RiskScore *int         `json:"risk_score,omitempty"`
	Flags     []model.Flag `json:"flags,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// RuleCount is how many verdicts a rule flagged.
type RuleCount struct {
	Rule  string
	Count int
}

// Summary contains counters for the HTML summary section.
type Summary struct {
	Total   int
	Safe    int
	Threats int
	Errors  int
	Flagged int
	ByRule  []RuleCount
}

// ResultView is used by the HTML template with pre-computed fields.
type ResultView struct {
	Index     int
	Timestamp time.Time
	URL       string
	Type      ResultType
	RiskScore int
	Flags     []model.Flag
	Error     string
}

// PageData provides the full context for the HTML report.
type PageData struct {
	Title         string
	GeneratedAt   time.Time
	Params        map[string]string
	OrderedParams []Param
	Summary       Summary
	Analytics     model.Snapshot
	Results       []ResultView
}

// Param represents a rendered setting/value pair.
type Param struct {
	Key   string
	Value string
}

// DetermineType classifies v.
func DetermineType(v model.Verdict) ResultType {
	switch {
	case v.IsError():
		return ResultTypeError
	case v.Safe:
		return ResultTypeSafe
	default:
		return ResultTypeThreat
	}
}

// BuildRecord converts a verdict into a Record for JSONL output.
func BuildRecord(v model.Verdict) Record {
	rec := Record{
		ID:        v.ID,
		Timestamp: v.Timestamp.UTC().Format(time.RFC3339),
		URL:       v.URL,
		Type:      DetermineType(v),
		Flags:     append([]model.Flag(nil), v.Flags...),
		Error:     v.Error,
	}
	if !v.IsError() {
		safe, score := v.Safe, v.RiskScore
		rec.Safe, rec.RiskScore = &safe, &score
	}
	return rec
}

// BuildRecords converts verdicts in order.
func BuildRecords(vs []model.Verdict) []Record {
	out := make([]Record, len(vs))
	for i, v := range vs {
		out[i] = BuildRecord(v)
	}
	return out
}

// BuildResultView converts a verdict for HTML rendering.
func BuildResultView(idx int, v model.Verdict) ResultView {
	return ResultView{
		Index:     idx,
		Timestamp: v.Timestamp,
		URL:       v.URL,
		Type:      DetermineType(v),
		RiskScore: v.RiskScore,
		Flags:     append([]model.Flag(nil), v.Flags...),
		Error:     v.Error,
	}
}

// BuildSummary derives counters from verdicts. Rules are ordered by count,
// then name.
func BuildSummary(vs []model.Verdict) Summary {
	sum := Summary{Total: len(vs)}
	byRule := make(map[string]int)
	for _, v := range vs {
		switch DetermineType(v) {
		case ResultTypeError:
			sum.Errors++
		case ResultTypeSafe:
			sum.Safe++
		default:
			sum.Threats++
		}
		if len(v.Flags) > 0 {
			sum.Flagged++
		}
		for _, f := range v.Flags {
			byRule[f.Rule]++
		}
	}
	for rule, n := range byRule {
		sum.ByRule = append(sum.ByRule, RuleCount{Rule: rule, Count: n})
	}
	sort.Slice(sum.ByRule, func(i, j int) bool {
		if sum.ByRule[i].Count != sum.ByRule[j].Count {
			return sum.ByRule[i].Count > sum.ByRule[j].Count
		}
		return sum.ByRule[i].Rule < sum.ByRule[j].Rule
	})
	return sum
}

// BuildPage assembles the report for verdicts, newest first.
func BuildPage(title string, vs []model.Verdict, snap model.Snapshot, params map[string]string, now time.Time) PageData {
	views := make([]ResultView, 0, len(vs))
	for i := len(vs) - 1; i >= 0; i-- {
		views = append(views, BuildResultView(len(views), vs[i]))
	}
	return PageData{
		Title:       title,
		GeneratedAt: now,
		Params:      params,
		Summary:     BuildSummary(vs),
		Analytics:   snap,
		Results:     views,
	}
}

// WriteJSONL writes each record as a JSON line to w.
func WriteJSONL(w io.Writer, records []Record) error {
	jw := NewJSONLWriter(w)
	for _, rec := range records {
		if err := jw.WriteRecord(rec); err != nil {
			return err
		}
	}
	return jw.Close()
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatTime": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"upper":      strings.ToUpper,
}).Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
:root { color-scheme: light dark; }
body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 24px; background:#fafafa; color:#111; }
header { margin-bottom: 24px; }
h1 { font-size: 26px; margin: 0 0 8px; }
.section { border:1px solid #e5e7eb; border-radius:16px; padding:16px 20px; margin-bottom:18px; background:#fff; box-shadow:0 1px 2px rgba(15,23,42,0.08); }
h2 { font-size:20px; margin:0 0 12px; }
h3 { font-size:16px; margin:12px 0 6px; word-break:break-all; }
dt { font-weight:600; }
dd { margin:0 0 8px 0; }
.summary-grid { display:grid; gap:12px; grid-template-columns: repeat(auto-fit,minmax(180px,1fr)); }
.summary-card { display:block; padding:12px; border-radius:12px; border:1px solid #cbd5f5; text-decoration:none; color:inherit; position:relative; background:linear-gradient(180deg,#eef2ff,#fff); }
.summary-card[data-active="true"] { border-color:#4f46e5; box-shadow:0 0 0 2px rgba(79,70,229,0.4); }
.summary-card .badge { position:absolute; top:12px; right:12px; padding:2px 10px; border-radius:999px; background:#4f46e5; color:#fff; font-size:12px; }
.meta { color:#6b7280; font-size:12px; }
.verdict-row { border-top:1px solid #e5e7eb; padding-top:12px; margin-top:12px; }
.verdict-row:first-of-type { border-top:none; padding-top:0; margin-top:0; }
.flag-list { list-style:disc; margin:8px 0 8px 20px; }
.badge-inline { display:inline-block; padding:2px 8px; border-radius:999px; background:#e5e7eb; font-size:12px; margin-left:6px; }
.type-safe { background:#dcfce7; }
.type-threat { background:#fee2e2; }
.type-error { background:#fef3c7; }
.sev-high { color:#b91c1c; }
.sev-medium { color:#b45309; }
.sev-low { color:#1d4ed8; }
.table { width:100%; border-collapse:collapse; font-size:14px; }
.table th, .table td { border-bottom:1px solid #e5e7eb; padding:6px 8px; text-align:left; }
.mono { font-family: ui-monospace, SFMono-Regular, Menlo, Consolas, monospace; font-size:13px; }
.footer { text-align:center; font-size:12px; color:#6b7280; margin-top:24px; }
@media (prefers-color-scheme: dark) {
        body { background:#0f172a; color:#e2e8f0; }
        .section { background:#1e293b; border-color:#334155; box-shadow:none; }
        .summary-card { background:linear-gradient(180deg,#312e81,#1e293b); border-color:#4338ca; color:#e0e7ff; }
        .summary-card .badge { background:#a855f7; }
        .meta { color:#94a3b8; }
        .badge-inline { background:#475569; }
}
</style>
<script>
document.addEventListener('DOMContentLoaded', function() {
  const cards = document.querySelectorAll('[data-filter]');
  const rows = document.querySelectorAll('.verdict-row');
  const notice = document.getElementById('filterNotice');
  function apply(filter) {
    cards.forEach(c => c.dataset.active = (c.dataset.filter === filter ? 'true' : 'false'));
    rows.forEach(row => {
      row.style.display = (filter === 'all' || row.dataset.type === filter) ? '' : 'none';
    });
    if (notice) {
      notice.textContent = filter === 'all' ? 'Showing all verdicts.' : 'Filtered to ' + filter + ' verdicts.';
    }
  }
  cards.forEach(card => {
    card.addEventListener('click', function (ev) {
      ev.preventDefault();
      apply(card.dataset.filter || 'all');
    });
  });
  apply('all');
});
</script>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  <p class="meta">Generated at {{formatTime .GeneratedAt}}</p>
</header>
<section id="summary" class="section">
  <h2>Summary</h2>
  <div class="summary-grid">
    <a class="summary-card" href="#verdicts" data-filter="all"><strong>Total Scans</strong><span class="badge">{{.Summary.Total}}</span></a>
    <a class="summary-card" href="#verdicts" data-filter="safe"><strong>Safe URLs</strong><span class="badge">{{.Summary.Safe}}</span></a>
    <a class="summary-card" href="#verdicts" data-filter="threat"><strong>Threats Detected</strong><span class="badge">{{.Summary.Threats}}</span></a>
    <a class="summary-card" href="#verdicts" data-filter="error"><strong>Errors</strong><span class="badge">{{.Summary.Errors}}</span></a>
  </div>
  <p class="meta">Lifetime analytics: {{.Analytics.TotalScans}} scans, {{.Analytics.ThreatsDetected}} threats, {{.Analytics.Accuracy}}% safe.</p>
</section>
{{if .OrderedParams}}
<section id="parameters" class="section">
  <h2>Settings</h2>
  <dl>
  {{- range .OrderedParams }}
    <dt>{{.Key}}</dt>
    <dd><span class="mono">{{.Value}}</span></dd>
  {{- end }}
  </dl>
</section>
{{end}}
<section id="rules" class="section">
  <h2>Triggered Heuristics</h2>
  {{if .Summary.ByRule}}
  <table class="table">
    <thead><tr><th>Rule</th><th>Verdicts</th></tr></thead>
    <tbody>
    {{range .Summary.ByRule}}<tr><td class="mono">{{.Rule}}</td><td>{{.Count}}</td></tr>{{end}}
    </tbody>
  </table>
  {{else}}
  <p class="meta">No heuristics triggered.</p>
  {{end}}
</section>
<section id="verdicts" class="section">
  <h2>Verdicts</h2>
  <p class="meta" id="filterNotice">Showing all verdicts.</p>
  {{range .Results}}
  <div class="verdict-row" data-type="{{.Type}}">
    <h3><span class="mono">{{.URL}}</span><span class="badge-inline type-{{.Type}}">{{upper (print .Type)}}</span>{{if not .Error}}<span class="badge-inline">Score {{.RiskScore}}</span>{{end}}</h3>
    {{if .Error}}<p class="meta">Error: {{.Error}}</p>{{end}}
    {{if .Flags}}
      <ul class="flag-list">
        {{range .Flags}}
          <li><strong class="sev-{{.Severity}}">{{.Severity}}</strong> <span class="mono">{{.Rule}}</span>: {{.Detail}}</li>
        {{end}}
      </ul>
    {{end}}
    <p class="meta">Scanned {{formatTime .Timestamp}}</p>
  </div>
  {{else}}
  <p class="meta">History is empty.</p>
  {{end}}
</section>
<footer class="footer">
  LinkSentry report generated at {{formatTime .GeneratedAt}}
</footer>
</body>
</html>
`))

// RenderHTML renders the HTML report using the provided data.
func RenderHTML(w io.Writer, data PageData) error {
	if data.Params != nil {
		keys := make([]string, 0, len(data.Params))
		for k := range data.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make([]Param, 0, len(keys))
		for _, k := range keys {
			ordered = append(ordered, Param{Key: k, Value: data.Params[k]})
		}
		data.OrderedParams = ordered
	}
	return htmlTemplate.Execute(w, data)
}
