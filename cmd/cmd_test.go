package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selimozcann/LinkSentry/internal/model"
)

type harness struct {
	t       *testing.T
	dir     string
	cfgPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "linksentry.yaml")
	cfg := "logger:\n  level: error\nstorage:\n  backend: file\n  dir: " + filepath.Join(dir, "data") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return &harness{t: t, dir: dir, cfgPath: cfgPath}
}

// run executes one CLI invocation and returns stdout and stderr.
func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", h.cfgPath, "--no-banner"}, args...))
	err := root.Execute()
	return out.String(), errOut.String(), err
}

// verdictLines drops the indented flag lines under each verdict.
func verdictLines(out string) []string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if strings.HasPrefix(l, "[") {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestScan_SingleURL(t *testing.T) {
	h := newHarness(t)

	out, errOut, err := h.run("scan", "http://192.168.1.1/login-secure-verify")
	require.NoError(t, err)
	assert.Contains(t, out, "[!] THREAT http://192.168.1.1/login-secure-verify")
	assert.Contains(t, out, "ip_literal")
	assert.Contains(t, errOut, "[!] Potential threat detected")

	out, _, err = h.run("stats", "--json")
	require.NoError(t, err)
	var snap model.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, model.Snapshot{TotalScans: 1, ThreatsDetected: 1}, snap)
}

func TestScan_Batch(t *testing.T) {
	h := newHarness(t)
	list := filepath.Join(h.dir, "urls.txt")
	require.NoError(t, os.WriteFile(list, []byte("# seeds\nhttps://example.com/\n\nhttp://bit.ly/abc\nhttp://exa mple.com\n"), 0o644))
	jsonl := filepath.Join(h.dir, "out", "results.jsonl")

	out, errOut, err := h.run("scan", "-f", list, "--jsonl", jsonl)
	require.NoError(t, err)
	lines := verdictLines(out)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "[+] SAFE   https://example.com/"))
	assert.True(t, strings.HasPrefix(lines[2], "[-] ERROR  http://exa mple.com"))
	assert.Contains(t, errOut, "Batch complete: 3 URLs analyzed")

	data, err := os.ReadFile(jsonl)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\n"))

	out, _, err = h.run("history")
	require.NoError(t, err)
	lines = verdictLines(out)
	assert.True(t, strings.HasPrefix(lines[0], "[-] ERROR"), "history prints newest first")
}

func TestScan_Errors(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("scan")
	assert.ErrorContains(t, err, "at least one URL")

	_, _, err = h.run("scan", "-f", filepath.Join(h.dir, "missing.txt"))
	assert.ErrorContains(t, err, "failed to open URL list")

	_, _, err = h.run("scan", "--fail-on-threat", "http://10.0.0.1/login/verify")
	assert.ErrorContains(t, err, "1 unsafe URL(s) detected")

	_, _, err = h.run("scan", "--fail-on-threat", "https://example.com")
	assert.NoError(t, err)
}

func TestSettings(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("settings", "get", "scan_depth")
	require.NoError(t, err)
	assert.Equal(t, "standard\n", out)

	out, _, err = h.run("settings", "set", "scan_depth", "quick")
	require.NoError(t, err)
	assert.Equal(t, "[*] scan_depth = quick\n", out)

	out, _, err = h.run("settings")
	require.NoError(t, err)
	assert.Contains(t, out, "non_https, ip_literal, denylist")

	out, _, err = h.run("scan", "https://example.com/login/verify/account")
	require.NoError(t, err)
	assert.Contains(t, out, "(score 0)")

	_, _, err = h.run("settings", "set", "theme", "neon")
	assert.ErrorContains(t, err, "unknown theme")

	_, _, err = h.run("settings", "set", "notifications", "maybe")
	assert.ErrorContains(t, err, "invalid value")

	_, _, err = h.run("settings", "get", "colour")
	assert.ErrorContains(t, err, "unknown setting")
}

func TestSettings_NotificationsOff(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("settings", "set", "notifications", "false")
	require.NoError(t, err)

	_, errOut, err := h.run("scan", "https://example.com")
	require.NoError(t, err)
	assert.NotContains(t, errOut, "Safe URL detected")
}

func TestHistory_ExportAndClear(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("scan", "https://example.com", "http://10.0.0.1/")
	require.NoError(t, err)

	report := filepath.Join(h.dir, "report.html")
	export := filepath.Join(h.dir, "history.jsonl")
	_, _, err = h.run("history", "--html", report, "--jsonl", export)
	require.NoError(t, err)
	html, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(html), "LinkSentry History Report")
	data, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))

	out, _, err := h.run("history", "-n", "1")
	require.NoError(t, err)
	assert.Len(t, verdictLines(out), 1)

	out, _, err = h.run("history", "--clear")
	require.NoError(t, err)
	assert.Equal(t, "[*] Cleared 2 history entries\n", out)

	out, _, err = h.run("history")
	require.NoError(t, err)
	assert.Equal(t, "[*] History is empty\n", out)

	out, _, err = h.run("stats", "--json")
	require.NoError(t, err)
	var snap model.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 2, snap.TotalScans, "clearing history keeps analytics")
}

func TestConfig_InvalidFile(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.cfgPath, []byte("analyzer:\n  safe_threshold: 0\n"), 0o644))
	_, _, err := h.run("stats")
	assert.ErrorContains(t, err, "safe_threshold")
}

func TestEnvFile(t *testing.T) {
	h := newHarness(t)
	env := filepath.Join(h.dir, "linksentry.env")
	require.NoError(t, os.WriteFile(env, []byte("LINKSENTRY_ANALYZER_SAFE_THRESHOLD=20\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LINKSENTRY_ANALYZER_SAFE_THRESHOLD") })

	out, _, err := h.run("--env-file", env, "scan", "http://bit.ly/x")
	require.NoError(t, err)
	assert.Contains(t, out, "[!] THREAT http://bit.ly/x (score 20)")

	_, _, err = h.run("--env-file", filepath.Join(h.dir, "missing.env"), "stats")
	assert.ErrorContains(t, err, "error reading env file")
}

func TestVersion(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, Version+"\n", out.String())
}
