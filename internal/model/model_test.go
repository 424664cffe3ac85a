package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityWeight(t *testing.T) {
	assert.Equal(t, 10, SeverityLow.Weight())
	assert.Equal(t, 25, SeverityMedium.Weight())
	assert.Equal(t, 50, SeverityHigh.Weight())
	assert.Equal(t, 0, Severity("critical").Weight())
}

func TestVerdictIsError(t *testing.T) {
	assert.False(t, Verdict{URL: "https://example.com", Safe: true}.IsError())
	assert.True(t, Verdict{URL: "bad", Error: ErrorText}.IsError())
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())

	s := DefaultSettings()
	s.Theme = "neon"
	assert.EqualError(t, s.Validate(), `unknown theme "neon"`)

	s = DefaultSettings()
	s.ScanDepth = "paranoid"
	assert.EqualError(t, s.Validate(), `unknown scan depth "paranoid"`)
}

func TestVerdictJSON(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	failed := Verdict{ID: "e1", URL: "http://exa mple.com", Timestamp: ts, Error: ErrorText}
	raw, err := json.Marshal(failed)
	require.NoError(t, err)
	var keys map[string]any
	require.NoError(t, json.Unmarshal(raw, &keys))
	assert.ElementsMatch(t, []string{"id", "url", "timestamp", "error"}, mapKeys(keys))

	var back Verdict
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, failed, back)

	ok := Verdict{ID: "v1", URL: "https://example.com", Safe: true, Timestamp: ts}
	raw, err = json.Marshal(ok)
	require.NoError(t, err)
	keys = nil
	require.NoError(t, json.Unmarshal(raw, &keys))
	assert.ElementsMatch(t, []string{"id", "url", "safe", "riskScore", "timestamp"}, mapKeys(keys))

	// nested verdicts, as in the persisted ledger, use the same encoding
	raw, err = json.Marshal([]Verdict{ok, failed})
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list, 2)
	assert.Contains(t, list[0], "riskScore")
	assert.NotContains(t, list[1], "riskScore")
	assert.NotContains(t, list[1], "safe")
}

func mapKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
