package model

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Severity grades a triggered heuristic on a low/medium/high scale.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Weight is the score contribution of a flag with this severity.
func (s Severity) Weight() int {
	switch s {
	case SeverityLow:
		return 10
	case SeverityMedium:
		return 25
	case SeverityHigh:
		return 50
	default:
		return 0
	}
}

// ErrorText is the message carried by a verdict that could not be produced.
const ErrorText = "Failed to analyze"

// Flag is a single triggered heuristic.
type Flag struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
}

// Verdict is the outcome of analyzing one URL. ID and Timestamp are left
// empty by the analyzer and filled in by the runner.
type Verdict struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Safe      bool      `json:"safe"`
	RiskScore int       `json:"riskScore"`
	Flags     []Flag    `json:"flags,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// IsError reports whether v is an error-tagged result.
func (v Verdict) IsError() bool { return v.Error != "" }

type verdictJSON Verdict

type errorVerdictJSON struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error"`
}

// MarshalJSON encodes error-tagged results without safe, riskScore or flags.
func (v Verdict) MarshalJSON() ([]byte, error) {
	if v.IsError() {
		return json.Marshal(errorVerdictJSON{ID: v.ID, URL: v.URL, Timestamp: v.Timestamp, Error: v.Error})
	}
	return json.Marshal(verdictJSON(v))
}

// Snapshot holds the running analytics counters.
// TotalScans == SafeURLs + ThreatsDetected + Errors.
type Snapshot struct {
	TotalScans      int `json:"totalScans"`
	SafeURLs        int `json:"safeUrls"`
	ThreatsDetected int `json:"threatsDetected"`
	Errors          int `json:"errors"`
	Accuracy        int `json:"accuracy"`
}
