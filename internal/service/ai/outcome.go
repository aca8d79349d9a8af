package ai

import (
	"encoding/json"
	"strings"

	"dolo/internal/models"
)

// Outcome is the normalized result of a successful provider exchange.
// Analysis is set only when the reply was a JSON object matching the
// analysis schema; Raw always carries the provider's verbatim text. A reply
// that fails to parse is still a success, it just degrades to raw text.
type Outcome struct {
	Analysis *models.ReportAnalysis
	Raw      string
}

// Response returns the client-facing payload: the structured analysis when
// present, the raw text otherwise.
func (o Outcome) Response() any {
	if o.Analysis != nil {
		return o.Analysis
	}
	return o.Raw
}

// UpstreamError marks a failed provider invocation (network, auth, quota,
// malformed request). The wrapped message is surfaced to the client.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// normalize interprets a raw reply as structured analysis where possible.
func normalize(raw string) Outcome {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var parsed models.ReportAnalysis
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			return Outcome{Analysis: &parsed, Raw: raw}
		}
	}
	return Outcome{Raw: raw}
}
