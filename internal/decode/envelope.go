package decode

import (
	"encoding/json"
	"strings"
)

// responseEnvelope mirrors the generative-API response shape some callers
// hand the decoder verbatim: the interesting text sits at
// candidates[0].content.parts[0].text.
type responseEnvelope struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// unwrapEnvelope reduces a full API response object to its inner text
// payload. Anything that does not look like an envelope is returned as-is.
func unwrapEnvelope(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") || !strings.Contains(trimmed, "\"candidates\"") {
		return raw
	}
	var envelope responseEnvelope
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return raw
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return raw
	}
	if text := envelope.Candidates[0].Content.Parts[0].Text; text != "" {
		return text
	}
	return raw
}
