// Package decode turns the raw text an extraction service returns into a
// typed extraction result. Responses arrive as direct JSON, JSON inside a
// fenced markdown block, or JSON buried in prose; the decoder works through
// those shapes strict-to-lenient and fails with a typed error only when no
// tier yields a parseable payload.
package decode

import (
	"encoding/json"
	"regexp"
	"strings"

	"invoiceledger/pkg/domain"
)

// Tier identifies which fallback strategy recovered the payload.
type Tier int

// Decoder tiers, ordered strict to lenient.
const (
	// TierDirect parsed the whole input as JSON.
	TierDirect Tier = iota + 1
	// TierFenced extracted the payload from a fenced code block.
	TierFenced
	// TierGreedy took the span from the first "{" to the last "}".
	TierGreedy
)

func (t Tier) String() string {
	switch t {
	case TierDirect:
		return "direct"
	case TierFenced:
		return "fenced"
	case TierGreedy:
		return "greedy"
	default:
		return "none"
	}
}

// fencedBlock matches a fenced code block with an optional json language tag
// and captures the innermost brace-delimited span.
var fencedBlock = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")

// Decode converts raw extraction output into a typed result. Missing or
// malformed categories degrade to empty slices with a partial_extraction
// warning; only the absence of any parseable payload is an error.
func Decode(raw string) (domain.ExtractionResult, domain.Result, error) {
	result, _, warnings, err := DecodeTiered(raw)
	return result, warnings, err
}

// DecodeTiered is Decode with the recovering tier exposed for logging and
// metrics.
func DecodeTiered(raw string) (domain.ExtractionResult, Tier, domain.Result, error) {
	text := unwrapEnvelope(raw)

	for _, attempt := range []struct {
		tier    Tier
		extract func(string) (string, bool)
	}{
		{TierDirect, extractDirect},
		{TierFenced, extractFenced},
		{TierGreedy, extractGreedy},
	} {
		candidate, ok := attempt.extract(text)
		if !ok {
			continue
		}
		payload, ok := parseObject(candidate)
		if !ok {
			continue
		}
		result, warnings := assembleResult(payload)
		return result, attempt.tier, warnings, nil
	}

	return domain.ExtractionResult{}, 0, domain.Result{}, domain.NewDecodeError("no parseable payload in response", text)
}

func extractDirect(text string) (string, bool) {
	return strings.TrimSpace(text), true
}

func extractFenced(text string) (string, bool) {
	match := fencedBlock.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return strings.TrimSpace(match[1]), true
}

func extractGreedy(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// parseObject parses candidate as a JSON object with raw category values.
func parseObject(candidate string) (map[string]json.RawMessage, bool) {
	if candidate == "" {
		return nil, false
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, false
	}
	// A bare null unmarshals into a nil map without error; that is not a
	// payload.
	if payload == nil {
		return nil, false
	}
	return payload, true
}

// assembleResult unmarshals the three categories independently so a malformed
// substructure in one never blocks the other two. metadata is accepted and
// carried through untouched.
func assembleResult(payload map[string]json.RawMessage) (domain.ExtractionResult, domain.Result) {
	var (
		result   domain.ExtractionResult
		warnings domain.Result
	)

	if !decodeCategory(payload, "invoices", &result.Invoices) {
		warnings.Merge(partialWarning(domain.EntityInvoice, "invoices"))
	}
	if !decodeCategory(payload, "products", &result.Products) {
		warnings.Merge(partialWarning(domain.EntityProduct, "products"))
	}
	if !decodeCategory(payload, "customers", &result.Customers) {
		warnings.Merge(partialWarning(domain.EntityCustomer, "customers"))
	}
	if raw, ok := payload["metadata"]; ok {
		// Best effort: malformed metadata is dropped, not warned about.
		_ = json.Unmarshal(raw, &result.Metadata)
	}

	normalize(&result)
	return result, warnings
}

func decodeCategory[T any](payload map[string]json.RawMessage, key string, dest *[]T) bool {
	raw, ok := payload[key]
	if !ok {
		*dest = []T{}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		*dest = []T{}
		return false
	}
	if *dest == nil {
		*dest = []T{}
	}
	return true
}

func partialWarning(entity domain.EntityType, category string) domain.Result {
	return domain.Result{Warnings: []domain.Warning{{
		Code:     domain.WarnPartialExtraction,
		Severity: domain.SeverityWarn,
		Message:  "extraction payload missing or malformed category " + category + "; defaulted to empty",
		Entity:   entity,
	}}}
}
