package domain

import "fmt"

const decodeSnippetLimit = 160

// DecodeError reports that no tier of the decoder produced a parseable
// structured payload. Snippet carries a bounded excerpt of the offending
// input for diagnostics.
type DecodeError struct {
	Reason  string
	Snippet string
}

func (e *DecodeError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("decode: %s", e.Reason)
	}
	return fmt.Sprintf("decode: %s: %q", e.Reason, e.Snippet)
}

// NewDecodeError builds a DecodeError, truncating the snippet to a bounded
// length so log lines stay readable.
func NewDecodeError(reason, input string) *DecodeError {
	snippet := input
	if len(snippet) > decodeSnippetLimit {
		snippet = snippet[:decodeSnippetLimit] + "..."
	}
	return &DecodeError{Reason: reason, Snippet: snippet}
}
