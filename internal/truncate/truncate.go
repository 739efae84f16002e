// Package truncate enforces the character budget on tool responses.
//
// Every string a tool returns inline passes through [Truncate], which caps
// it at [CharacterLimit] characters and appends a machine-readable trailer
// so callers can detect the cut and follow the hint to retrieve the rest
// (typically via a gdrive:// resource URI). Downstream consumers pattern
// match on the "--- TRUNCATED ---" marker, so the trailer format is part
// of the wire contract and must stay byte-for-byte stable.
//
// A "character" here is a Unicode code point, so a cut never splits an
// encoded rune.
package truncate

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// CharacterLimit is the default response budget in characters.
const CharacterLimit = 25000

// Marker is the literal line consumers pattern match to detect truncation.
const Marker = "--- TRUNCATED ---"

// DefaultHint is appended to the trailer when the caller does not supply
// a tool-specific pointer to the remainder.
const DefaultHint = "Request a narrower range or use the default summary response mode to avoid truncation."

// Result is the outcome of a truncation pass.
type Result struct {
	// Text is the bounded response text, including the trailer when cut.
	Text string

	// Truncated reports whether the content was cut.
	Truncated bool

	// OriginalLength is the character count of the input before the cut.
	// Zero when Truncated is false.
	OriginalLength int
}

// Option customises a single Truncate call.
type Option func(*options)

type options struct {
	limit int
	hint  string
}

// WithLimit overrides the character budget. A limit of 0 is legal and
// degenerate: the whole content is replaced by the trailer alone.
// Negative limits are treated as 0.
func WithLimit(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.limit = n
	}
}

// WithHint overrides [DefaultHint] with a tool-specific pointer, e.g. to
// a chunked resource URI or a batch-range tool.
func WithHint(hint string) Option {
	return func(o *options) { o.hint = hint }
}

// Truncate bounds content to the configured character limit.
//
// Content at or under the limit is returned unchanged. Oversized content
// is cut at the limit and the trailer is appended:
//
//	\n\n--- TRUNCATED ---\nResponse truncated from {orig} to {limit} characters.\n{hint}
//
// with both counts thousands-separated. Truncation is not an error; the
// result always carries actionable guidance for retrieving the remainder.
func Truncate(content string, opts ...Option) Result {
	o := options{limit: CharacterLimit, hint: DefaultHint}
	for _, opt := range opts {
		opt(&o)
	}

	runes := []rune(content)
	if len(runes) <= o.limit {
		return Result{Text: content}
	}

	trailer := fmt.Sprintf("\n\n%s\nResponse truncated from %s to %s characters.\n%s",
		Marker,
		humanize.Comma(int64(len(runes))),
		humanize.Comma(int64(o.limit)),
		o.hint,
	)
	return Result{
		Text:           string(runes[:o.limit]) + trailer,
		Truncated:      true,
		OriginalLength: len(runes),
	}
}
