package resource

import (
	"fmt"

	"github.com/MrWong99/drivegate/internal/rescache"
)

// Result is the structured outcome of serving a resource URI. Failures in
// this layer are data, not errors: every branch, including cache misses
// and unimplemented actions, produces a Result rather than a Go error.
type Result struct {
	// OK reports whether Content carries served text.
	OK bool

	// Content is the served text slice. Meaningful only when OK.
	Content string

	// Err is a fixed-template message describing why no content was
	// served. Empty when OK.
	Err string

	// Hint tells the caller how to recover, e.g. which fetch tool to
	// invoke first. May accompany either outcome.
	Hint string

	// Cache reports what the cache lookup observed, so the caller can
	// account hits, misses, and lazy evictions. Zero for legacy URIs,
	// which never consult the cache.
	Cache rescache.Outcome
}

// cacheMissHint directs the caller at the fetch tools that populate the
// cache before a resource read can succeed.
const cacheMissHint = "First fetch the document using the appropriate tool (gdocs_get_document, gsheets_get_spreadsheet, or gdrive_read_file) to populate the cache."

// Server resolves parsed resource URIs against the TTL cache.
type Server struct {
	cache *rescache.Cache
}

// NewServer returns a Server backed by cache. The cache is shared with
// the fetch tools that populate it; the server only reads.
func NewServer(cache *rescache.Cache) *Server {
	return &Server{cache: cache}
}

// Serve answers a parsed resource URI from the cache.
//
// Legacy URIs are answered with a redirect hint and never touch the
// cache. For typed URIs a miss (absent or expired entry) yields a
// recoverable error with a hint naming the fetch tools. Chunk requests
// are clamped to the cached text: a start past the end of the text
// yields an empty string, which is defined boundary behaviour rather
// than a failure.
func (s *Server) Serve(p Parsed) Result {
	if p.Kind == KindLegacy {
		return Result{Hint: "Legacy URI format - use standard resource fetch"}
	}

	entry, out := s.cache.Get(p.ResourceID)
	if out != rescache.OutcomeHit {
		return Result{
			Err:   fmt.Sprintf("Cache miss for resource: %s", p.ResourceID),
			Hint:  cacheMissHint,
			Cache: out,
		}
	}

	switch p.Action {
	case ActionContent:
		if p.Chunk != nil {
			return Result{OK: true, Content: sliceText(entry.Text, p.Chunk), Cache: out}
		}
		return Result{OK: true, Content: entry.Text, Cache: out}

	case ActionChunk:
		return Result{OK: true, Content: sliceText(entry.Text, p.Chunk), Cache: out}

	case ActionStructure:
		return Result{
			Err:   "Structure extraction not yet implemented",
			Hint:  "Use content or chunk actions to access document text",
			Cache: out,
		}

	case ActionValues:
		return Result{
			Err:   "Sheet values extraction not yet implemented",
			Hint:  "Use sheets_batchGetValues tool to fetch specific ranges",
			Cache: out,
		}

	default:
		return Result{Err: fmt.Sprintf("Unknown action: %s", p.Action), Cache: out}
	}
}

// sliceText returns the half-open character range [c.Start, c.End) of
// text, clamped to the text length. A nil range means the whole text.
func sliceText(text string, c *ChunkRange) string {
	runes := []rune(text)
	if c == nil {
		return text
	}
	start, end := c.Start, c.End
	if end > len(runes) {
		end = len(runes)
	}
	if start >= len(runes) || start >= end {
		return ""
	}
	return string(runes[start:end])
}
