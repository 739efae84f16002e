// Package resource implements the out-of-band addressing scheme for cached
// Drive content: the gdrive:// URI grammar, its parser, and the content
// server that resolves parsed URIs against the resource cache.
//
// The grammar is the wire contract for resource addressing:
//
//	gdrive:///{fileId}                                   (legacy, deprecated)
//	gdrive://docs/{id}/content
//	gdrive://docs/{id}/structure
//	gdrive://docs/{id}/chunk/{start}-{end}
//	gdrive://sheets/{id}/values/{urlEncodedRange}
//	gdrive://files/{id}/content
//	gdrive://files/{id}/content/{start}-{end}
//
// Parse error messages are surfaced verbatim to callers and are therefore
// part of the contract; do not reword them casually.
package resource

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Kind discriminates the valid parsed URI forms.
type Kind string

const (
	// KindLegacy is the deprecated gdrive:///{fileId} form. Legacy
	// addressing is not backed by the cache.
	KindLegacy Kind = "legacy"

	KindDoc   Kind = "doc"
	KindSheet Kind = "sheet"
	KindFile  Kind = "file"
)

// Action names the operation a typed URI requests on a resource.
type Action string

const (
	ActionContent   Action = "content"
	ActionChunk     Action = "chunk"
	ActionStructure Action = "structure"
	ActionValues    Action = "values"
)

// ChunkRange is a half-open character interval [Start, End) into the
// cached text projection. Start >= 0 and End > Start by construction.
type ChunkRange struct {
	Start int
	End   int
}

// Parsed is the structured form of a valid gdrive:// resource URI.
type Parsed struct {
	Kind       Kind
	ResourceID string

	// Action is empty for the legacy form.
	Action Action

	// Chunk carries the character range for docs chunk actions and for
	// files content-range requests. Nil means whole content.
	Chunk *ChunkRange

	// SheetRange is the URL-decoded range string for sheet values
	// actions. Its syntax is service-specific and opaque to this layer.
	SheetRange string
}

const (
	legacyPrefix = "gdrive:///"
	scheme       = "gdrive://"
)

// chunkRangePattern matches the {start}-{end} range parameter.
var chunkRangePattern = regexp.MustCompile(`^\d+-\d+$`)

// errSurplusSegments rejects URIs with path segments beyond what the
// addressed form defines. Trailing junk is never silently dropped.
var errSurplusSegments = errors.New("Invalid resource URI format")

// Parse validates and decomposes a resource URI.
//
// It is a total function over strings with no side effects: every input
// yields either a Parsed value or an error carrying one of the fixed
// message templates. The legacy triple-slash form is checked before the
// typed form because both share the gdrive:// prefix.
func Parse(uri string) (Parsed, error) {
	if strings.HasPrefix(uri, legacyPrefix) {
		id := strings.TrimPrefix(uri, legacyPrefix)
		if id == "" {
			return Parsed{}, errors.New("Empty file ID in legacy URI")
		}
		return Parsed{Kind: KindLegacy, ResourceID: id}, nil
	}

	if !strings.HasPrefix(uri, scheme) {
		return Parsed{}, errors.New("Invalid URI scheme")
	}

	segments := strings.Split(strings.TrimPrefix(uri, scheme), "/")
	if len(segments) < 2 {
		return Parsed{}, errors.New("URI must have at least type and resource ID")
	}

	resourceType := segments[0]
	resourceID := segments[1]
	rest := segments[2:]

	if resourceID == "" {
		return Parsed{}, errors.New("Missing resource ID")
	}

	switch resourceType {
	case "docs":
		return parseDocs(resourceID, rest)
	case "sheets":
		return parseSheets(resourceID, rest)
	case "files":
		return parseFiles(resourceID, rest)
	default:
		return Parsed{}, fmt.Errorf("Unknown resource type: %s. Valid types: docs, sheets, files", resourceType)
	}
}

// parseDocs handles the segments after docs/{id}. content and structure
// take no parameter; chunk takes exactly one.
func parseDocs(id string, rest []string) (Parsed, error) {
	var action string
	if len(rest) > 0 {
		action = rest[0]
	}
	switch action {
	case "":
		return Parsed{}, errors.New("Docs URI requires action: content, chunk, or structure")
	case "content":
		if len(rest) > 1 {
			return Parsed{}, errSurplusSegments
		}
		return Parsed{Kind: KindDoc, ResourceID: id, Action: ActionContent}, nil
	case "structure":
		if len(rest) > 1 {
			return Parsed{}, errSurplusSegments
		}
		return Parsed{Kind: KindDoc, ResourceID: id, Action: ActionStructure}, nil
	case "chunk":
		if len(rest) > 2 {
			return Parsed{}, errSurplusSegments
		}
		var param string
		if len(rest) == 2 {
			param = rest[1]
		}
		if param == "" {
			return Parsed{}, errors.New("Chunk action requires range parameter (e.g. chunk/0-5000)")
		}
		r, err := parseChunkRange(param)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{Kind: KindDoc, ResourceID: id, Action: ActionChunk, Chunk: &r}, nil
	default:
		return Parsed{}, fmt.Errorf("Unknown docs action: %s. Valid actions: content, chunk, structure", action)
	}
}

// parseSheets handles the segments after sheets/{id}. The only action is
// values, which takes exactly one URL-encoded range parameter; a raw
// slash in an unencoded range therefore fails the segment-count check.
func parseSheets(id string, rest []string) (Parsed, error) {
	if len(rest) == 0 || rest[0] != "values" {
		return Parsed{}, errors.New(`Sheets URI requires "values" action (e.g. sheets/{id}/values/{range})`)
	}
	if len(rest) > 2 {
		return Parsed{}, errSurplusSegments
	}
	var param string
	if len(rest) == 2 {
		param = rest[1]
	}
	if param == "" {
		return Parsed{}, errors.New("Sheets values action requires range parameter (e.g. values/Sheet1!A1:B10)")
	}
	decoded, err := url.PathUnescape(param)
	if err != nil {
		return Parsed{}, fmt.Errorf("Invalid URL-encoded range: %s", param)
	}
	return Parsed{Kind: KindSheet, ResourceID: id, Action: ActionValues, SheetRange: decoded}, nil
}

// parseFiles handles the segments after files/{id}. The only action is
// content, with an optional single range parameter.
func parseFiles(id string, rest []string) (Parsed, error) {
	if len(rest) == 0 || rest[0] != "content" {
		return Parsed{}, errors.New(`Files URI requires "content" action`)
	}
	if len(rest) > 2 {
		return Parsed{}, errSurplusSegments
	}
	var param string
	if len(rest) == 2 {
		param = rest[1]
	}
	if param == "" {
		// Whole-file request.
		return Parsed{Kind: KindFile, ResourceID: id, Action: ActionContent}, nil
	}
	r, err := parseChunkRange(param)
	if err != nil {
		return Parsed{}, err
	}
	return Parsed{Kind: KindFile, ResourceID: id, Action: ActionContent, Chunk: &r}, nil
}

// parseChunkRange validates a {start}-{end} parameter. The same rule and
// messages apply to docs chunk actions and files content ranges.
func parseChunkRange(param string) (ChunkRange, error) {
	if !chunkRangePattern.MatchString(param) {
		return ChunkRange{}, errors.New("Invalid chunk range format. Expected {start}-{end} (e.g. 0-5000)")
	}
	dash := strings.IndexByte(param, '-')
	start, err := strconv.Atoi(param[:dash])
	if err != nil {
		return ChunkRange{}, errors.New("Invalid chunk range format. Expected {start}-{end} (e.g. 0-5000)")
	}
	end, err := strconv.Atoi(param[dash+1:])
	if err != nil {
		return ChunkRange{}, errors.New("Invalid chunk range format. Expected {start}-{end} (e.g. 0-5000)")
	}
	if start < 0 {
		return ChunkRange{}, errors.New("Chunk range start index must not be negative")
	}
	if end <= start {
		return ChunkRange{}, errors.New("Chunk range end index must be greater than start index")
	}
	return ChunkRange{Start: start, End: end}, nil
}

// ─── URI builders ────────────────────────────────────────────────────────────
//
// The fetch tools construct resource URIs through these helpers so the
// grammar lives in exactly one place and round-trips through Parse.

// DocContentURI addresses the full flattened text of a document.
func DocContentURI(id string) string {
	return scheme + "docs/" + id + "/content"
}

// DocChunkURI addresses the character range [start, end) of a document.
func DocChunkURI(id string, start, end int) string {
	return fmt.Sprintf("%sdocs/%s/chunk/%d-%d", scheme, id, start, end)
}

// SheetValuesURI addresses a cell range of a spreadsheet. The range is
// URL-escaped into the final path segment.
func SheetValuesURI(id, valueRange string) string {
	return scheme + "sheets/" + id + "/values/" + url.PathEscape(valueRange)
}

// FileContentURI addresses the full text of a file.
func FileContentURI(id string) string {
	return scheme + "files/" + id + "/content"
}

// FileRangeURI addresses the character range [start, end) of a file.
func FileRangeURI(id string, start, end int) string {
	return fmt.Sprintf("%sfiles/%s/content/%d-%d", scheme, id, start, end)
}
