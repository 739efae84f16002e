// Package drive defines the boundary to the wrapped Google Drive service.
//
// Drivegate itself never talks to the Google APIs: fetching is delegated to a
// [Service] implementation selected via configuration. The package only fixes
// the shape of what a fetch produces — a [Content] value carrying the raw
// service response alongside a flattened plain-text projection that the
// resource cache slices by character range.
//
// Backends live in subpackages ([localdir] serves a sandboxed local
// directory; tests use the map-backed double in [mock]).
package drive

import "context"

// ResourceType classifies what kind of Drive resource a fetch produced.
type ResourceType string

const (
	TypeDocument    ResourceType = "document"
	TypeSpreadsheet ResourceType = "spreadsheet"
	TypeFile        ResourceType = "file"
)

// IsValid reports whether t is a recognised resource type.
func (t ResourceType) IsValid() bool {
	switch t {
	case TypeDocument, TypeSpreadsheet, TypeFile:
		return true
	}
	return false
}

// Content is one fetched resource.
type Content struct {
	// ID is the Drive resource identifier, unique per backend.
	ID string

	// Name is the human-readable resource name (document title, file name).
	Name string

	// MIMEType is the content type reported by the backend.
	MIMEType string

	// Type classifies the resource.
	Type ResourceType

	// Raw is the full structured response from the backend. Opaque to the
	// caching and slicing layers; kept so future actions can project it.
	Raw any

	// Text is the flattened plain-text projection used for character-range
	// slicing and truncation.
	Text string
}

// ValueRange is one rectangle of spreadsheet values, addressed by a
// service-specific range string (A1 notation for the Google backend).
type ValueRange struct {
	Range  string
	Values [][]string
}

// Service fetches content from the wrapped document service.
//
// Implementations must be safe for concurrent use and must respect context
// cancellation. Errors are returned for transport or not-found failures; an
// empty resource is not an error.
type Service interface {
	// FetchDocument retrieves a document and its flattened text.
	FetchDocument(ctx context.Context, id string) (*Content, error)

	// FetchSpreadsheet retrieves a spreadsheet and a flattened text
	// projection of its cell grid.
	FetchSpreadsheet(ctx context.Context, id string) (*Content, error)

	// FetchFile retrieves an arbitrary Drive file exported as text.
	FetchFile(ctx context.Context, id string) (*Content, error)

	// BatchGetValues retrieves specific cell ranges from a spreadsheet
	// without flattening the whole sheet.
	BatchGetValues(ctx context.Context, id string, ranges []string) ([]ValueRange, error)
}
