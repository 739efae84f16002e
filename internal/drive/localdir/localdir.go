// Package localdir implements [drive.Service] against a sandboxed local
// directory, for development and tests where no Google credentials exist.
//
// The root directory is laid out by resource type:
//
//	<root>/docs/<id>.txt     documents (plain text)
//	<root>/sheets/<id>.csv   spreadsheets (CSV, first row may be headers)
//	<root>/files/<id>        arbitrary files served verbatim
//
// Resource IDs are resolved relative to the root; traversal attempts
// (e.g. "../") are rejected with an error. Range semantics for
// BatchGetValues are approximate: the backend returns the whole grid for
// any requested range, which is enough for exercising callers.
package localdir

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrWong99/drivegate/internal/drive"
)

// maxFileBytes is the largest file the backend will serve. Larger files
// are rejected so a stray binary cannot blow up the cache.
const maxFileBytes = 8 << 20 // 8 MiB

// rawMeta is the structured "service response" for a local fetch. It
// stands in for the JSON document the real API would return.
type rawMeta struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Service serves Drive-shaped content from a local directory tree.
// Safe for concurrent use; all state is the immutable root path.
type Service struct {
	root string
}

// Compile-time check: Service must implement drive.Service.
var _ drive.Service = (*Service)(nil)

// New returns a Service rooted at dir. dir must be an existing directory.
func New(dir string) (*Service, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("localdir: root %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("localdir: root %q is not a directory", dir)
	}
	return &Service{root: dir}, nil
}

// Ping reports whether the content root is still a readable directory. Used
// by the readiness probe.
func (s *Service) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("localdir: root %q: %w", s.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("localdir: root %q is not a directory", s.root)
	}
	return nil
}

// FetchDocument reads <root>/docs/<id>.txt.
func (s *Service) FetchDocument(ctx context.Context, id string) (*drive.Content, error) {
	text, meta, err := s.readFile(ctx, filepath.Join("docs", id+".txt"))
	if err != nil {
		return nil, fmt.Errorf("localdir: document %q: %w", id, err)
	}
	return &drive.Content{
		ID:       id,
		Name:     id,
		MIMEType: "text/plain",
		Type:     drive.TypeDocument,
		Raw:      meta,
		Text:     text,
	}, nil
}

// FetchSpreadsheet reads <root>/sheets/<id>.csv and flattens the grid to
// tab-separated rows.
func (s *Service) FetchSpreadsheet(ctx context.Context, id string) (*drive.Content, error) {
	grid, meta, err := s.readGrid(ctx, id)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	for i, row := range grid {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Join(row, "\t"))
	}
	return &drive.Content{
		ID:       id,
		Name:     id,
		MIMEType: "text/csv",
		Type:     drive.TypeSpreadsheet,
		Raw:      meta,
		Text:     sb.String(),
	}, nil
}

// FetchFile reads <root>/files/<id> verbatim.
func (s *Service) FetchFile(ctx context.Context, id string) (*drive.Content, error) {
	text, meta, err := s.readFile(ctx, filepath.Join("files", id))
	if err != nil {
		return nil, fmt.Errorf("localdir: file %q: %w", id, err)
	}
	return &drive.Content{
		ID:       id,
		Name:     filepath.Base(id),
		MIMEType: "application/octet-stream",
		Type:     drive.TypeFile,
		Raw:      meta,
		Text:     text,
	}, nil
}

// BatchGetValues returns the full grid for every requested range. The
// local backend does not interpret A1 notation; each range is echoed
// back with the whole sheet, which keeps callers exercisable without a
// spreadsheet engine.
func (s *Service) BatchGetValues(ctx context.Context, id string, ranges []string) ([]drive.ValueRange, error) {
	grid, _, err := s.readGrid(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]drive.ValueRange, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, drive.ValueRange{Range: r, Values: grid})
	}
	return out, nil
}

// readGrid parses <root>/sheets/<id>.csv into rows of cells.
func (s *Service) readGrid(ctx context.Context, id string) ([][]string, rawMeta, error) {
	raw, meta, err := s.readFile(ctx, filepath.Join("sheets", id+".csv"))
	if err != nil {
		return nil, rawMeta{}, fmt.Errorf("localdir: spreadsheet %q: %w", id, err)
	}
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1 // ragged rows are fine
	grid, err := reader.ReadAll()
	if err != nil {
		return nil, rawMeta{}, fmt.Errorf("localdir: spreadsheet %q: parse csv: %w", id, err)
	}
	return grid, meta, nil
}

// readFile resolves relPath inside the sandbox and returns its content.
func (s *Service) readFile(ctx context.Context, relPath string) (string, rawMeta, error) {
	absPath, err := safePath(s.root, relPath)
	if err != nil {
		return "", rawMeta{}, err
	}

	if err := ctx.Err(); err != nil {
		return "", rawMeta{}, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", rawMeta{}, err
	}
	if info.Size() > maxFileBytes {
		return "", rawMeta{}, fmt.Errorf("file is too large (%d bytes, max %d)", info.Size(), maxFileBytes)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", rawMeta{}, err
	}
	return string(data), rawMeta{
		Path:    relPath,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// safePath resolves relPath against baseDir and verifies that the
// resolved path remains inside baseDir, preventing path traversal.
func safePath(baseDir, relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("path must not be empty")
	}
	joined := filepath.Join(baseDir, relPath)
	cleanBase := filepath.Clean(baseDir)
	if !strings.HasPrefix(joined, cleanBase+string(filepath.Separator)) && joined != cleanBase {
		return "", fmt.Errorf("path %q escapes the sandbox directory", relPath)
	}
	return joined, nil
}
