// Package mock provides a test double for the drive.Service interface.
//
// Pre-populate Documents, Spreadsheets and Files with the Content values
// a test needs, then inspect the recorded calls. Per-method error fields
// override the lookup when set.
//
// Example:
//
//	svc := &mock.Service{
//	    Documents: map[string]*drive.Content{"d1": {ID: "d1", Text: "body"}},
//	}
//	got, _ := svc.FetchDocument(ctx, "d1")
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrWong99/drivegate/internal/drive"
)

// FetchCall records a single fetch invocation.
type FetchCall struct {
	// Ctx is the context passed to the fetch method.
	Ctx context.Context
	// ID is the resource ID passed to the fetch method.
	ID string
}

// BatchGetValuesCall records a single invocation of BatchGetValues.
type BatchGetValuesCall struct {
	// Ctx is the context passed to BatchGetValues.
	Ctx context.Context
	// ID is the spreadsheet ID passed to BatchGetValues.
	ID string
	// Ranges is a copy of the requested ranges in order.
	Ranges []string
}

// Service is a mock implementation of drive.Service.
type Service struct {
	mu sync.Mutex

	// Documents maps IDs to the Content returned by FetchDocument.
	// A missing ID yields a not-found error.
	Documents map[string]*drive.Content

	// Spreadsheets maps IDs to the Content returned by FetchSpreadsheet.
	Spreadsheets map[string]*drive.Content

	// Files maps IDs to the Content returned by FetchFile.
	Files map[string]*drive.Content

	// Values maps spreadsheet IDs to the ValueRanges returned by
	// BatchGetValues regardless of the requested ranges.
	Values map[string][]drive.ValueRange

	// FetchDocumentErr, if non-nil, is returned by every FetchDocument call.
	FetchDocumentErr error

	// FetchSpreadsheetErr, if non-nil, is returned by every FetchSpreadsheet call.
	FetchSpreadsheetErr error

	// FetchFileErr, if non-nil, is returned by every FetchFile call.
	FetchFileErr error

	// BatchGetValuesErr, if non-nil, is returned by every BatchGetValues call.
	BatchGetValuesErr error

	// --- Call records ---

	// FetchDocumentCalls records every call to FetchDocument in order.
	FetchDocumentCalls []FetchCall

	// FetchSpreadsheetCalls records every call to FetchSpreadsheet in order.
	FetchSpreadsheetCalls []FetchCall

	// FetchFileCalls records every call to FetchFile in order.
	FetchFileCalls []FetchCall

	// BatchGetValuesCalls records every call to BatchGetValues in order.
	BatchGetValuesCalls []BatchGetValuesCall
}

// FetchDocument records the call and returns Documents[id] or an error.
func (s *Service) FetchDocument(ctx context.Context, id string) (*drive.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FetchDocumentCalls = append(s.FetchDocumentCalls, FetchCall{Ctx: ctx, ID: id})
	if s.FetchDocumentErr != nil {
		return nil, s.FetchDocumentErr
	}
	c, ok := s.Documents[id]
	if !ok {
		return nil, fmt.Errorf("mock: document %q not found", id)
	}
	return c, nil
}

// FetchSpreadsheet records the call and returns Spreadsheets[id] or an error.
func (s *Service) FetchSpreadsheet(ctx context.Context, id string) (*drive.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FetchSpreadsheetCalls = append(s.FetchSpreadsheetCalls, FetchCall{Ctx: ctx, ID: id})
	if s.FetchSpreadsheetErr != nil {
		return nil, s.FetchSpreadsheetErr
	}
	c, ok := s.Spreadsheets[id]
	if !ok {
		return nil, fmt.Errorf("mock: spreadsheet %q not found", id)
	}
	return c, nil
}

// FetchFile records the call and returns Files[id] or an error.
func (s *Service) FetchFile(ctx context.Context, id string) (*drive.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FetchFileCalls = append(s.FetchFileCalls, FetchCall{Ctx: ctx, ID: id})
	if s.FetchFileErr != nil {
		return nil, s.FetchFileErr
	}
	c, ok := s.Files[id]
	if !ok {
		return nil, fmt.Errorf("mock: file %q not found", id)
	}
	return c, nil
}

// BatchGetValues records the call and returns Values[id] or an error.
func (s *Service) BatchGetValues(ctx context.Context, id string, ranges []string) ([]drive.ValueRange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := make([]string, len(ranges))
	copy(rs, ranges)
	s.BatchGetValuesCalls = append(s.BatchGetValuesCalls, BatchGetValuesCall{Ctx: ctx, ID: id, Ranges: rs})
	if s.BatchGetValuesErr != nil {
		return nil, s.BatchGetValuesErr
	}
	v, ok := s.Values[id]
	if !ok {
		return nil, fmt.Errorf("mock: spreadsheet %q not found", id)
	}
	return v, nil
}

// ResetCalls clears all recorded calls. Thread-safe.
func (s *Service) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FetchDocumentCalls = nil
	s.FetchSpreadsheetCalls = nil
	s.FetchFileCalls = nil
	s.BatchGetValuesCalls = nil
}

// Ensure Service implements drive.Service at compile time.
var _ drive.Service = (*Service)(nil)
