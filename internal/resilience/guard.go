package resilience

import (
	"context"

	"github.com/MrWong99/drivegate/internal/drive"
)

// Guard wraps a [drive.Service] so that every fetch passes through a single
// shared [Breaker]. Consecutive backend failures trip the breaker and
// subsequent fetches fail fast with [ErrCircuitOpen] until the backend has
// had time to recover.
type Guard struct {
	next    drive.Service
	breaker *Breaker
}

var _ drive.Service = (*Guard)(nil)

// Wrap returns a Guard protecting next with breaker.
func Wrap(next drive.Service, breaker *Breaker) *Guard {
	return &Guard{next: next, breaker: breaker}
}

// Breaker exposes the underlying breaker, e.g. for readiness checks.
func (g *Guard) Breaker() *Breaker {
	return g.breaker
}

// FetchDocument implements [drive.Service].
func (g *Guard) FetchDocument(ctx context.Context, id string) (*drive.Content, error) {
	return g.fetch(func() (*drive.Content, error) {
		return g.next.FetchDocument(ctx, id)
	})
}

// FetchSpreadsheet implements [drive.Service].
func (g *Guard) FetchSpreadsheet(ctx context.Context, id string) (*drive.Content, error) {
	return g.fetch(func() (*drive.Content, error) {
		return g.next.FetchSpreadsheet(ctx, id)
	})
}

// FetchFile implements [drive.Service].
func (g *Guard) FetchFile(ctx context.Context, id string) (*drive.Content, error) {
	return g.fetch(func() (*drive.Content, error) {
		return g.next.FetchFile(ctx, id)
	})
}

// BatchGetValues implements [drive.Service].
func (g *Guard) BatchGetValues(ctx context.Context, id string, ranges []string) ([]drive.ValueRange, error) {
	var values []drive.ValueRange
	err := g.breaker.Execute(func() error {
		var err error
		values, err = g.next.BatchGetValues(ctx, id, ranges)
		return err
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (g *Guard) fetch(fn func() (*drive.Content, error)) (*drive.Content, error) {
	var content *drive.Content
	err := g.breaker.Execute(func() error {
		var err error
		content, err = fn()
		return err
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}
