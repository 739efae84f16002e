// Package rescache implements the in-memory TTL cache backing the gdrive://
// resource addressing scheme.
//
// Entries are keyed by Drive resource ID and hold the raw backend response
// together with the flattened text projection used for character-range
// slicing. Eviction is two-pronged: a read that observes an expired entry
// deletes it on the spot, and [Cache.Cleanup] sweeps the rest so entries
// that are never read again cannot accumulate. Nothing is ever written to
// stable storage; the cache dies with the process.
package rescache

import (
	"slices"
	"sync"
	"time"

	"github.com/MrWong99/drivegate/internal/drive"
)

// TTL is the fixed maximum age at which a cache entry is still served.
// The boundary is inclusive: an entry aged exactly TTL is valid, one
// aged a millisecond more is expired.
const TTL = 30 * time.Minute

// Entry is one cached fetch result. Entries are immutable once stored;
// a re-fetch replaces the whole entry.
type Entry struct {
	// Raw is the full structured backend response, opaque to this layer.
	Raw any

	// Text is the flattened plain-text projection served to chunk reads.
	Text string

	// Type classifies the cached resource.
	Type drive.ResourceType

	// FetchedAt is the storage timestamp the TTL is measured from.
	FetchedAt time.Time
}

// EntryStat describes one live entry for observability.
type EntryStat struct {
	Key        string             `json:"key"`
	Type       drive.ResourceType `json:"type"`
	AgeSeconds int64              `json:"age_seconds"`
	TextLength int                `json:"text_length"`
}

// Stats is a point-in-time snapshot of the cache, for observability only.
type Stats struct {
	Size    int         `json:"size"`
	Entries []EntryStat `json:"entries"`
}

// Cache is a keyed in-memory store with expiry-on-read semantics.
//
// All methods are safe for concurrent use; a single mutex guards the map,
// which is sufficient because entries are immutable once stored and
// concurrent writes to the same key follow last-writer-wins.
//
// Create instances with [New]; the zero value is not usable.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry

	// now is replaced in tests to exercise the TTL boundary.
	now func() time.Time
}

// New returns an empty, ready-to-use Cache.
func New() *Cache {
	return NewWithClock(time.Now)
}

// NewWithClock returns a Cache that reads time from now instead of
// [time.Now]. It exists for tests that drive the TTL boundary.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]Entry),
		now:     now,
	}
}

// Outcome classifies what a [Cache.Get] observed.
type Outcome int

const (
	// OutcomeHit means a live entry was returned.
	OutcomeHit Outcome = iota + 1

	// OutcomeMiss means no entry existed for the key.
	OutcomeMiss

	// OutcomeExpired means an expired entry was found and deleted on the
	// spot. A lazy eviction, reported as a miss to the caller.
	OutcomeExpired
)

// Store unconditionally upserts the entry for key, recording the storage
// time. A later Store for the same key replaces the earlier entry and
// resets its age. Reports whether key was previously absent.
func (c *Cache) Store(key string, raw any, text string, typ drive.ResourceType) (isNew bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, existed := c.entries[key]
	c.entries[key] = Entry{
		Raw:       raw,
		Text:      text,
		Type:      typ,
		FetchedAt: c.now(),
	}
	return !existed
}

// Get returns the entry for key if it is present and not expired. An
// expired entry is deleted as a side effect; the [Outcome] tells the
// caller whether that happened so the eviction reaches the metrics.
func (c *Cache) Get(key string) (Entry, Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{}, OutcomeMiss
	}
	if c.expired(e) {
		delete(c.entries, key)
		return Entry{}, OutcomeExpired
	}
	return e, OutcomeHit
}

// Cleanup deletes every expired entry and returns the number removed.
// Idempotent: a second sweep over the same state removes nothing.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently held, including any that
// have expired but not yet been observed by a read or sweep.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns a [Stats] describing all current entries, sorted by
// key for stable output. Ages are whole elapsed seconds.
func (c *Cache) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	st := Stats{
		Size:    len(c.entries),
		Entries: make([]EntryStat, 0, len(c.entries)),
	}
	for key, e := range c.entries {
		st.Entries = append(st.Entries, EntryStat{
			Key:        key,
			Type:       e.Type,
			AgeSeconds: int64(now.Sub(e.FetchedAt) / time.Second),
			TextLength: len([]rune(e.Text)),
		})
	}
	slices.SortFunc(st.Entries, func(a, b EntryStat) int {
		if a.Key < b.Key {
			return -1
		}
		if a.Key > b.Key {
			return 1
		}
		return 0
	})
	return st
}

// expired reports whether e is past its TTL. Callers must hold c.mu.
func (c *Cache) expired(e Entry) bool {
	return c.now().Sub(e.FetchedAt) > TTL
}
