package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mediaid/mediaid-api/internal/model"
	"github.com/mediaid/mediaid-api/internal/ranking"
)

// Fetcher supplies candidate services; *DirectoryClient implements it.
type Fetcher interface {
	FetchServices(ctx context.Context, category model.Category, search string) ([]model.Service, error)
}

// ErrRefreshSuperseded is returned by a Refresh whose result was discarded
// because a later Refresh started before it finished.
var ErrRefreshSuperseded = errors.New("refresh superseded by a newer one")

// Board holds the caller-side view of the directory: the last fetched
// candidates, the origin and the criteria, and the ranked result derived
// from them.  Every change recomputes the ranking in full.
type Board struct {
	// ClearOnError drops the visible result when a fetch fails instead of
	// keeping the previous one.
	ClearOnError bool

	fetch         Fetcher
	locateTimeout time.Duration

	mu         sync.Mutex
	candidates []model.Service
	origin     *model.Point
	criteria   ranking.Criteria
	ranked     []ranking.Ranked
	lastErr    error
	gen        uint64 // incremented by every Refresh
}

// NewBoard returns an empty board with ranking.DefaultCriteria.
func NewBoard(f Fetcher, locateTimeout time.Duration) *Board {
	return &Board{
		fetch:         f,
		locateTimeout: locateTimeout,
		criteria:      ranking.DefaultCriteria(),
		ranked:        []ranking.Ranked{},
	}
}

// Refresh fetches candidates for the current criteria and re-ranks them.
// On failure the previous result stays visible unless ClearOnError is set,
// and the error is returned.  Only the most recently started Refresh may
// commit; an older one that finishes later returns ErrRefreshSuperseded
// and leaves the board untouched.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	crit := b.criteria
	b.mu.Unlock()

	rows, err := b.fetch.FetchServices(ctx, crit.Category, crit.SearchText)

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return ErrRefreshSuperseded
	}
	if err != nil {
		b.lastErr = err
		if b.ClearOnError {
			b.candidates = nil
			b.ranked = []ranking.Ranked{}
		}
		return err
	}
	b.lastErr = nil
	b.candidates = rows
	return b.rerankLocked()
}

// Locate asks loc for the caller's position.  On failure the origin is
// cleared, distances become unknown, and the locate error is returned for
// the caller to report; the board itself stays usable.
func (b *Board) Locate(ctx context.Context, loc Locator) error {
	p, err := LocateWithin(ctx, loc, b.locateTimeout)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.origin = nil
	} else {
		b.origin = &p
	}
	if rerr := b.rerankLocked(); rerr != nil {
		return rerr
	}
	return err
}

// SetOrigin replaces the origin directly; nil clears it.
func (b *Board) SetOrigin(p *model.Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p != nil {
		cp := *p
		p = &cp
	}
	b.origin = p
	return b.rerankLocked()
}

// SetCriteria validates c and recomputes the view from the cached
// candidates.  Invalid criteria leave the board unchanged.  Widening
// Category or SearchText beyond the last fetch needs a Refresh.
func (b *Board) SetCriteria(c ranking.Criteria) error {
	if err := c.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.criteria = c
	return b.rerankLocked()
}

// Criteria returns the current criteria.
func (b *Board) Criteria() ranking.Criteria {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.criteria
}

// Origin returns a copy of the current origin, or nil.
func (b *Board) Origin() *model.Point {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.origin == nil {
		return nil
	}
	p := *b.origin
	return &p
}

// Results returns a copy of the ranked view.
func (b *Board) Results() []ranking.Ranked {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ranking.Ranked, len(b.ranked))
	copy(out, b.ranked)
	return out
}

// Err returns the error of the last Refresh, or nil after a success.
func (b *Board) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

func (b *Board) rerankLocked() error {
	ranked, err := ranking.Rank(b.candidates, b.origin, b.criteria)
	if err != nil {
		return err
	}
	b.ranked = ranked
	return nil
}
