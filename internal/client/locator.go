package client

import (
	"context"
	"errors"
	"time"

	"github.com/mediaid/mediaid-api/internal/model"
)

// DefaultLocateTimeout bounds a single position request.
const DefaultLocateTimeout = 10 * time.Second

// Location failures.  They are distinct from ErrFetchFailed: a caller
// without a position still gets an unranked directory.
var (
	ErrLocationDenied      = errors.New("location permission denied")
	ErrLocationTimeout     = errors.New("location request timed out")
	ErrLocationUnsupported = errors.New("location not supported")
)

// Locator obtains the caller's current position once.
type Locator interface {
	Locate(ctx context.Context) (model.Point, error)
}

// StaticLocator always reports the same point, e.g. one given on the
// command line.
type StaticLocator struct {
	Point model.Point
}

func (s StaticLocator) Locate(ctx context.Context) (model.Point, error) {
	if err := ctx.Err(); err != nil {
		return model.Point{}, ErrLocationTimeout
	}
	if !s.Point.Valid() {
		return model.Point{}, ErrLocationUnsupported
	}
	return s.Point, nil
}

// NoLocator is used where no position source exists.
type NoLocator struct{}

func (NoLocator) Locate(context.Context) (model.Point, error) {
	return model.Point{}, ErrLocationUnsupported
}

// LocateWithin runs loc with a deadline of timeout (DefaultLocateTimeout
// when zero or negative).  Deadline expiry is reported as
// ErrLocationTimeout whatever the locator returned.
func LocateWithin(ctx context.Context, loc Locator, timeout time.Duration) (model.Point, error) {
	if loc == nil {
		return model.Point{}, ErrLocationUnsupported
	}
	if timeout <= 0 {
		timeout = DefaultLocateTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		p   model.Point
		err error
	}
	done := make(chan result, 1)
	go func() {
		p, err := loc.Locate(ctx)
		done <- result{p, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(r.err, context.DeadlineExceeded) {
				return model.Point{}, ErrLocationTimeout
			}
			return model.Point{}, r.err
		}
		if !r.p.Valid() {
			return model.Point{}, ErrLocationUnsupported
		}
		return r.p, nil
	case <-ctx.Done():
		return model.Point{}, ErrLocationTimeout
	}
}
