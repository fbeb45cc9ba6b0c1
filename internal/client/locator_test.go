package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaid/mediaid-api/internal/model"
)

type locatorFunc func(ctx context.Context) (model.Point, error)

func (f locatorFunc) Locate(ctx context.Context) (model.Point, error) { return f(ctx) }

func TestLocateWithin(t *testing.T) {
	p, err := LocateWithin(context.Background(), StaticLocator{Point: model.Point{Lat: 0, Lng: 0}}, 0)
	require.NoError(t, err)
	assert.Equal(t, model.Point{}, p)

	_, err = LocateWithin(context.Background(), NoLocator{}, time.Second)
	assert.ErrorIs(t, err, ErrLocationUnsupported)

	_, err = LocateWithin(context.Background(), nil, time.Second)
	assert.ErrorIs(t, err, ErrLocationUnsupported)

	_, err = LocateWithin(context.Background(), StaticLocator{Point: model.Point{Lat: 91}}, time.Second)
	assert.ErrorIs(t, err, ErrLocationUnsupported)

	denied := locatorFunc(func(context.Context) (model.Point, error) { return model.Point{}, ErrLocationDenied })
	_, err = LocateWithin(context.Background(), denied, time.Second)
	assert.ErrorIs(t, err, ErrLocationDenied)
}

func TestLocateWithin_Timeout(t *testing.T) {
	// ignores its context so only the deadline can end the wait
	stuck := locatorFunc(func(context.Context) (model.Point, error) {
		time.Sleep(time.Second)
		return model.Point{Lat: 1, Lng: 1}, nil
	})
	start := time.Now()
	_, err := LocateWithin(context.Background(), stuck, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrLocationTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	honours := locatorFunc(func(ctx context.Context) (model.Point, error) {
		<-ctx.Done()
		return model.Point{}, ctx.Err()
	})
	_, err = LocateWithin(context.Background(), honours, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrLocationTimeout)
}
