package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCallWithTimeout_CompletesInTime(t *testing.T) {
	entries, err, ok := CallWithTimeout(context.Background(), func(ctx context.Context) ([]DeletedEntry, error) {
		return []DeletedEntry{{Name: "a"}}, nil
	})
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCallWithTimeout_PropagatesError(t *testing.T) {
	_, err, ok := CallWithTimeout(context.Background(), func(ctx context.Context) ([]DeletedEntry, error) {
		return nil, errors.New("boom")
	})
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestCallWithTimeout_TimesOut(t *testing.T) {
	_, _, ok := callWithTimeoutDuration(10*time.Millisecond, func(ctx context.Context) ([]DeletedEntry, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	assert.False(t, ok)
}

func callWithTimeoutDuration(d time.Duration, fn func(ctx context.Context) ([]DeletedEntry, error)) ([]DeletedEntry, error, bool) {
	return callWithTimeout(context.Background(), d, fn)
}

func TestNullAdapter_EnumeratesNothing(t *testing.T) {
	a := NullAdapter{}
	entries, err := a.Enumerate(context.Background(), "/dev/null", nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, entries)
}
