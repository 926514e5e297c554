package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/gatekeeper/ports"
)

func TestMemoryStoreSetGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	value, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "absent")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Unix(1000, 0)
	s.nowFunc = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	now = now.Add(61 * time.Second)
	_, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, ports.ErrNotFound)

	// The expired entry was purged on read.
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k")) // idempotent

	_, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestMemoryStoreGetDel(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	value, err := s.GetDel(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	// The read consumed the entry.
	_, err = s.GetDel(ctx, "k")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestMemoryStoreGetDelExpired(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Unix(1000, 0)
	s.nowFunc = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	now = now.Add(61 * time.Second)
	_, err := s.GetDel(ctx, "k")
	require.ErrorIs(t, err, ports.ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreGetDelSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.GetDel(ctx, "k")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	winners := 0
	for err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, ports.ErrNotFound)
		}
	}
	assert.Equal(t, 1, winners, "exactly one caller may take the value")
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Unix(1000, 0)
	s.nowFunc = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "stale", "v", time.Second))
	require.NoError(t, s.Set(ctx, "live", "v", time.Hour))

	now = now.Add(time.Minute)
	s.Sweep()

	assert.Equal(t, 1, s.Len())
	_, err := s.Get(ctx, "live")
	assert.NoError(t, err)
}
