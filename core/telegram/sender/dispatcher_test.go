package sender

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoReturnsRunResult(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2})
	defer d.Close()

	want := errors.New("bad request")
	err := d.Do(context.Background(), 5, "send.text", "sendMessage", func() error { return want })
	require.ErrorIs(t, err, want)
	assert.EqualValues(t, 1, d.ErrorCount())

	require.NoError(t, d.Do(context.Background(), 5, "send.text", "sendMessage", func() error { return nil }))
}

func TestSameKeyKeepsOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4})
	defer d.Close()

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 20; i++ {
		i := i
		require.NoError(t, d.Enqueue(context.Background(), -42, "send.text", "", func() error {
			if i%3 == 0 {
				time.Sleep(time.Millisecond)
			}
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}))
	}
	// Do waits behind every earlier job on the shard.
	require.NoError(t, d.Do(context.Background(), -42, "send.document", "", func() error { return nil }))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 20)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	err := d.Enqueue(context.Background(), 1, "send.text", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
	err = d.Do(context.Background(), 1, "send.text", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestShardForNegativeKeys(t *testing.T) {
	d := NewDispatcher(Options{Workers: 3})
	defer d.Close()
	for _, k := range []int64{-7, -1, 0, 1, 1 << 40} {
		idx := d.shardFor(k)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 3)
	}
	assert.Equal(t, d.shardFor(-100), d.shardFor(-100))
}

func TestRedactHidesToken(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123:abc-DEF/sendMessage": EOF`)
	got := Redact(err)
	assert.NotContains(t, got, "123:abc-DEF")
	assert.Contains(t, got, "bot<redacted>")
}

func TestDoRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	defer d.Close()

	calls := 0
	err := d.Do(context.Background(), 1, "send.text", "sendMessage", func() error {
		calls++
		if calls == 1 {
			return context.DeadlineExceeded
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Zero(t, d.ErrorCount())
}

func TestBarrierWaitsForEarlierJobs(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4})
	defer d.Close()

	var done atomic.Bool
	require.NoError(t, d.Enqueue(context.Background(), 1, "send.text", "", func() error {
		time.Sleep(50 * time.Millisecond)
		done.Store(true)
		return nil
	}))
	require.NoError(t, d.Barrier(context.Background(), 1))
	assert.True(t, done.Load())
}
