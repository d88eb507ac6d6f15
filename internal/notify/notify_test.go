package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	n     atomic.Int64
	err   atomic.Value // error
	calls atomic.Int64
}

func (f *fakeCounter) UnreadNotifications(_ context.Context) (int, error) {
	f.calls.Add(1)
	if e, _ := f.err.Load().(error); e != nil {
		return 0, e
	}
	return int(f.n.Load()), nil
}

func recv(t *testing.T, ch chan int) int {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a count")
		return 0
	}
}

func TestRunDeliversInitialCount(t *testing.T) {
	src := &fakeCounter{}
	src.n.Store(3)
	w := NewWatcher(src, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.Equal(t, 3, recv(t, w.C))
}

func TestInvalidateForcesRefetch(t *testing.T) {
	src := &fakeCounter{}
	src.n.Store(1)
	w := NewWatcher(src, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.Equal(t, 1, recv(t, w.C))

	src.n.Store(5)
	w.Invalidate()
	require.Equal(t, 5, recv(t, w.C), "invalidation must refetch without waiting for the ticker")
}

func TestFetchFailureDeliversNothing(t *testing.T) {
	src := &fakeCounter{}
	src.err.Store(errors.New("network down"))
	w := NewWatcher(src, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	select {
	case n := <-w.C:
		t.Fatalf("unexpected count %d from a failed fetch", n)
	case <-time.After(100 * time.Millisecond):
	}
	require.GreaterOrEqual(t, src.calls.Load(), int64(1))
}

func TestStaleCountIsReplaced(t *testing.T) {
	src := &fakeCounter{}
	src.n.Store(1)
	w := NewWatcher(src, time.Hour, nil)

	// Nobody reading: fetch twice, the buffered slot must hold the
	// fresher value.
	w.fetch(context.Background())
	src.n.Store(9)
	w.fetch(context.Background())

	require.Equal(t, 9, recv(t, w.C))
}
