package timer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cristianoliveira/tmux-localnotify/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	fired []int32
	ch    chan int32
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan int32, 16)}
}

func (r *recorder) Fire(_ context.Context, id int32) {
	r.mu.Lock()
	r.fired = append(r.fired, id)
	r.mu.Unlock()
	r.ch <- id
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func TestArmFires(t *testing.T) {
	g := New()
	rec := newRecorder()

	require.NoError(t, g.Arm(context.Background(), 1, time.Now().Add(20*time.Millisecond), rec))
	assert.Contains(t, g.Armed(), int32(1))

	select {
	case id := <-rec.ch:
		assert.Equal(t, int32(1), id)
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Empty(t, g.Armed())
}

func TestPastInstantFiresImmediately(t *testing.T) {
	g := New()
	rec := newRecorder()

	require.NoError(t, g.Arm(context.Background(), 2, time.Now().Add(-time.Hour), rec))
	select {
	case <-rec.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestRearmReplacesPendingTimer(t *testing.T) {
	g := New()
	rec := newRecorder()
	ctx := context.Background()

	later := time.Now().Add(time.Hour)
	require.NoError(t, g.Arm(ctx, 3, time.Now().Add(30*time.Millisecond), rec))
	require.NoError(t, g.Arm(ctx, 3, later, rec))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.Equal(t, later, g.Armed()[3])
	g.Stop()
}

func TestDisarm(t *testing.T) {
	g := New()
	rec := newRecorder()
	ctx := context.Background()

	require.NoError(t, g.Arm(ctx, 4, time.Now().Add(30*time.Millisecond), rec))
	require.NoError(t, g.Disarm(ctx, 4))
	require.NoError(t, g.Disarm(ctx, 4))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.Empty(t, g.Armed())
}

func TestFireContextOutlivesArmContext(t *testing.T) {
	g := New()
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan error, 1)
	recv := platform.ReceiverFunc(func(ctx context.Context, id int32) { got <- ctx.Err() })
	require.NoError(t, g.Arm(ctx, 5, time.Now().Add(20*time.Millisecond), recv))
	cancel()

	select {
	case err := <-got:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestStopCancelsEverything(t *testing.T) {
	g := New()
	rec := newRecorder()
	ctx := context.Background()

	for id := int32(1); id <= 3; id++ {
		require.NoError(t, g.Arm(ctx, id, time.Now().Add(30*time.Millisecond), rec))
	}
	g.Stop()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestDeferredNeverFires(t *testing.T) {
	rec := newRecorder()
	var d platform.Registrar = Deferred{}

	require.NoError(t, d.Arm(context.Background(), 1, time.Now().Add(-time.Second), rec))
	require.NoError(t, d.Disarm(context.Background(), 1))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}
