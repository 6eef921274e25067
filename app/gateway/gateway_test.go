package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"blabber/app/models"
	"blabber/app/repositories"
	"blabber/app/repositories/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockWorker occupies the worker until the returned release func is called.
func blockWorker(t *testing.T, g *Gateway) (release func(), done <-chan error) {
	t.Helper()
	started := make(chan struct{})
	unblock := make(chan struct{})
	result := make(chan error, 1)

	go func() {
		_, err := Submit(context.Background(), g, func(repositories.Engine) (struct{}, error) {
			close(started)
			<-unblock
			return struct{}{}, nil
		})
		result <- err
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never started the blocking operation")
	}

	var once sync.Once
	return func() { once.Do(func() { close(unblock) }) }, result
}

func TestSubmitReturnsResult(t *testing.T) {
	engine := mock.NewEngine()
	g := New(engine)
	t.Cleanup(func() { _ = g.Close() })

	id, err := Submit(context.Background(), g, func(e repositories.Engine) (uint64, error) {
		return e.CreatePost("bob", "Hi", "First!")
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	detail, err := Submit(context.Background(), g, func(e repositories.Engine) (*models.PostDetail, error) {
		return e.FetchPost(999, 10)
	})
	require.NoError(t, err)
	assert.Nil(t, detail)
}

func TestOperationErrorPropagates(t *testing.T) {
	g := New(mock.NewEngine())
	t.Cleanup(func() { _ = g.Close() })

	boom := errors.New("boom")
	_, err := Submit(context.Background(), g, func(repositories.Engine) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(0), g.Pending())
}

func TestPanicReleasesPending(t *testing.T) {
	g := New(mock.NewEngine())
	t.Cleanup(func() { _ = g.Close() })

	_, err := Submit(context.Background(), g, func(repositories.Engine) (int, error) {
		panic("corrupt page")
	})
	assert.ErrorIs(t, err, repositories.ErrEngineFailure)
	assert.Equal(t, int64(0), g.Pending())

	// The worker survives the panic.
	v, err := Submit(context.Background(), g, func(repositories.Engine) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestOperationsRunInAdmissionOrder(t *testing.T) {
	engine := mock.NewEngine()
	g := New(engine)
	t.Cleanup(func() { _ = g.Close() })

	release, _ := blockWorker(t, g)

	const n = 200
	var (
		order []int
		mu    sync.Mutex
		wg    sync.WaitGroup
	)
	// Admit one at a time so admission order is known, then let them run.
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Submit(context.Background(), g, func(e repositories.Engine) (uint64, error) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return e.CreatePost("user", "title", "content")
			})
			assert.NoError(t, err)
		}()
		require.Eventually(t, func() bool { return g.Pending() == int64(i+2) }, 5*time.Second, time.Millisecond)
	}

	release()
	wg.Wait()

	expected := make([]int, n)
	for i := range expected {
		expected[i] = i
	}
	assert.Equal(t, expected, order)
	assert.Len(t, engine.Calls(), n)
	assert.Equal(t, 1, engine.MaxConcurrent())
}

func TestConcurrentSubmitsNeverOverlap(t *testing.T) {
	engine := mock.NewEngine()
	g := New(engine)
	t.Cleanup(func() { _ = g.Close() })

	var wg sync.WaitGroup
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Submit(context.Background(), g, func(e repositories.Engine) (uint64, error) {
				return e.CreatePost("user", "title", "content")
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, engine.Calls(), 500)
	assert.Equal(t, 1, engine.MaxConcurrent())
	assert.Equal(t, int64(0), g.Pending())
}

func TestAdmissionControl(t *testing.T) {
	engine := mock.NewEngine()
	g := New(engine, WithMaxPending(DefaultMaxPending))
	t.Cleanup(func() { _ = g.Close() })

	var started, completed atomic.Int32
	gate := make(chan struct{})
	results := make(chan error, DefaultMaxPending)

	// The first operation holds the worker, so nothing is drained while the
	// remaining operations are admitted.
	for i := 0; i < DefaultMaxPending; i++ {
		go func() {
			_, err := Submit(context.Background(), g, func(e repositories.Engine) (uint64, error) {
				started.Add(1)
				<-gate
				completed.Add(1)
				return e.CreatePost("user", "title", "content")
			})
			results <- err
		}()
	}
	require.Eventually(t, func() bool { return g.Pending() == DefaultMaxPending }, 5*time.Second, time.Millisecond)

	callsBefore := len(engine.Calls())
	_, err := Submit(context.Background(), g, func(e repositories.Engine) (uint64, error) {
		t.Error("rejected operation must not run")
		return e.CreatePost("user", "title", "content")
	})
	assert.ErrorIs(t, err, ErrOverloaded)
	assert.Equal(t, int64(DefaultMaxPending), g.Pending())
	assert.Equal(t, callsBefore, len(engine.Calls()))
	assert.Equal(t, int32(1), started.Load())

	close(gate)
	for i := 0; i < DefaultMaxPending; i++ {
		assert.NoError(t, <-results)
	}
	assert.Equal(t, int32(DefaultMaxPending), completed.Load())
	assert.Equal(t, int64(0), g.Pending())
	assert.Len(t, engine.Calls(), DefaultMaxPending)
}

func TestCancelledCallerDoesNotRetract(t *testing.T) {
	engine := mock.NewEngine()
	g := New(engine)
	t.Cleanup(func() { _ = g.Close() })

	release, _ := blockWorker(t, g)

	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		_, err := Submit(ctx, g, func(e repositories.Engine) (uint64, error) {
			defer close(ran)
			return e.CreatePost("user", "title", "content")
		})
		errc <- err
	}()
	require.Eventually(t, func() bool { return g.Pending() == 2 }, 5*time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Equal(t, int64(2), g.Pending())

	release()
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("abandoned operation never ran")
	}
	require.Eventually(t, func() bool { return g.Pending() == 0 }, 5*time.Second, time.Millisecond)
	_, ok := engine.Post(1)
	assert.True(t, ok)
}

func TestCloseDrainsAdmittedOperations(t *testing.T) {
	engine := mock.NewEngine()
	g := New(engine)

	release, first := blockWorker(t, g)

	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := Submit(context.Background(), g, func(e repositories.Engine) (uint64, error) {
				return e.CreatePost("user", "title", "content")
			})
			results <- err
		}()
	}
	require.Eventually(t, func() bool { return g.Pending() == 11 }, 5*time.Second, time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- g.Close() }()

	// New work is refused as soon as Close has started.
	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := Submit(ctx, g, func(repositories.Engine) (int, error) { return 0, nil })
		return errors.Is(err, ErrClosed)
	}, 5*time.Second, time.Millisecond)
	assert.False(t, engine.Closed())

	release()
	assert.NoError(t, <-first)
	for i := 0; i < 10; i++ {
		assert.NoError(t, <-results)
	}
	assert.NoError(t, <-closed)
	assert.True(t, engine.Closed())
	assert.Len(t, engine.Calls(), 10)

	// Close is idempotent.
	assert.NoError(t, g.Close())
}
