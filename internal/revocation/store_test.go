package revocation

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func TestStore_RevocationIsSticky(t *testing.T) {
	clk := newClock()
	s := New(0, WithClock(clk.Now))
	exp := clk.Now().Add(time.Hour)

	assert.False(t, s.IsRevoked("token-a"))

	s.Revoke("token-a", exp)
	for i := 0; i < 5; i++ {
		assert.True(t, s.IsRevoked("token-a"))
		clk.Advance(10 * time.Minute)
	}
	assert.False(t, s.IsRevoked("token-b"))

	// exactly at exp the entry is still held
	clk.Advance(10 * time.Minute)
	assert.Equal(t, exp, clk.Now())
	assert.True(t, s.IsRevoked("token-a"))

	clk.Advance(time.Second)
	assert.False(t, s.IsRevoked("token-a"))
	assert.Equal(t, 0, s.Len(), "lazy eviction drops the expired entry")
}

func TestStore_RevokeIsIdempotent(t *testing.T) {
	clk := newClock()
	s := New(0, WithClock(clk.Now))
	exp := clk.Now().Add(time.Hour)

	s.Revoke("token-a", exp)
	s.Revoke("token-a", exp)
	s.Revoke("token-a", exp.Add(-time.Minute))

	assert.Equal(t, 1, s.Len())

	clk.Advance(time.Hour - time.Second)
	assert.True(t, s.IsRevoked("token-a"), "an earlier expiry never shortens an entry")
}

func TestStore_TryRevoke(t *testing.T) {
	clk := newClock()
	s := New(0, WithClock(clk.Now))
	exp := clk.Now().Add(time.Minute)

	assert.True(t, s.TryRevoke("token-a", exp))
	assert.False(t, s.TryRevoke("token-a", exp))
	assert.True(t, s.IsRevoked("token-a"))

	s.Revoke("token-b", exp)
	assert.False(t, s.TryRevoke("token-b", exp))
}

func TestStore_TryRevoke_ExactlyOneWinner(t *testing.T) {
	s := New(0)
	exp := time.Now().Add(time.Hour)

	const workers = 64
	var (
		wg    sync.WaitGroup
		wins  atomic.Int32
		start = make(chan struct{})
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.TryRevoke("shared-token", exp) {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.True(t, s.IsRevoked("shared-token"))
}

func TestStore_ConcurrentReadWrite(t *testing.T) {
	s := New(0)
	exp := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok := string(rune('a' + i%26))
			s.Revoke(tok, exp)
			assert.True(t, s.IsRevoked(tok), "a write is visible to the writer's next read")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 26, s.Len())
}

func TestStore_CleanupOnlyDropsExpired(t *testing.T) {
	clk := newClock()
	s := New(0, WithClock(clk.Now))

	s.Revoke("short", clk.Now().Add(time.Minute))
	s.Revoke("long", clk.Now().Add(time.Hour))

	assert.Equal(t, 0, s.Cleanup())

	clk.Advance(2 * time.Minute)
	assert.Equal(t, 1, s.Cleanup())
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.IsRevoked("long"))
	assert.False(t, s.IsRevoked("short"))
}

func TestStore_BackgroundCleanup(t *testing.T) {
	clk := newClock()
	s := New(5*time.Millisecond, WithClock(clk.Now))
	t.Cleanup(s.Stop)

	s.Revoke("token-a", clk.Now().Add(time.Minute))
	clk.Advance(2 * time.Minute)

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
}
