package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestRegistry() (*Registry, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewRegistry(0, WithClock(clk.Now)), clk
}

func TestRegistry_IssueValidate(t *testing.T) {
	t.Parallel()
	r, clk := newTestRegistry()

	tok, err := r.Issue("admin-1", "a@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	s, ok := r.Validate(tok)
	require.True(t, ok)
	require.Equal(t, "admin-1", s.AdminID)
	require.Equal(t, "a@example.com", s.Email)
	require.Equal(t, clk.Now(), s.CreatedAt)
	require.Equal(t, s.CreatedAt.Add(24*time.Hour), s.ExpiresAt)
}

func TestRegistry_ExpiryBoundary(t *testing.T) {
	t.Parallel()
	r, clk := newTestRegistry()

	tok, err := r.Issue("admin-1", "a@example.com")
	require.NoError(t, err)

	clk.Advance(24 * time.Hour)
	_, ok := r.Validate(tok)
	require.True(t, ok, "session must be valid exactly at expires_at")

	clk.Advance(time.Nanosecond)
	_, ok = r.Validate(tok)
	require.False(t, ok, "session must be invalid strictly after expires_at")
	require.Equal(t, 0, r.Len(), "expired session must be evicted on access")
}

func TestRegistry_RevokeIdempotent(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry()

	tok, err := r.Issue("admin-1", "a@example.com")
	require.NoError(t, err)

	require.True(t, r.Revoke(tok))
	_, ok := r.Validate(tok)
	require.False(t, ok)

	require.False(t, r.Revoke(tok))
	require.False(t, r.Revoke("never-issued"))
}

func TestRegistry_UnknownToken(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry()

	_, ok := r.Validate("nope")
	require.False(t, ok)
}

func TestRegistry_Sweep(t *testing.T) {
	t.Parallel()
	r, clk := newTestRegistry()

	old, _ := r.Issue("a", "a@x")
	clk.Advance(12 * time.Hour)
	fresh, _ := r.Issue("b", "b@x")
	clk.Advance(13 * time.Hour)

	require.Equal(t, 1, r.Sweep())
	_, ok := r.Validate(old)
	require.False(t, ok)
	_, ok = r.Validate(fresh)
	require.True(t, ok)
}

func TestRegistry_TokenSourceError(t *testing.T) {
	t.Parallel()
	boom := errors.New("entropy")
	r := NewRegistry(time.Hour, WithTokenSource(func() (string, error) { return "", boom }))

	_, err := r.Issue("a", "a@x")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, r.Len())
}

func TestRegistry_Concurrent(t *testing.T) {
	t.Parallel()
	r := NewRegistry(time.Hour)

	const n = 64
	var wg sync.WaitGroup
	tokens := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := r.Issue("a", "a@x")
			if err != nil {
				t.Errorf("Issue: %v", err)
				return
			}
			if _, ok := r.Validate(tok); !ok {
				t.Errorf("fresh token not valid")
			}
			tokens <- tok
		}()
	}
	wg.Wait()
	close(tokens)

	seen := map[string]bool{}
	for tok := range tokens {
		require.False(t, seen[tok], "duplicate token")
		seen[tok] = true
		wg.Add(1)
		go func(tok string) {
			defer wg.Done()
			r.Revoke(tok)
		}(tok)
	}
	wg.Wait()
	require.Equal(t, 0, r.Len())
}
