package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLogin(t *testing.T) {
	t.Run("UnlimitedByDefault", func(t *testing.T) {
		s := New(Limits{}, nil)
		for i := 0; i < 100; i++ {
			require.NoError(t, s.TryLogin(i%2 == 0))
		}
		assert.Equal(t, 100, s.CurrentLogins())
		assert.Equal(t, 50, s.CurrentAnonymousLogins())
	})

	t.Run("TotalCeiling", func(t *testing.T) {
		s := New(Limits{MaxLogins: 2}, nil)
		require.NoError(t, s.TryLogin(false))
		require.NoError(t, s.TryLogin(false))

		err := s.TryLogin(false)
		assert.ErrorIs(t, err, ErrTooManyUsers)

		// A refused login moves nothing.
		assert.Equal(t, 2, s.CurrentLogins())
		assert.Equal(t, uint64(2), s.TotalLogins())
	})

	t.Run("AnonymousCeilingCheckedFirst", func(t *testing.T) {
		s := New(Limits{MaxLogins: 10, MaxAnonymousLogins: 1}, nil)
		require.NoError(t, s.TryLogin(true))

		err := s.TryLogin(true)
		assert.ErrorIs(t, err, ErrTooManyAnonymousUsers)

		// Named logins are unaffected by the anonymous ceiling.
		require.NoError(t, s.TryLogin(false))
		assert.Equal(t, 2, s.CurrentLogins())
		assert.Equal(t, 1, s.CurrentAnonymousLogins())
	})

	t.Run("AnonymousCountsAgainstTotal", func(t *testing.T) {
		s := New(Limits{MaxLogins: 1}, nil)
		require.NoError(t, s.TryLogin(true))
		assert.ErrorIs(t, s.TryLogin(false), ErrTooManyUsers)
	})

	t.Run("LogoutReleasesSlot", func(t *testing.T) {
		s := New(Limits{MaxLogins: 1}, nil)
		require.NoError(t, s.TryLogin(false))
		require.Error(t, s.TryLogin(false))

		s.Logout(false)
		require.NoError(t, s.TryLogin(false))
	})

	t.Run("ConcurrentAttemptsRespectCeiling", func(t *testing.T) {
		const ceiling = 5
		const attempts = 50

		s := New(Limits{MaxLogins: ceiling}, nil)

		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.TryLogin(false) == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, ceiling, succeeded)
		assert.Equal(t, ceiling, s.CurrentLogins())
		assert.Equal(t, uint64(ceiling), s.TotalLogins())
	})
}

func TestLogout(t *testing.T) {
	s := New(Limits{}, nil)

	// Logout without login is a no-op.
	s.Logout(false)
	assert.Equal(t, 0, s.CurrentLogins())

	require.NoError(t, s.TryLogin(true))
	s.Logout(true)
	assert.Equal(t, 0, s.CurrentLogins())
	assert.Equal(t, 0, s.CurrentAnonymousLogins())

	// Cumulative counters never decrease.
	assert.Equal(t, uint64(1), s.TotalLogins())
	assert.Equal(t, uint64(1), s.TotalAnonymousLogins())
}

func TestLoginFailed(t *testing.T) {
	s := New(Limits{}, nil)

	s.LoginFailed("192.0.2.7:1000")
	s.LoginFailed("192.0.2.7:1000")
	s.LoginFailed("192.0.2.8:2000")

	assert.Equal(t, uint64(3), s.TotalFailedLogins())
	assert.Equal(t, uint64(2), s.FailedLogins("192.0.2.7:1000"))
	assert.Equal(t, uint64(1), s.FailedLogins("192.0.2.8:2000"))
	assert.Zero(t, s.FailedLogins("192.0.2.9:3000"))

	// Failures never consume login slots.
	assert.Equal(t, 0, s.CurrentLogins())
}

func TestAdvisoryChecks(t *testing.T) {
	s := New(Limits{MaxLogins: 1, MaxAnonymousLogins: 1}, nil)

	assert.True(t, s.AllowsLogin())
	assert.True(t, s.AllowsAnonymousLogin())

	require.NoError(t, s.TryLogin(true))

	assert.False(t, s.AllowsLogin())
	assert.False(t, s.AllowsAnonymousLogin())

	s.Logout(true)
	assert.True(t, s.AllowsAnonymousLogin())
}

func TestConnectionCounters(t *testing.T) {
	s := New(Limits{}, nil)

	s.ConnectionOpened()
	s.ConnectionOpened()
	s.ConnectionClosed()

	assert.Equal(t, 1, s.CurrentConnections())
	assert.Equal(t, uint64(2), s.TotalConnections())

	// Underflow is clamped.
	s.ConnectionClosed()
	s.ConnectionClosed()
	assert.Equal(t, 0, s.CurrentConnections())
}
