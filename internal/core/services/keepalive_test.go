package services

import (
	stdsync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeepAliveGuard_NewIsIdle(t *testing.T) {
	g := NewKeepAliveGuard(nil)

	assert.Equal(t, 0, g.Count())
	assert.True(t, g.Idle())
	assert.Equal(t, NoTrigger, g.LastCompleted())
	assert.False(t, g.ShouldStop())
}

func TestKeepAliveGuard_BalancedAcquireRelease(t *testing.T) {
	const n = 5
	g := NewKeepAliveGuard(nil)

	var idleCalls []int64
	g.SetIdleHook(func(id int64) { idleCalls = append(idleCalls, id) })

	for i := 0; i < n; i++ {
		g.Acquire()
	}
	for i := 0; i < n-1; i++ {
		assert.False(t, g.Release(int64(i+1)), "release %d must not reach idle", i+1)
	}
	assert.Equal(t, 1, g.Count())
	assert.Empty(t, idleCalls)
	assert.Equal(t, NoTrigger, g.LastCompleted())

	assert.True(t, g.Release(42))
	assert.Equal(t, 0, g.Count())
	assert.Equal(t, []int64{42}, idleCalls)
	assert.Equal(t, int64(42), g.LastCompleted())
}

func TestKeepAliveGuard_ReleaseWithoutAcquireIgnored(t *testing.T) {
	g := NewKeepAliveGuard(nil)
	called := false
	g.SetIdleHook(func(int64) { called = true })

	assert.False(t, g.Release(1))
	assert.Equal(t, 0, g.Count())
	assert.False(t, called)
	assert.Equal(t, NoTrigger, g.LastCompleted())

	// the count did not go negative: one acquire is enough to hold it
	g.Acquire()
	assert.Equal(t, 1, g.Count())
}

func TestKeepAliveGuard_Concurrent(t *testing.T) {
	g := NewKeepAliveGuard(nil)

	var wg stdsync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			g.Acquire()
			g.Release(id)
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 0, g.Count())
	assert.NotEqual(t, NoTrigger, g.LastCompleted())
}

func TestKeepAliveGuard_SoftInterruptResume(t *testing.T) {
	g := NewKeepAliveGuard(nil)

	g.SoftInterrupt()
	assert.True(t, g.Interrupted())
	assert.True(t, g.ShouldStop())

	g.Resume()
	assert.False(t, g.Interrupted())
	assert.False(t, g.ShouldStop())
}

func TestKeepAliveGuard_ShouldStopWhenOffline(t *testing.T) {
	conn := &fakeConnectivity{}
	g := NewKeepAliveGuard(conn)
	require.False(t, g.ShouldStop())

	conn.offline.Store(true)
	assert.True(t, g.ShouldStop())
	assert.False(t, g.Interrupted())
}
