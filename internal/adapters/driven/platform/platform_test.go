package platform

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== ActivityCounter ====================

func TestActivityCounter(t *testing.T) {
	var a ActivityCounter
	assert.Equal(t, 0, a.ActiveCount())

	closeOne := a.Open()
	closeTwo := a.Open()
	assert.Equal(t, 2, a.ActiveCount())

	closeOne()
	closeOne()
	assert.Equal(t, 1, a.ActiveCount())

	closeTwo()
	assert.Equal(t, 0, a.ActiveCount())
}

func TestActivityCounter_Concurrent(t *testing.T) {
	var a ActivityCounter
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done := a.Open()
			done()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, a.ActiveCount())
}

// ==================== Connectivity ====================

func TestStaticConnectivity(t *testing.T) {
	assert.True(t, StaticConnectivity(true).IsOnline())
	assert.False(t, StaticConnectivity(false).IsOnline())
}

func TestHeadCheck_Online(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHeadCheck(srv.URL, time.Hour, nil)

	assert.True(t, p.IsOnline())
	assert.True(t, p.IsOnline())
	assert.Equal(t, int32(1), hits.Load(), "result should be cached")
}

func TestHeadCheck_Offline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewHeadCheck(url, time.Hour, nil)

	assert.False(t, p.IsOnline())
}

func TestHeadCheck_InvalidURL(t *testing.T) {
	p := NewHeadCheck("://bad", time.Hour, nil)
	assert.False(t, p.IsOnline())
}

func TestHeadCheck_Rechecks(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	p := NewHeadCheck(srv.URL, time.Millisecond, nil)
	require.True(t, p.IsOnline())

	assert.Eventually(t, func() bool {
		p.IsOnline()
		return hits.Load() > 1
	}, time.Second, 5*time.Millisecond)
}

func TestNewHeadCheck_Defaults(t *testing.T) {
	p := NewHeadCheck("http://localhost", 0, nil)
	assert.Equal(t, DefaultCheckInterval, p.sometimes.Interval)
	assert.Equal(t, checkTimeout, p.client.Timeout)
}

// ==================== Broadcaster ====================

func TestBroadcaster_Delivers(t *testing.T) {
	b := NewBroadcaster()
	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel1()
	defer cancel2()

	b.StateChanged(true)

	assert.Equal(t, Change{NewContent: true}, <-ch1)
	assert.Equal(t, Change{NewContent: true}, <-ch2)
	assert.Equal(t, 2, b.Subscribers())
}

func TestBroadcaster_Cancel(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, b.Subscribers())

	b.StateChanged(false)
}

func TestBroadcaster_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			b.StateChanged(false)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("StateChanged blocked on a full subscriber")
	}
	assert.Len(t, ch, subscriberBuffer)
}
