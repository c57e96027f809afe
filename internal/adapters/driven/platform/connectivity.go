package platform

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/feedsync/internal/core/ports/driven"
	"github.com/custodia-labs/feedsync/internal/logger"
)

// Ensure the connectivity implementations implement the interface.
var (
	_ driven.Connectivity = StaticConnectivity(true)
	_ driven.Connectivity = (*HeadCheck)(nil)
)

// StaticConnectivity reports a fixed connectivity state.
type StaticConnectivity bool

// IsOnline reports the fixed state.
func (s StaticConnectivity) IsOnline() bool { return bool(s) }

// DefaultCheckInterval is how long a check result is reused.
const DefaultCheckInterval = 30 * time.Second

// checkTimeout bounds a single check request.
const checkTimeout = 5 * time.Second

// HeadCheck reports connectivity by sending a HEAD request to the server. The
// result is cached for the check interval. Any HTTP response counts as
// online.
type HeadCheck struct {
	url       string
	client    *http.Client
	sometimes rate.Sometimes
	online    atomic.Bool
}

// NewHeadCheck creates a check against url. interval <= 0 uses
// DefaultCheckInterval. client may be nil.
func NewHeadCheck(url string, interval time.Duration, client *http.Client) *HeadCheck {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	if client == nil {
		client = &http.Client{Timeout: checkTimeout}
	}
	return &HeadCheck{
		url:       url,
		client:    client,
		sometimes: rate.Sometimes{Interval: interval},
	}
}

// IsOnline reports the result of the latest check, checking first when the
// cached result is stale.
func (p *HeadCheck) IsOnline() bool {
	p.sometimes.Do(p.check)
	return p.online.Load()
}

func (p *HeadCheck) check() {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		logger.Warn("connectivity check: %v", err)
		p.online.Store(false)
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		logger.Debug("connectivity check %s: %v", p.url, err)
		p.online.Store(false)
		return
	}
	_ = resp.Body.Close()
	p.online.Store(true)
}
