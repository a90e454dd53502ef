// Package geo acquires a submitter's position with a bounded wait and a short
// position cache, degrading to a fixed campus coordinate instead of failing.
package geo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ragno-typhojem/libocculus/internal/domain"
)

const (
	DefaultTimeout = 15 * time.Second
	DefaultMaxAge  = 60 * time.Second
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("position unavailable")
	ErrTimeout          = errors.New("position acquisition timed out")
)

// Locator produces the caller's current position.
type Locator interface {
	Locate(ctx context.Context) (domain.Coordinates, error)
}

// Reported is a position supplied by the client device, which may have been
// denied or unavailable on the device itself.
type Reported struct {
	Position *domain.Coordinates
	Denied   bool
}

func (r Reported) Locate(_ context.Context) (domain.Coordinates, error) {
	if r.Denied {
		return domain.Coordinates{}, ErrPermissionDenied
	}
	if r.Position == nil {
		return domain.Coordinates{}, ErrUnavailable
	}
	p := *r.Position
	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return domain.Coordinates{}, ErrUnavailable
	}
	return p, nil
}

// Fix is the outcome of an acquisition. Err is set only when the fallback was used.
type Fix struct {
	Coordinates domain.Coordinates
	Source      string
	Err         error
}

// Degraded reports whether the fallback coordinate was substituted.
func (f Fix) Degraded() bool { return f.Source == domain.LocationSourceFallback }

type cachedFix struct {
	coords domain.Coordinates
	at     time.Time
}

// Acquirer resolves positions per key (the reporting device, or the submitter).
type Acquirer struct {
	timeout  time.Duration
	maxAge   time.Duration
	fallback domain.Coordinates
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cachedFix
}

// NewAcquirer builds an Acquirer. Zero durations select the defaults.
func NewAcquirer(timeout, maxAge time.Duration) *Acquirer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Acquirer{
		timeout:  timeout,
		maxAge:   maxAge,
		fallback: domain.CampusFallback,
		now:      time.Now,
		cache:    make(map[string]cachedFix),
	}
}

// Acquire never fails: any locator error, denial or timeout yields the
// campus fallback with Fix.Err describing why.
func (a *Acquirer) Acquire(ctx context.Context, key string, loc Locator) Fix {
	if c, ok := a.cached(key); ok {
		return Fix{Coordinates: c, Source: domain.LocationSourceCache}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		coords domain.Coordinates
		err    error
	}
	done := make(chan result, 1)
	go func() {
		c, err := loc.Locate(ctx)
		done <- result{c, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ErrTimeout
	}
	if res.err != nil {
		slog.Warn("position unavailable, using campus fallback", "component", "geo", "key", key, "err", res.err)
		return Fix{Coordinates: a.fallback, Source: domain.LocationSourceFallback, Err: res.err}
	}
	a.store(key, res.coords)
	return Fix{Coordinates: res.coords, Source: domain.LocationSourceDevice}
}

func (a *Acquirer) cached(key string) (domain.Coordinates, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.cache[key]
	if !ok || a.now().Sub(c.at) > a.maxAge {
		return domain.Coordinates{}, false
	}
	return c.coords, true
}

func (a *Acquirer) store(key string, coords domain.Coordinates) {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	for k, v := range a.cache {
		if now.Sub(v.at) > a.maxAge {
			delete(a.cache, k)
		}
	}
	a.cache[key] = cachedFix{coords: coords, at: now}
}
