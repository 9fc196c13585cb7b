// Package signedurl caches time-limited video URLs keyed by storage path.
//
// An entry is served while now < ExpiresAt (minus an optional refresh
// margin). Misses and forced refreshes call the Signer and replace the
// entry wholesale; the last write for a path wins.
package signedurl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/menureel/menureel/internal/metrics"
)

const DefaultTTL = time.Hour

// SignTimeout bounds one signing request shared by concurrent callers.
const SignTimeout = 30 * time.Second

type Signer interface {
	Sign(ctx context.Context, path string, ttl time.Duration) (url string, expiresAt time.Time, err error)
}

type Entry struct {
	Path      string
	URL       string
	ExpiresAt time.Time
}

type SigningFailedError struct {
	Path string
	Err  error
}

func (e *SigningFailedError) Error() string {
	return fmt.Sprintf("signing failed for %q: %v", e.Path, e.Err)
}

func (e *SigningFailedError) Unwrap() error {
	return e.Err
}

type Cache struct {
	signer Signer
	ttl    time.Duration
	margin time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]Entry
	group   singleflight.Group
}

func New(signer Signer, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		signer:  signer,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
}

// SetRefreshMargin makes entries count as stale this long before they expire.
func (c *Cache) SetRefreshMargin(d time.Duration) {
	if d < 0 || d >= c.ttl {
		d = 0
	}
	c.margin = d
}

func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Lookup returns the live entry for path without signing.
func (c *Cache) Lookup(path string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok || !c.live(e) {
		return Entry{}, false
	}
	return e, true
}

func (c *Cache) Store(e Entry) {
	c.mu.Lock()
	c.entries[e.Path] = e
	c.mu.Unlock()
}

func (c *Cache) Resolve(ctx context.Context, path string) (string, error) {
	if e, ok := c.Lookup(path); ok {
		metrics.SignedURLLookups.WithLabelValues("hit").Inc()
		return e.URL, nil
	}
	metrics.SignedURLLookups.WithLabelValues("miss").Inc()
	e, err := c.sign(ctx, path)
	if err != nil {
		return "", err
	}
	return e.URL, nil
}

// Refresh signs path again regardless of what is cached.
func (c *Cache) Refresh(ctx context.Context, path string) (Entry, error) {
	metrics.SignedURLLookups.WithLabelValues("refresh").Inc()
	return c.sign(ctx, path)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// sign collapses concurrent signing calls for one path into a single
// request. The shared call is detached from any one caller's cancellation
// and bounded by SignTimeout; a caller whose context ends stops waiting
// without failing the others.
func (c *Cache) sign(ctx context.Context, path string) (Entry, error) {
	ch := c.group.DoChan(path, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SignTimeout)
		defer cancel()

		issuedAt := c.now()
		url, expiresAt, err := c.signer.Sign(sctx, path, c.ttl)
		if err != nil {
			metrics.SigningFailures.Inc()
			slog.Warn("signedurl: signing failed", "path", path, "error", err)
			return nil, &SigningFailedError{Path: path, Err: err}
		}
		limit := issuedAt.Add(c.ttl)
		if expiresAt.IsZero() || expiresAt.After(limit) {
			expiresAt = limit
		}
		e := Entry{Path: path, URL: url, ExpiresAt: expiresAt}
		c.Store(e)
		return e, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Entry{}, res.Err
		}
		return res.Val.(Entry), nil
	case <-ctx.Done():
		return Entry{}, ctx.Err()
	}
}

func (c *Cache) live(e Entry) bool {
	return c.now().Add(c.margin).Before(e.ExpiresAt)
}
