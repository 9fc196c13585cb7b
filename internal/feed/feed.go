// Package feed composes the visibility tracker and the playback controller
// into a windowed list of menu item rows.
//
// Only rows within WindowRadius of the active index are mounted, which
// bounds the number of live video players regardless of feed length. All
// state changes happen on the goroutine that calls the Feed's methods
// (normally Run); URL signing and prefetching run in the background and
// report back through the loop.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/menureel/menureel/internal/menu"
	"github.com/menureel/menureel/internal/metrics"
	"github.com/menureel/menureel/internal/playback"
	"github.com/menureel/menureel/internal/signedurl"
	"github.com/menureel/menureel/internal/visibility"
)

// Surface renders rows. MountRow returns the video player for the row.
type Surface interface {
	MountRow(index int, item menu.MenuItem) (playback.Player, error)
	UnmountRow(index int)
	ActiveChanged(index int)
}

type URLSource interface {
	Lookup(path string) (signedurl.Entry, bool)
	Resolve(ctx context.Context, path string) (string, error)
	Refresh(ctx context.Context, path string) (signedurl.Entry, error)
}

type Prefetcher interface {
	Prefetch(ctx context.Context, url string) error
}

type Config struct {
	Visibility   visibility.Config
	WindowRadius int
	Prefetch     bool
}

func DefaultConfig() Config {
	return Config{
		Visibility:   visibility.DefaultConfig(),
		WindowRadius: 1,
		Prefetch:     true,
	}
}

// completion carries the mount it was started for. A row that was
// unmounted and mounted again gets a new mount number, so results started
// for the old mount are dropped.
type completion struct {
	index int
	mount uint64
	path  string
	url   string
	err   error
}

type Feed struct {
	cfg        Config
	items      []menu.MenuItem
	tracker    *visibility.Tracker
	ctrl       *playback.Controller
	surface    Surface
	urls       URLSource
	prefetcher Prefetcher
	logger     *slog.Logger
	now        func() time.Time

	ctx         context.Context
	mounted     map[int]uint64
	mounts      uint64
	completions chan completion
}

func New(items []menu.MenuItem, surface Surface, urls URLSource, cfg Config, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		cfg:         cfg,
		items:       items,
		tracker:     visibility.NewTracker(cfg.Visibility, len(items)),
		ctrl:        playback.NewController(playback.NewSession(), logger),
		surface:     surface,
		urls:        urls,
		logger:      logger,
		now:         time.Now,
		ctx:         context.Background(),
		mounted:     make(map[int]uint64),
		completions: make(chan completion, 16),
	}
}

func (f *Feed) SetPrefetcher(p Prefetcher) {
	f.prefetcher = p
}

func (f *Feed) Len() int {
	return len(f.items)
}

func (f *Feed) Controller() *playback.Controller {
	return f.ctrl
}

// Active returns the current active index, if any.
func (f *Feed) Active() (int, bool) {
	return f.ctrl.Session().Active()
}

// Start mounts the rows around the initial scroll position.
func (f *Feed) Start() {
	f.reconcile(0)
}

// Run serialises inputs, async completions and debounce deadlines until
// ctx is done or inputs is closed. Every mounted row is torn down on return.
func (f *Feed) Run(ctx context.Context, inputs <-chan Message) error {
	f.ctx = ctx
	defer f.Close()

	f.Start()
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		var deadline <-chan time.Time
		if next, ok := f.tracker.NextDeadline(); ok {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(max(next.Sub(f.now()), 0))
			deadline = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-inputs:
			if !ok {
				return nil
			}
			if err := f.Handle(msg); err != nil {
				f.logger.Warn("feed: dropped message", "type", msg.Type, "error", err)
			}
		case c := <-f.completions:
			f.complete(c)
		case <-deadline:
			f.Tick()
		}
	}
}

func (f *Feed) Handle(msg Message) error {
	switch msg.Type {
	case MessageViewport:
		f.Viewport(msg.Events)
	case MessageInteract:
		f.Interact()
	case MessageTap:
		f.Tap(msg.Index)
	case MessageStatus:
		f.PlayerStatus(msg.Index, msg.Status, msg.Error, msg.Expired)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
	return nil
}

func (f *Feed) Viewport(events []visibility.Event) {
	if idx, changed := f.tracker.Observe(f.now(), events); changed {
		f.activate(idx)
	}
}

func (f *Feed) Tick() {
	if idx, changed := f.tracker.Advance(f.now()); changed {
		f.activate(idx)
	}
}

func (f *Feed) Interact() {
	f.ctrl.MarkInteracted()
}

func (f *Feed) Tap(index int) bool {
	return f.ctrl.Tap(index)
}

func (f *Feed) PlayerStatus(index int, status, errMsg string, expired bool) {
	if !f.isMounted(index) {
		return
	}
	switch status {
	case StatusLoaded:
		f.ctrl.Ready(index)
	case StatusError:
		err := errors.New(errMsg)
		f.ctrl.Failed(index, err)
		if expired {
			f.refreshSource(index)
		}
	}
}

// Close tears down every mounted row.
func (f *Feed) Close() {
	for index := range f.mounted {
		f.unmountRow(index)
	}
}

// Mounted returns the mounted row indices in ascending order.
func (f *Feed) Mounted() []int {
	out := make([]int, 0, len(f.mounted))
	for index := range f.mounted {
		out = append(out, index)
	}
	sort.Ints(out)
	return out
}

func (f *Feed) activate(index int) {
	f.reconcile(index)
	f.ctrl.SetActive(index)
	f.unmountOutside(index)
	f.surface.ActiveChanged(index)
	metrics.ActiveIndexChanges.Inc()
	f.logger.Debug("feed: active index changed", "index", index)
	f.prefetchAfter(index)
}

// reconcile mounts every row in the window around center.
func (f *Feed) reconcile(center int) {
	lo, hi := Window(center, len(f.items), f.cfg.WindowRadius)
	for i := lo; i <= hi; i++ {
		if !f.isMounted(i) {
			f.mountRow(i)
		}
	}
}

func (f *Feed) unmountOutside(center int) {
	lo, hi := Window(center, len(f.items), f.cfg.WindowRadius)
	for index := range f.mounted {
		if !inWindow(index, lo, hi) {
			f.unmountRow(index)
		}
	}
}

func (f *Feed) mountRow(index int) {
	item := f.items[index]
	player, err := f.surface.MountRow(index, item)
	if err != nil {
		f.logger.Warn("feed: mount failed", "index", index, "item_id", item.ID, "error", err)
		return
	}
	f.mounts++
	f.mounted[index] = f.mounts
	f.ctrl.Mount(index, player)
	f.attachSource(index)
}

func (f *Feed) unmountRow(index int) {
	f.ctrl.Unmount(index)
	f.surface.UnmountRow(index)
	delete(f.mounted, index)
}

func (f *Feed) isMounted(index int) bool {
	_, ok := f.mounted[index]
	return ok
}

// attachSource loads a live cached URL immediately or resolves one in the
// background. Rows without a video path stay without a playable source.
func (f *Feed) attachSource(index int) {
	path := f.items[index].VideoPath
	if !menu.IsVideoPath(path) || f.urls == nil {
		return
	}
	if e, ok := f.urls.Lookup(path); ok {
		f.ctrl.Load(index, e.URL)
		return
	}
	ctx, mount := f.ctx, f.mounted[index]
	go func() {
		url, err := f.urls.Resolve(ctx, path)
		f.post(ctx, completion{index: index, mount: mount, path: path, url: url, err: err})
	}()
}

func (f *Feed) refreshSource(index int) {
	path := f.items[index].VideoPath
	if !menu.IsVideoPath(path) || f.urls == nil {
		return
	}
	ctx, mount := f.ctx, f.mounted[index]
	go func() {
		e, err := f.urls.Refresh(ctx, path)
		f.post(ctx, completion{index: index, mount: mount, path: path, url: e.URL, err: err})
	}()
}

func (f *Feed) post(ctx context.Context, c completion) {
	select {
	case f.completions <- c:
	case <-ctx.Done():
	}
}

// complete applies a finished signing call. The cache already holds the
// result; the row is only reloaded if the mount that asked for it is still
// the current one.
func (f *Feed) complete(c completion) {
	if c.err != nil {
		f.logger.Warn("feed: row left without playable video", "index", c.index, "path", c.path, "error", c.err)
		return
	}
	if !f.isMounted(c.index) {
		f.logger.Debug("feed: dropping url for unmounted row", "index", c.index)
		return
	}
	if f.mounted[c.index] != c.mount {
		f.logger.Debug("feed: dropping url for earlier mount", "index", c.index, "mount", c.mount)
		return
	}
	f.ctrl.Load(c.index, c.url)
}

func (f *Feed) prefetchAfter(index int) {
	if !f.cfg.Prefetch || f.prefetcher == nil || f.urls == nil {
		return
	}
	next := index + 1
	if next >= len(f.items) || !menu.IsVideoPath(f.items[next].VideoPath) {
		return
	}
	e, ok := f.urls.Lookup(f.items[next].VideoPath)
	if !ok {
		return
	}
	ctx := f.ctx
	go func() {
		if err := f.prefetcher.Prefetch(ctx, e.URL); err != nil {
			metrics.PrefetchFailures.Inc()
			f.logger.Debug("feed: prefetch failed", "index", next, "error", err)
		}
	}()
}
