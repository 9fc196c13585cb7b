package menu

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/menureel/menureel/internal/metrics"
)

const signConcurrency = 8

type Source interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListMenuItems(ctx context.Context) ([]MenuItem, error)
}

type URLResolver interface {
	Resolve(ctx context.Context, path string) (string, error)
}

type Loader struct {
	source Source
	urls   URLResolver
}

func NewLoader(source Source, urls URLResolver) *Loader {
	return &Loader{source: source, urls: urls}
}

// Load fetches categories and items concurrently and signs video paths.
// A failed fetch fails the whole load; a failed signature only leaves that
// item's URL empty.
func (l *Loader) Load(ctx context.Context) (Menu, error) {
	start := time.Now()

	var categories []Category
	var items []MenuItem

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = l.source.ListCategories(gctx)
		if err != nil {
			return &DataLoadFailedError{Op: "list categories", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		items, err = l.source.ListMenuItems(gctx)
		if err != nil {
			return &DataLoadFailedError{Op: "list menu items", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.MenuLoadFailures.Inc()
		slog.Error("menu: load failed", "error", err)
		return Menu{}, err
	}

	l.signItems(ctx, items)

	metrics.MenuLoadDuration.Observe(time.Since(start).Seconds())
	return Menu{Categories: categories, Items: items}, nil
}

func (l *Loader) LoadGrouped(ctx context.Context) ([]CategoryGroup, error) {
	m, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Group(m.Categories, m.Items), nil
}

func (l *Loader) signItems(ctx context.Context, items []MenuItem) {
	if l.urls == nil {
		return
	}
	var g errgroup.Group
	g.SetLimit(signConcurrency)
	for i := range items {
		if !IsVideoPath(items[i].VideoPath) {
			continue
		}
		i := i
		g.Go(func() error {
			url, err := l.urls.Resolve(ctx, items[i].VideoPath)
			if err != nil {
				slog.Warn("menu: keeping item without signed url", "item_id", items[i].ID, "error", err)
				return nil
			}
			items[i].URL = url
			return nil
		})
	}
	_ = g.Wait()
}

// HasVideo reports whether path is the video of an item currently on the
// menu. It lists items without signing anything.
func (l *Loader) HasVideo(ctx context.Context, path string) (bool, error) {
	items, err := l.source.ListMenuItems(ctx)
	if err != nil {
		return false, &DataLoadFailedError{Op: "list menu items", Err: err}
	}
	for _, item := range items {
		if item.VideoPath == path && IsVideoPath(path) {
			return true, nil
		}
	}
	return false, nil
}
