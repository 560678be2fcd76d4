package service

import (
	"context"
	"io"

	"github.com/rs/zerolog"
)

// FileStore persists uploaded files and returns their relative path.
type FileStore interface {
	Save(ctx context.Context, r io.Reader, filename, dir string) (string, error)
	Delete(path string) error
}

// StatsCache stores computed statistics keyed by scope.
type StatsCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context) error
}

// Upload is a file received with a request.
type Upload struct {
	Filename string
	Content  io.Reader
}

func invalidateStats(ctx context.Context, cache StatsCache) {
	if err := cache.Invalidate(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to invalidate statistics cache")
	}
}
