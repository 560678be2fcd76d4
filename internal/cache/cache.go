package cache

import "context"

// Noop never stores anything. It is used when no redis address is
// configured.
type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, error) {
	return false, nil
}

func (Noop) Set(context.Context, string, any) error {
	return nil
}

func (Noop) Invalidate(context.Context) error {
	return nil
}
