package cache

import (
	"context"
	"time"
)

// Noop satisfies Cache without storing anything. Used in tests and when
// caching is disabled by configuration.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) Get(context.Context, string) (string, bool, error)       { return "", false, nil }
func (Noop) Set(context.Context, string, string, time.Duration) error { return nil }
func (Noop) Invalidate(context.Context, ...string) error              { return nil }
