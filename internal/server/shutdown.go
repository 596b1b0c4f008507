package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

// Hooks is the ordered list of cleanup steps run once the server has stopped
// accepting requests: telemetry flush, store connections and the like. Every
// hook runs even when an earlier one fails.
type Hooks struct {
	hooks []hook
}

// Register adds a named hook. Nil hooks are ignored.
func (h *Hooks) Register(name string, fn func(context.Context) error) {
	if fn == nil {
		log.Warn().Str("hook", name).Msg("nil shutdown hook ignored")
		return
	}

	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// RegisterCloser adds a hook that closes c, e.g. a token store.
func (h *Hooks) RegisterCloser(name string, c interface{ Close() error }) {
	if c == nil {
		log.Warn().Str("hook", name).Msg("nil shutdown hook ignored")
		return
	}

	h.Register(name, func(context.Context) error { return c.Close() })
}

// Len reports the number of registered hooks.
func (h *Hooks) Len() int {
	return len(h.hooks)
}

// Run executes the hooks in registration order and returns the joined
// failures. A nil Hooks has nothing to run.
func (h *Hooks) Run(ctx context.Context) error {
	if h == nil {
		return nil
	}

	var errs []error

	for _, hk := range h.hooks {
		l := log.Ctx(ctx).With().Str("hook", hk.name).Logger()

		if err := hk.fn(ctx); err != nil {
			l.Warn().Err(err).Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("%s: %w", hk.name, err))
			continue
		}

		l.Debug().Msg("shutdown hook complete")
	}

	return errors.Join(errs...)
}
