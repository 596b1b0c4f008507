package encryption

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tink-crypto/tink-go/v2/tink"
)

// Loader produces the current AEAD, typically by re-reading the keyset.
type Loader func(ctx context.Context) (tink.AEAD, error)

// Rotating is an AEAD that reloads its keyset periodically, so keys rotated in
// Secrets Manager are picked up without a restart. A failed reload keeps the
// current keyset.
type Rotating struct {
	current atomic.Pointer[tink.AEAD]
	load    Loader

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewRotating loads the initial keyset and starts reloading it every
// interval until Close is called or ctx ends.
func NewRotating(ctx context.Context, load Loader, interval time.Duration) (*Rotating, error) {
	initial, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading keyset: %w", err)
	}

	r := &Rotating{
		load: load,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	r.current.Store(&initial)

	go r.run(ctx, interval)

	return r, nil
}

func (r *Rotating) Encrypt(plaintext, associatedData []byte) ([]byte, error) {
	return (*r.current.Load()).Encrypt(plaintext, associatedData)
}

func (r *Rotating) Decrypt(ciphertext, associatedData []byte) ([]byte, error) {
	return (*r.current.Load()).Decrypt(ciphertext, associatedData)
}

// Close stops reloading. It is safe to call more than once.
func (r *Rotating) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
	return nil
}

func (r *Rotating) run(ctx context.Context, interval time.Duration) {
	defer close(r.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reload(ctx)
		}
	}
}

func (r *Rotating) reload(ctx context.Context) {
	next, err := r.load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("keyset reload failed; keeping current keyset")
		return
	}

	r.current.Store(&next)
	log.Debug().Msg("keyset reloaded")
}
