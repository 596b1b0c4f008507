package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Serve accepts connections on ln until ctx is cancelled or the process
// receives SIGINT or SIGTERM. In-flight requests are then given up to
// timeout to complete before the hooks run.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, hooks *Hooks) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("server: listening")
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runHooks(hooks, timeout)
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
		stop()
		log.Info().Dur("timeout", timeout).Msg("server: shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	shutdownErr := srv.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		log.Warn().Err(shutdownErr).Msg("server: graceful shutdown incomplete")
	}

	hooksErr := hooks.Run(shutdownCtx)

	log.Info().Msg("server: stopped")

	return errors.Join(shutdownErr, hooksErr)
}

func runHooks(hooks *Hooks, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_ = hooks.Run(ctx)
}
