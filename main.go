package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/justinas/alice"
	"github.com/lyricsbridge/lyrics-bridge/internal/audit"
	"github.com/lyricsbridge/lyrics-bridge/internal/config"
	"github.com/lyricsbridge/lyrics-bridge/internal/observe"
	"github.com/lyricsbridge/lyrics-bridge/internal/server"
	"github.com/lyricsbridge/lyrics-bridge/internal/spotify"
	"github.com/lyricsbridge/lyrics-bridge/internal/store"
	"github.com/lyricsbridge/lyrics-bridge/internal/vendor"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func configureServerRoutes(tokenVendor vendor.AccessTokenVendor, client *spotify.Client) http.Handler {
	// wrap a mux such that HTTP telemetry is configured by default
	muxWithoutTelemetry := http.NewServeMux()
	mux := observe.NewMux(muxWithoutTelemetry)

	// Requests carry everything in the query string, so the body limit is
	// small and not configurable.
	requestLimitBytes := int64(20 << 10) // 20 KB
	requestLimiter := maxRequestSize(requestLimitBytes)

	// the routes are called directly from browsers on any origin
	corsHandler := cors.Default().Handler

	proxyRouteMiddleware := alice.New(requestLimiter, corsHandler, audit.Middleware())
	standardRouteMiddleware := alice.New(requestLimiter)

	mux.Handle("GET /lyrics", proxyRouteMiddleware.Then(handleGetLyrics(tokenVendor, client.Lyrics)))
	mux.Handle("GET /player", proxyRouteMiddleware.Then(handleGetPlayer(tokenVendor, client.Player)))

	// healthchecks are not included in telemetry or auditing
	muxWithoutTelemetry.Handle("GET /healthcheck", standardRouteMiddleware.Then(handleHealthCheck()))

	return mux
}

func main() {
	configureLogging()

	logBuildInfo()

	err := launchServer()
	if err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}

func launchServer() error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("configuration load failed: %w", err)
	}

	// configure telemetry, including wrapping default HTTP client
	shutdownTelemetry, err := observe.Configure(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("telemetry bootstrap failed: %w", err)
	}

	http.DefaultTransport = observe.HTTPTransport(
		configureHTTPTransport(cfg.Server),
		cfg.Observe,
	)
	http.DefaultClient = &http.Client{
		Transport: http.DefaultTransport,
	}

	tokenStore, err := store.NewFromConfig(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("token store configuration failed: %w", err)
	}

	client := spotify.New(cfg.Spotify, http.DefaultClient)
	tokenVendor := vendor.Auditor(vendor.Cached(tokenStore)(client.AcquireLive))

	handler := configureServerRoutes(tokenVendor, client)

	srv := &http.Server{
		Handler:           handler,
		MaxHeaderBytes:    20 << 10,         // 20 KB
		ReadHeaderTimeout: 20 * time.Second, // Prevent Slowloris attacks
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("listen failed: %w", err)
	}

	hooks := &server.Hooks{}
	hooks.RegisterCloser("token store", tokenStore)
	hooks.Register("telemetry", shutdownTelemetry)

	err = server.Serve(ctx, srv, ln, time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second, hooks)
	if err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func configureLogging() {
	// Set global level to the minimum: allows the Open Telemetry logging to be
	// configured separately. However, it means that any logger that sets its
	// level will log as this effectively disables the global level.
	zerolog.SetGlobalLevel(zerolog.Level(-128))

	// default level is Info
	log.Logger = log.Level(zerolog.InfoLevel)

	if os.Getenv("ENV") == "development" {
		log.Logger = log.
			Output(zerolog.ConsoleWriter{Out: os.Stdout}).
			Level(zerolog.DebugLevel)
	}

	zerolog.DefaultContextLogger = &log.Logger
}

func logBuildInfo() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	ev := log.Info()
	for _, v := range buildInfo.Settings {
		if strings.HasPrefix(v.Key, "vcs.") ||
			strings.HasPrefix(v.Key, "GO") ||
			v.Key == "CGO_ENABLED" {
			ev = ev.Str(v.Key, v.Value)
		}
	}

	ev.Msg("build information")
}

func configureHTTPTransport(cfg config.ServerConfig) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.MaxIdleConns = cfg.OutgoingHTTPMaxIdleConns
	transport.MaxConnsPerHost = cfg.OutgoingHTTPMaxConnsPerHost

	return transport
}
