/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/airloom/airloom/internal/assembler"
	"github.com/airloom/airloom/internal/cache"
	"github.com/airloom/airloom/internal/clock"
	"github.com/airloom/airloom/internal/config"
	"github.com/airloom/airloom/internal/content"
	"github.com/airloom/airloom/internal/db"
	"github.com/airloom/airloom/internal/events"
	"github.com/airloom/airloom/internal/library"
	"github.com/airloom/airloom/internal/rotation"
	"github.com/airloom/airloom/internal/schedule"
	"github.com/airloom/airloom/internal/telemetry"
)

// Server bundles the HTTP API and the playout services behind it.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db        *gorm.DB
	cache     *cache.Cache
	store     *library.Store
	engine    *rotation.Engine
	scheduler *schedule.Scheduler
	watcher   *schedule.Watcher
	assembler *assembler.Assembler
	bus       *events.Bus

	bgCancel context.CancelFunc
}

// musicSourceAdapter narrows the library store to the candidate feed the
// assembler consumes: analyzed music items only.
type musicSourceAdapter struct {
	store *library.Store
}

func (a *musicSourceAdapter) ListCandidates(ctx context.Context) ([]rotation.Track, error) {
	return a.store.ListCandidates(ctx, library.Filter{})
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("airloom-api"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger.With().Str("component", "server").Logger(),
		router: router,
		bus:    events.NewBus(),
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()

	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if s.cfg.RedisAddr != "" {
		c, err := cache.New(cache.Config{
			RedisAddr:     s.cfg.RedisAddr,
			RedisPassword: s.cfg.RedisPassword,
			RedisDB:       s.cfg.RedisDB,
			CandidateTTL:  s.cfg.CacheTTL,
		}, s.logger)
		if err != nil {
			return fmt.Errorf("init cache: %w", err)
		}
		s.cache = c
		s.DeferClose(func() error { return c.Close() })
	}

	s.store = library.NewStore(database, s.cache, s.logger)

	engine, err := rotation.NewEngine(rotationRules(s.cfg), s.logger)
	if err != nil {
		return fmt.Errorf("init rotation engine: %w", err)
	}
	engine.SetBus(s.bus)
	s.engine = engine

	if err := s.warmHistory(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to warm rotation history, starting empty")
	}

	clocks := clock.DefaultClocks()
	if s.cfg.ClockDir != "" {
		loaded, err := clock.LoadDir(s.cfg.ClockDir)
		if err != nil {
			return fmt.Errorf("load clock dir: %w", err)
		}
		for daypart, c := range loaded {
			clocks[daypart] = c
		}
	}
	s.scheduler = schedule.NewScheduler(clocks, nil, s.logger)

	s.watcher = schedule.NewWatcher(s.scheduler, s.bus, nil, s.cfg.WatcherInterval, s.logger)

	asm, err := assembler.New(s.engine, s.scheduler, &musicSourceAdapter{store: s.store}, s.logger,
		assembler.WithContent(content.NewScriptBook(s.cfg.StationName)),
		assembler.WithVoice(content.NewSpeechEstimator()),
		assembler.WithRecorder(s.store),
		assembler.WithBus(s.bus),
	)
	if err != nil {
		return fmt.Errorf("init assembler: %w", err)
	}
	s.assembler = asm

	return nil
}

// rotationRules overlays configured overrides on the built-in defaults.
func rotationRules(cfg *config.Config) rotation.Rules {
	rules := rotation.DefaultRules()
	if cfg.ArtistSeparation > 0 {
		rules.ArtistSeparation = cfg.ArtistSeparation
	}
	if cfg.TrackSeparation > 0 {
		rules.TrackSeparation = cfg.TrackSeparation
	}
	if cfg.TitleSeparation > 0 {
		rules.TitleSeparation = cfg.TitleSeparation
	}
	if cfg.RightsWindow > 0 {
		rules.RightsWindow = cfg.RightsWindow
	}
	if cfg.MaxArtistInWindow > 0 {
		rules.MaxArtistInWindow = cfg.MaxArtistInWindow
	}
	if cfg.MaxAlbumInWindow > 0 {
		rules.MaxAlbumInWindow = cfg.MaxAlbumInWindow
	}
	rules.RelaxRightsOnFallback = cfg.RelaxRightsOnFallback
	return rules
}

// warmHistory replays the persisted play log into the in-memory engine so
// separation rules hold across restarts.
func (s *Server) warmHistory() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := s.store.RecentPlays(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return err
	}
	for _, entry := range entries {
		s.engine.RecordPlay(entry.Track, entry.PlayedAt)
	}
	s.logger.Info().Int("entries", len(entries)).Msg("rotation history warmed from play log")
	return nil
}

// Start runs the schedule watcher and blocks serving HTTP until ctx is
// cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	bgCtx, cancel := context.WithCancel(ctx)
	s.bgCancel = cancel

	go func() {
		if err := s.watcher.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("schedule watcher stopped")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP shutdown error")
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// Assembler exposes the wired assembler for batch generation.
func (s *Server) Assembler() *assembler.Assembler {
	return s.assembler
}

// RotationEngine exposes the wired rotation engine.
func (s *Server) RotationEngine() *rotation.Engine {
	return s.engine
}

// Store exposes the media library store.
func (s *Server) Store() *library.Store {
	return s.store
}

// Scheduler exposes the station scheduler.
func (s *Server) Scheduler() *schedule.Scheduler {
	return s.scheduler
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	if s.bgCancel != nil {
		s.bgCancel()
		s.bgCancel = nil
	}
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}
