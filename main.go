package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle-kids/internal/config"
	"github.com/robalobadob/wordle-kids/internal/game"
	"github.com/robalobadob/wordle-kids/internal/httpserver"
	"github.com/robalobadob/wordle-kids/internal/session"
	"github.com/robalobadob/wordle-kids/internal/store"
	"github.com/robalobadob/wordle-kids/internal/words"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	src, err := words.Load(words.Options{File: cfg.WordsFile, Dir: cfg.WordsDir})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}
	lengths := make([]int, 0, game.MaxWordLength-game.MinWordLength+1)
	for n := game.MinWordLength; n <= game.MaxWordLength; n++ {
		lengths = append(lengths, n)
	}
	if err := src.Validate(lengths...); err != nil {
		log.Fatal().Err(err).Msg("word lists incomplete")
	}

	st, err := store.Open(store.Config{
		Driver:       cfg.StoreDriver,
		SQLiteDriver: cfg.SQLiteDriver,
		SQLitePath:   cfg.SQLitePath,
		BoltPath:     cfg.BoltPath,
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer st.Close()

	if cfg.SessionSecret == "" {
		log.Warn().Msg("SESSION_SECRET not set; sessions end when the server restarts")
	}
	cookies, err := httpserver.NewSessions(httpserver.SessionOptions{
		Secret:     cfg.SessionSecret,
		CookieName: cfg.CookieName,
		TTL:        cfg.SessionTTL(),
		Secure:     cfg.CookieSecure,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("session setup")
	}

	svc := session.NewService(st, src, log.Logger)
	srv := httpserver.New(svc, src, cookies, httpserver.Options{
		ClientOrigin:   cfg.ClientOrigin,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log.Logger,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go svc.RunJanitor(ctx, time.Minute, cfg.SessionIdle)

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("starting go-server")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}

// setupLogging applies LOG_LEVEL and LOG_FORMAT to the global logger.
func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
