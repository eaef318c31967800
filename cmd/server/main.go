package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Wyydra/voicetext/internal/adapter/driven/gateway"
	"github.com/Wyydra/voicetext/internal/adapter/driven/gateway/pubsub"
	"github.com/Wyydra/voicetext/internal/adapter/driven/gateway/ws"
	metrics "github.com/Wyydra/voicetext/internal/adapter/driven/metrics/prometheus"
	repo "github.com/Wyydra/voicetext/internal/adapter/driven/persistence/memory"
	translation "github.com/Wyydra/voicetext/internal/adapter/driven/translation/memory"
	handler "github.com/Wyydra/voicetext/internal/adapter/driving/http"
	"github.com/Wyydra/voicetext/internal/config"
	"github.com/Wyydra/voicetext/internal/core/port"
	"github.com/Wyydra/voicetext/internal/core/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load env file")
	}
	cfg, err := config.New[config.ServerConfig]()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}

	l := newLogger(cfg)
	log.Logger = l

	dict := translation.NewDictionary(translation.DefaultEntries)
	if cfg.DictionaryFile != "" {
		n, err := dict.LoadFile(cfg.DictionaryFile)
		if err != nil {
			l.Fatal().Err(err).Str("file", cfg.DictionaryFile).Msg("Failed to load dictionary")
		}
		l.Info().Int("loaded", n).Str("file", cfg.DictionaryFile).Msg("Dictionary file merged")
	}
	policy, _ := cfg.Policy()
	resolver := service.NewTranslationResolver(dict, policy)
	l.Info().Int("entries", dict.Len()).Str("policy", string(resolver.Policy())).Msg("Translation ready")

	records := repo.NewCallRecordRepository(cfg.HistoryLimit)
	m := metrics.New()
	hub := ws.NewHub()

	gateways := []port.RealTimeGateway{hub}
	var publisher *pubsub.Publisher
	if cfg.RedisAddr != "" {
		publisher, err = pubsub.New(context.Background(), pubsub.Options{
			Addr:          cfg.RedisAddr,
			Password:      cfg.RedisPassword,
			DB:            cfg.RedisDB,
			ChannelPrefix: cfg.RedisChannelPrefix,
			Timeout:       cfg.RedisTimeout,
		})
		if err != nil {
			l.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to redis")
		}
		gateways = append(gateways, publisher)
		l.Info().Str("addr", cfg.RedisAddr).Msg("Publishing call events to redis")
	}

	callService, err := service.NewCallService(cfg.Settings(), resolver, gateway.NewFanout(gateways...), records, m)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to create call service")
	}

	h := handler.NewHandler(callService, hub, m.Handler())
	h.StaticDir = cfg.StaticDir

	go hub.Run()

	r := h.NewRouter()

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		l.Info().Str("addr", cfg.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := callService.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Failed to stop call timers")
	}

	hub.Stop()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			l.Error().Err(err).Msg("Failed to close redis publisher")
		}
	}
	l.Info().Msg("Server exited")
}

func newLogger(cfg *config.ServerConfig) zerolog.Logger {
	level, _ := cfg.Level()
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "json" {
		return zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
	}
	w := zerolog.ConsoleWriter{Out: os.Stdout}
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}
