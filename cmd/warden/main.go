package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sonroyaalmerol/warden/internal/afk"
	"github.com/sonroyaalmerol/warden/internal/config"
	"github.com/sonroyaalmerol/warden/internal/handlers"
	"github.com/sonroyaalmerol/warden/internal/health"
	"github.com/sonroyaalmerol/warden/internal/player"
	"github.com/sonroyaalmerol/warden/internal/repository"
	"github.com/sonroyaalmerol/warden/internal/spotify"
	"github.com/sonroyaalmerol/warden/internal/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := repository.OpenDB(cfg.Database)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	repo := repository.NewRepo(db, cfg.Database.Driver)
	defer repo.Close()

	session, err := handlers.NewSession(cfg.DiscordToken)
	if err != nil {
		logger.Fatal("discord session", zap.Error(err))
	}

	var lookup stream.TrackLookup
	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		lookup = spotify.NewClientCredentials(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	} else {
		logger.Info("spotify credentials not set, spotify links disabled")
	}

	gw := handlers.NewGateway(session)
	notifier := handlers.NewNotifier(gw, logger)
	engine := player.NewEngine(ctx, player.Options{
		Resolver:    stream.NewResolver(cfg.Music, lookup, logger),
		Transport:   stream.NewTransport(session, cfg.Music, logger),
		Notifier:    notifier,
		Logger:      logger.Named("player"),
		IdleTimeout: cfg.Music.IdleTimeout,
	})
	notifier.Attach(engine)

	h := handlers.New(cfg, gw, repo, afk.NewInterceptor(repo, cfg.AFK.Scope), engine, logger.Named("handlers"))

	if cfg.Health.Enabled {
		srv := health.New(cfg.Health, logger.Named("health"))
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	logger.Info("starting", zap.String("prefix", cfg.Prefix), zap.String("afk_scope", cfg.AFK.Scope))
	if err := handlers.NewBot(cfg, session, h, logger).Run(ctx); err != nil {
		logger.Fatal("bot stopped", zap.Error(err))
	}
}
