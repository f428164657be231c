package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/elmasnur/nurcombinator/internal/catalog"
	"github.com/elmasnur/nurcombinator/internal/config"
	"github.com/elmasnur/nurcombinator/internal/handler"
	"github.com/elmasnur/nurcombinator/internal/notify"
	"github.com/elmasnur/nurcombinator/internal/repo"
	"github.com/elmasnur/nurcombinator/internal/service"
	"github.com/elmasnur/nurcombinator/internal/stage"
	"github.com/elmasnur/nurcombinator/internal/telegram"
)

const sessionSweepInterval = time.Hour

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := run(log); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}

func run(log zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log = log.Level(cfg.LogLevel)

	policy, err := stage.ParsePolicy(cfg.StagePolicy)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	db, err := repo.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.CatalogPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", cfg.CatalogPath).Msg("catalog file not found, keeping stored catalog")
	case err != nil:
		return fmt.Errorf("catalog: %w", err)
	default:
		if err := cat.Seed(ctx, db); err != nil {
			return fmt.Errorf("catalog seed: %w", err)
		}
		log.Info().Int("needs", len(cat.Needs)).Msg("catalog loaded")
	}

	hub := notify.NewHub()
	var bot *telegram.Client
	var fanout *notify.Fanout
	if cfg.BotToken != "" {
		bot = telegram.NewClient(cfg.BotToken, log)
		fanout = notify.NewFanout(hub, bot, db, cfg.PublicURL, log)
	} else {
		log.Warn().Msg("BOT_TOKEN not set, Telegram notifications disabled")
		fanout = notify.NewFanout(hub, nil, nil, cfg.PublicURL, log)
	}

	svc := service.New(db, fanout, service.Options{
		StagePolicy:              policy,
		MessageMin:               cfg.ApplicationMessageMin,
		MessageMax:               cfg.ApplicationMessageMax,
		PageSize:                 cfg.PageSize,
		RequireEmailVerification: cfg.RequireEmailVerification,
		LinkSecret:               cfg.CSRFSecret,
	}, log)

	if bot != nil {
		name, err := bot.Username(ctx)
		if err != nil {
			return fmt.Errorf("telegram bot: %w", err)
		}
		svc.SetBotUsername(name)
		log.Info().Str("bot", "@"+name).Msg("telegram bot ready")

		bot.StartPolling(ctx, func(ctx context.Context, payload string, chatID int64) {
			reply := "Bildirimler bağlandı. Yeni başvurular ve durum değişiklikleri buraya gelecek."
			if err := svc.LinkTelegram(ctx, payload, chatID); err != nil {
				log.Warn().Err(err).Int64("chat_id", chatID).Msg("telegram link failed")
				reply = "Bağlantı kodu geçersiz. Profil sayfanızdaki bağlantıyı kullanın."
			}
			if err := bot.SendMessage(ctx, chatID, reply); err != nil {
				log.Warn().Err(err).Int64("chat_id", chatID).Msg("telegram reply failed")
			}
		})
	}

	go sweepSessions(ctx, db, log)

	h := handler.New(svc, db, hub, cfg.CSRFSecret, cfg.CookieDomain, log)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", cfg.Addr()).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func sweepSessions(ctx context.Context, db *repo.Repo, log zerolog.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := db.CleanExpiredSessions(ctx, now)
			if err != nil {
				log.Warn().Err(err).Msg("session cleanup")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("expired sessions removed")
			}
		}
	}
}
