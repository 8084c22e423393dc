package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"icf-classifier/api/internal/app"
	"icf-classifier/api/internal/config"
	"icf-classifier/api/internal/httpserver"
	"icf-classifier/api/internal/logging"
	"icf-classifier/api/internal/telegram"
)

func main() {
	cfg := config.LoadBot()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	a, err := app.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("configuration")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.WithError(err).Fatal("telegram login")
	}
	bot.Debug = false
	log.WithField("bot", bot.Self.UserName).Info("telegram bot authorized")

	r := telegram.NewRouter(bot, a.Orchestrator, a.Catalog, a.Locale)
	r.MaxFileBytes = cfg.MaxImageBytes

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := "0.0.0.0:" + cfg.Port
	probes := httpserver.NewProbeRouter(cfg.LogLevel)

	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(ctx, addr, bot, r, probes, webhookURL)
	} else {
		startPollingMode(ctx, addr, bot, r, probes)
	}

	r.Wait()
	log.Info("bot exited")
}

func startWebhookMode(ctx context.Context, addr string, bot *tgbotapi.BotAPI, r *telegram.Router, engine *gin.Engine, baseURL string) {
	path := telegram.WebhookPath(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.WithError(err).Fatal("webhook url")
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.WithError(err).Fatal("set webhook")
	}

	engine.POST(path, func(c *gin.Context) {
		upd, err := bot.HandleUpdate(c.Request)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		r.HandleUpdate(*upd)
		c.Status(http.StatusOK)
	})

	log.Info("webhook mode")
	if err := httpserver.Run(ctx, addr, engine); err != nil {
		log.WithError(err).Fatal("http server")
	}
}

func startPollingMode(ctx context.Context, addr string, bot *tgbotapi.BotAPI, r *telegram.Router, engine *gin.Engine) {
	go func() {
		if err := httpserver.Run(ctx, addr, engine); err != nil {
			log.WithError(err).Error("health server")
		}
	}()

	log.Info("polling mode")
	telegram.RunPolling(ctx, bot, r.HandleUpdate)
}
