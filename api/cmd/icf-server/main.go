package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"

	"icf-classifier/api/internal/app"
	"icf-classifier/api/internal/config"
	"icf-classifier/api/internal/httpserver"
	"icf-classifier/api/internal/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	a, err := app.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := httpserver.Run(ctx, "0.0.0.0:"+cfg.Port, httpserver.NewRouter(a)); err != nil {
		log.WithError(err).Fatal("http server")
	}
}
