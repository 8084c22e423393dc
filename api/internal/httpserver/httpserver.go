package httpserver

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"icf-classifier/api/internal/app"
	"icf-classifier/api/internal/handle"
	"icf-classifier/api/internal/metrics"
	"icf-classifier/api/internal/middleware"
)

const shutdownTimeout = 15 * time.Second

func newEngine(logLevel string) *gin.Engine {
	if logLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.AccessLog())
	engine.Use(middleware.SecurityHeaders())
	return engine
}

func mountProbes(engine *gin.Engine) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// NewProbeRouter serves only /healthz and /metrics. The bot binary adds its
// webhook route to it.
func NewProbeRouter(logLevel string) *gin.Engine {
	engine := newEngine(logLevel)
	mountProbes(engine)
	return engine
}

// NewRouter builds the HTTP surface: /api behind the rate limiter, probes,
// metrics and the optional static front-end.
func NewRouter(a *app.App) *gin.Engine {
	cfg := a.Config
	engine := newEngine(cfg.LogLevel)
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Accept-Language", middleware.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 || (len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	engine.Use(cors.New(corsCfg))

	if cfg.StaticDir != "" {
		if fi, err := os.Stat(cfg.StaticDir); err == nil && fi.IsDir() {
			engine.Use(static.Serve("/", static.LocalFile(cfg.StaticDir, false)))
		} else {
			log.WithField("dir", cfg.StaticDir).Warn("static dir not found, front-end disabled")
		}
	}

	mountProbes(engine)

	api := engine.Group("/api")
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimit, cfg.RateWindow))
	api.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	handle.New(a.Orchestrator, a.Catalog, a.Locale).Register(api)

	return engine
}

// Run serves h on addr until ctx is cancelled, then drains in-flight
// requests for up to 15s.
func Run(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}
