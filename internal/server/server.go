package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sameer-vaidya/marketbuzz/config"
	"github.com/sameer-vaidya/marketbuzz/internal/cache"
	"github.com/sameer-vaidya/marketbuzz/internal/pipeline"
	"github.com/sameer-vaidya/marketbuzz/internal/store"
)

// Run wires the HTTP API: pipeline, Postgres store, optional Redis cache and
// the optional cron scheduler, then serves until the process exits.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(os.Stdout, "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, dsn)
	if err != nil {
		return err
	}

	var signalCache SignalCache
	if cfg.Storage.Redis.Addr != "" {
		rc, err := cache.New(ctx, cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.TTL)
		if err != nil {
			return err
		}
		signalCache = rc
	}

	pipeLogger := log.New(os.Stdout, "[PIPELINE] ", log.LstdFlags)
	pipe, err := pipeline.New(cfg.Pipeline, pipeLogger)
	if err != nil {
		return err
	}

	handler := &RunsHandler{
		Pipeline: pipe,
		Store:    st,
		Cache:    signalCache,
		Logger:   log.New(os.Stdout, "[RUNS] ", log.LstdFlags),
	}
	handler.Register(e.Group("/api"))

	if cfg.Server.Schedule != "" {
		sched := &Scheduler{
			Spec:     cfg.Server.Schedule,
			Source:   sourceFromConfig(cfg.Source),
			Pipeline: pipe,
			Store:    st,
			Cache:    signalCache,
			Logger:   log.New(os.Stdout, "[SCHED] ", log.LstdFlags),
			Stop:     make(chan struct{}),
		}
		if err := sched.Start(); err != nil {
			return err
		}
	}

	return e.Start(cfg.Server.Address)
}
