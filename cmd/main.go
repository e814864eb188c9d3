package main

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clog "github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/gommon/log"

	"petvoice/pkg/config"
	"petvoice/pkg/generate"
	"petvoice/pkg/inference"
	"petvoice/pkg/server"
	"petvoice/pkg/store"
	"petvoice/pkg/weather"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cfgPath := cmp.Or(os.Getenv("PETVOICE_CONFIG"), "config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		clog.Fatal("failed to load config", "path", cfgPath, "error", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "init-config" {
		if err := cfg.Save(cfgPath); err != nil {
			clog.Fatal("failed to write config", "path", cfgPath, "error", err)
		}
		clog.Info("wrote config", "path", cfgPath)
		return
	}

	level, err := clog.ParseLevel(cfg.LogLevel)
	if err != nil {
		clog.Warn("unknown log level, using info", "level", cfg.LogLevel)
		level = clog.InfoLevel
	}
	clog.SetLevel(level)

	inf, err := inference.FromConfig(cfg.LLM)
	if err != nil {
		clog.Fatal("failed to create inferencer", "provider", cfg.LLM.Provider, "error", err)
	}
	if inf == nil {
		clog.Warn("no LLM API key configured, running in demo mode")
	} else {
		clog.Info("using LLM provider", "provider", inf.Name(), "timeout", cfg.GetLLMTimeout())
	}

	st, err := store.NewByEngine(cfg.Store.Engine, cfg.Store.Path)
	if err != nil {
		clog.Fatal("failed to open store", "engine", cfg.Store.Engine, "path", cfg.Store.Path, "error", err)
	}

	gen := generate.New(inf,
		generate.WithTimeout(cfg.GetLLMTimeout()),
		generate.WithTemperature(cfg.GetLLMTemperature()),
	)
	srv := server.NewServer(ctx, server.Options{
		Store:     st,
		Generator: gen,
		Weather:   weather.New(cfg.Weather),
		UploadDir: cfg.UploadDir,
	})
	if level <= clog.DebugLevel {
		srv.Echo.Logger.SetLevel(log.DEBUG)
	} else {
		srv.Echo.Logger.SetLevel(log.INFO)
	}

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			clog.Error("shutdown failed", "error", err)
		}
		done()
		close(finishedShutDown)
	}()

	if err := srv.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		clog.Error("server stopped", "error", err)
		done()
	}
	<-finishedShutDown
}
