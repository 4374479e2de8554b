package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"lodterrain/internal/config"
	"lodterrain/internal/game"
	"lodterrain/internal/transport/viewer"

	"github.com/xlab/closer"
)

func main() {
	configPath := flag.String("config", "configs/terrain.yaml", "terrain configuration file")
	listen := flag.String("listen", "", "listen address (overrides server.listen)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags)

	cfg, warnings, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	for _, w := range warnings {
		logger.Printf("config: %s", w)
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}

	hub := viewer.NewHub(log.New(os.Stdout, "[viewer] ", log.LstdFlags))
	session, err := game.NewSession(cfg, hub, logger)
	if err != nil {
		logger.Fatalf("create session: %v", err)
	}
	app := game.NewApp(session, hub, cfg.TickInterval(), logger)

	srv := viewer.NewServer(hub, func() any { return session.Stats() }, log.New(os.Stdout, "[viewer] ", log.LstdFlags))
	httpServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan struct{})

	closer.Bind(func() {
		logger.Printf("shutting down")
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("http shutdown: %v", err)
		}
		cancel()
		<-loopDone
		session.Close()
	})

	go func() {
		defer close(loopDone)
		if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("tick loop: %v", err)
		}
	}()

	go func() {
		logger.Printf("listening on %s (tick %v)", cfg.Server.Listen, cfg.TickInterval())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("http: %v", err)
			closer.Close()
		}
	}()

	closer.Hold()
}
