package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kettleofketchup/DraftForge-sub000/internal/config"
	"github.com/kettleofketchup/DraftForge-sub000/internal/httpapi"
	"github.com/kettleofketchup/DraftForge-sub000/internal/hub"
	"github.com/kettleofketchup/DraftForge-sub000/internal/store"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Load()

	var st store.Store = store.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		gs, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("open database", zap.Error(err))
		}
		st = gs
	} else {
		log.Warn("no DATABASE_URL set, draft history is in-memory only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, hub.Deps{Store: st, Log: log})
	handler := httpapi.SetupRoutes(h, log, cfg)

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		_ = srv.Shutdown(context.Background())
	}()

	log.Info("listening", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("serve", zap.Error(err))
	}
}
