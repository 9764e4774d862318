package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/pdf-qa/frontend/internal/config"
	"github.com/zhouzirui/pdf-qa/frontend/internal/handler"
	"github.com/zhouzirui/pdf-qa/frontend/internal/model/persona"
	"github.com/zhouzirui/pdf-qa/frontend/internal/service/backend"
	"github.com/zhouzirui/pdf-qa/frontend/internal/service/screen"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())
	client := backend.NewClient(cfg.Backend)
	screens := screen.NewService(client, personaStore, screen.Options{
		DefaultPersona: cfg.Screen.DefaultPersona,
		IdleTTL:        cfg.Screen.IdleTTL,
	})
	go screens.Run(ctx)

	if status, err := client.Health(ctx); err != nil {
		log.Printf("warning: backend at %s not reachable yet: %v", cfg.Backend.BaseURL, err)
	} else {
		log.Printf("backend at %s: %s", cfg.Backend.BaseURL, status.Message)
	}

	router := handler.NewRouter(cfg, personaStore, screens, client)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("PDF Q&A screen listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
