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

	"github.com/Ahmed-AmineHomman/escribito/internal/config"
	"github.com/Ahmed-AmineHomman/escribito/internal/handler"
	"github.com/Ahmed-AmineHomman/escribito/internal/locale"
	"github.com/Ahmed-AmineHomman/escribito/internal/model/character"
	"github.com/Ahmed-AmineHomman/escribito/internal/service/ai"
	"github.com/Ahmed-AmineHomman/escribito/internal/service/export"
	scriptservice "github.com/Ahmed-AmineHomman/escribito/internal/service/script"
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

	characterStore := character.NewMemoryStore(character.Seed())
	scriptSvc := scriptservice.NewService()
	exporter := export.NewExporter(cfg.Export.Dir)

	catalog, err := locale.Load(cfg.Locale.Dir, cfg.Locale.DefaultTag)
	if err != nil {
		log.Fatalf("failed to load locale bundles: %v", err)
	}

	var aiSvc *ai.Service
	if cfg.AI.Enabled() {
		aiSvc, err = ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without generation - check the Ark model environment variables")
		} else {
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, generation endpoints disabled")
	}

	router := handler.NewRouter(characterStore, scriptSvc, aiSvc, exporter, catalog)

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

	log.Printf("Escribito backend listening on %s", addr)
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
