// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mirelio/gameforge/internal/api"
	"github.com/mirelio/gameforge/internal/app"
	"github.com/mirelio/gameforge/internal/config"
	"github.com/mirelio/gameforge/internal/logger"
)

func main() {
	log.Println("starting gameforge server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	log.Printf("configuration loaded, port %s", cfg.Port)

	if err := logger.Init(filepath.Join(cfg.DataDir, "logs", "server.log")); err != nil {
		log.Printf("file logging disabled: %v", err)
	}
	if cfg.DebugMode {
		logger.Get().SetLevel(logger.DEBUG)
	}

	if err := app.InitServices(cfg); err != nil {
		log.Fatalf("failed to initialize services: %v", err)
	}
	defer app.Shutdown()
	log.Println("services initialized")

	router, err := api.SetupRouter(cfg)
	if err != nil {
		log.Fatalf("failed to set up routes: %v", err)
	}

	log.Printf("server listening on http://localhost:%s", cfg.Port)
	runWithGracefulShutdown(router, cfg.Port)
}

// runWithGracefulShutdown serves until SIGINT/SIGTERM, then drains
// in-flight requests before exiting.
func runWithGracefulShutdown(router *gin.Engine, port string) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
