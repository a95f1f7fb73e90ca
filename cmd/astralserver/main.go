// Command astralserver starts the astral API server.
// Usage: go run ./cmd/astralserver [addr]
// Default listen address: :8080
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/astralhq/astral/internal/app"
	"github.com/astralhq/astral/internal/logging"
	"github.com/astralhq/astral/internal/server"
)

func main() {
	// Optional .env file for local development; ignore when absent.
	_ = godotenv.Load()

	appCfg := app.DefaultConfig()
	appCfg.ApplyEnv()

	cfg := server.DefaultConfig()
	cfg.AppConfig = appCfg
	cfg.Logger = logging.NewZerologLogger(os.Stdout, "Server")
	if v := os.Getenv("ASTRAL_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if len(os.Args) > 1 {
		cfg.ListenAddr = os.Args[1]
	}

	s, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("creating server: %v", err)
	}

	httpServer := s.HTTPServer()
	go func() {
		cfg.Logger.Info("listening", logging.Field{Key: "addr", Value: cfg.ListenAddr})
		if err := httpServer.ListenAndServe(); err != nil {
			cfg.Logger.Error("http server stopped", logging.Field{Key: "error", Value: err.Error()})
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	s.Close()
}
