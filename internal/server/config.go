package server

import (
	"github.com/astralhq/astral/internal/app"
	"github.com/astralhq/astral/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server (the CLI
	// uses the orchestrator in-process and does not require the network).
	ListenAddr string

	// AppConfig configures the underlying application. Nil gets defaults.
	AppConfig *app.Config

	// Logger overrides the default stdout logger.
	Logger logging.Logger
}

func DefaultConfig() Config {
	return Config{
		ListenAddr: ":8080",
	}
}
