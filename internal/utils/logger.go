package utils

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger builds the application logger. Level comes from LOG_LEVEL
// (defaults to info).
func NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		_ = cfg.Level.UnmarshalText([]byte(level))
	}
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = "kiosk-server"
	cfg.OutputPaths = []string{"stdout"}

	return cfg.Build()
}
