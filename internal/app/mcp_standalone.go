package app

import (
	"log/slog"

	"mongoextract/internal/config"
	mcpserver "mongoextract/internal/mcp"
	"mongoextract/internal/service"
)

// ServeMCP runs the export pipeline as a standalone MCP server on
// stdin/stdout with no GUI. Logs go to stderr so stdout stays a clean
// protocol stream.
func ServeMCP(cfg *config.Config, logger *slog.Logger) error {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = cfg.NewLogger(nil)
	}
	svc := service.NewExportService(logger,
		service.WithTimeout(cfg.Timeout.Std()),
		service.WithMaxRecords(cfg.MaxRecords),
	)
	srv := mcpserver.New(mcpserver.Deps{
		Export:   svc,
		Defaults: cfg.Defaults,
		Logger:   logger,
	})
	return srv.ServeStdio()
}
