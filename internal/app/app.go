package app

import (
	"context"
	"log/slog"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"mongoextract/internal/config"
	"mongoextract/internal/service"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context

	cfg    *config.Config
	logger *slog.Logger
	export *service.ExportService
	guard  service.RunGuard

	// Replaced in tests: both need a live Wails context.
	emitter    service.EventEmitter
	saveDialog func(context.Context, wailsRuntime.SaveDialogOptions) (string, error)
}

// New creates a new App. Extra options are forwarded to the export service.
func New(cfg *config.Config, logger *slog.Logger, opts ...service.Option) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = cfg.NewLogger(nil)
	}
	a := &App{
		ctx:        context.Background(),
		cfg:        cfg,
		logger:     logger,
		emitter:    wailsEmitter{},
		saveDialog: wailsRuntime.SaveFileDialog,
	}
	base := []service.Option{
		service.WithTimeout(cfg.Timeout.Std()),
		service.WithMaxRecords(cfg.MaxRecords),
		service.WithEmitter(a),
	}
	a.export = service.NewExportService(logger, append(base, opts...)...)
	return a
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	wailsRuntime.LogInfof(ctx, "mongo-extract ready (config: %s, timeout: %s)",
		config.Path(), a.export.Timeout())
}

// Shutdown is called when the app is closing. An export in flight gets a
// short grace period; its connection is closed by the pipeline itself.
func (a *App) Shutdown(ctx context.Context) {
	if !a.guard.Running() {
		return
	}
	wailsRuntime.LogInfof(ctx, "waiting for running export to finish")
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	a.guard.Wait(waitCtx)
}

// Emit forwards pipeline events to the frontend.
func (a *App) Emit(_ context.Context, event string, data any) {
	a.emitter.Emit(a.ctx, event, data)
}

// wailsEmitter delivers events through the Wails runtime.
type wailsEmitter struct{}

func (wailsEmitter) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}
