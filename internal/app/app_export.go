package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"mongoextract/internal/config"
	"mongoextract/internal/domain"
	"mongoextract/internal/export"
	"mongoextract/internal/service"
)

// ErrExportRunning is returned when the button is pressed mid-run.
var ErrExportRunning = errors.New("an export is already running")

// ============================================================
// Export
// ============================================================

// Defaults returns the initial form values.
func (a *App) Defaults() config.Defaults {
	return a.cfg.Defaults
}

// Formats lists the export formats for the format selector.
func (a *App) Formats() []export.FormatInfo {
	return export.Formats()
}

// RunExport runs the pipeline once and, on success, asks where to save the
// file. The returned view is populated for every outcome; an error is only
// returned when the run could not start or the file could not be written.
func (a *App) RunExport(input ExportInput) (*ExportView, error) {
	if !a.guard.TryLock() {
		return nil, ErrExportRunning
	}
	defer a.guard.Unlock()

	out := a.export.Run(a.ctx, service.ExportRequest{
		URI:        input.URI,
		Database:   input.Database,
		Collection: input.Collection,
		Filter:     input.Filter,
		Format:     domain.ExportFormat(input.Format),
	})

	view := &ExportView{Status: out.Status, RecordCount: out.RecordCount}
	switch out.Status {
	case domain.StatusFailed:
		view.FailureKind = out.Failure.Kind
		view.FailureTitle = out.Failure.Kind.Summary()
		view.Message = out.Failure.Message
		return view, nil
	case domain.StatusEmpty:
		view.Message = "No records found matching the criteria."
		return view, nil
	}

	art := out.Artifact
	view.Filename = art.Filename
	path, err := a.saveDialog(a.ctx, wailsRuntime.SaveDialogOptions{
		Title:           "Save export",
		DefaultFilename: art.Filename,
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: dialogLabel(art), Pattern: "*" + filepath.Ext(art.Filename)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("save dialog: %w", err)
	}
	if path == "" {
		view.Cancelled = true
		return view, nil
	}
	if err := os.WriteFile(path, art.Payload, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	a.logger.Info("export saved", "path", path, "bytes", len(art.Payload))
	view.SavedPath = path
	return view, nil
}

func dialogLabel(art *domain.Artifact) string {
	if art.ContentType == export.ExcelContentType {
		return "Excel workbook (*.xlsx)"
	}
	return "CSV (*.csv)"
}
