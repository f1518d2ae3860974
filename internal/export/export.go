// Package export serializes a normalized table into a downloadable file held
// entirely in memory.
package export

import (
	"fmt"

	"mongoextract/internal/domain"
	"mongoextract/internal/etl"
)

const (
	CSVContentType   = "text/csv"
	ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	CSVFilename   = "mongo_export.csv"
	ExcelFilename = "mongo_export.xlsx"

	// SheetName is the single worksheet an Excel export contains.
	SheetName = "Sheet1"
)

// FormatInfo describes what an export format produces.
type FormatInfo struct {
	Format      domain.ExportFormat `json:"format"`
	ContentType string              `json:"contentType"`
	Filename    string              `json:"filename"`
}

// Formats lists the supported export formats.
func Formats() []FormatInfo {
	return []FormatInfo{
		{Format: domain.FormatCSV, ContentType: CSVContentType, Filename: CSVFilename},
		{Format: domain.FormatExcel, ContentType: ExcelContentType, Filename: ExcelFilename},
	}
}

// Export renders table in the requested format. The header row holds the
// column names; no index column is written.
func Export(table *etl.Table, format domain.ExportFormat) (*domain.Artifact, error) {
	if table == nil {
		return nil, fmt.Errorf("export: nil table")
	}

	var (
		payload []byte
		err     error
	)
	switch format {
	case domain.FormatCSV:
		payload, err = writeCSV(table)
	case domain.FormatExcel:
		payload, err = writeXLSX(table)
	default:
		return nil, fmt.Errorf("export: unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}

	info := infoFor(format)
	return &domain.Artifact{
		Payload:     payload,
		ContentType: info.ContentType,
		Filename:    info.Filename,
	}, nil
}

func infoFor(format domain.ExportFormat) FormatInfo {
	for _, f := range Formats() {
		if f.Format == format {
			return f
		}
	}
	return FormatInfo{}
}
