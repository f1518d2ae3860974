package domain

import (
	"fmt"
	"strings"
)

// ExportFormat selects the file type an export produces.
type ExportFormat string

const (
	FormatCSV   ExportFormat = "csv"
	FormatExcel ExportFormat = "excel"
)

// ParseExportFormat accepts "csv", "excel" or "xlsx" in any case.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("unknown export format: %q", s)
	}
}

// Artifact is a ready-to-download export file held in memory.
type Artifact struct {
	Payload     []byte `json:"-"`
	ContentType string `json:"contentType"`
	Filename    string `json:"filename"`
}

// OutcomeStatus is the terminal state of a single export run.
type OutcomeStatus string

const (
	StatusSuccess OutcomeStatus = "success"
	StatusEmpty   OutcomeStatus = "empty"
	StatusFailed  OutcomeStatus = "failed"
)

// Failure describes a failed run to the caller.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Outcome is what an export run hands back to the interactive shell.
// Exactly one of Artifact (success) or Failure (failed) is set; an empty
// result carries neither.
type Outcome struct {
	Status      OutcomeStatus `json:"status"`
	Artifact    *Artifact     `json:"artifact,omitempty"`
	RecordCount int           `json:"recordCount"`
	Failure     *Failure      `json:"failure,omitempty"`
}
