package app

import "mongoextract/internal/domain"

// ExportInput is what the form submits.
type ExportInput struct {
	URI        string `json:"uri"`
	Database   string `json:"database"`
	Collection string `json:"collection"`
	Filter     string `json:"filter"`
	Format     string `json:"format"`
}

// ExportView is the frontend view of a finished run.
type ExportView struct {
	Status       domain.OutcomeStatus `json:"status"`
	RecordCount  int                  `json:"recordCount"`
	Filename     string               `json:"filename,omitempty"`
	SavedPath    string               `json:"savedPath,omitempty"`
	Cancelled    bool                 `json:"cancelled,omitempty"`
	FailureKind  domain.FailureKind   `json:"failureKind,omitempty"`
	FailureTitle string               `json:"failureTitle,omitempty"`
	Message      string               `json:"message,omitempty"`
}
