package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mongoextract/internal/dbclient"
	"mongoextract/internal/domain"
	"mongoextract/internal/etl"
	"mongoextract/internal/export"
	"mongoextract/internal/filter"
)

// ─────────────────────────────────────────────────────────────
// Export Service: parse → connect → query → normalize → export
// ─────────────────────────────────────────────────────────────

// Stage is a state of a single export run.
type Stage string

const (
	StageIdle          Stage = "idle"
	StageParsingFilter Stage = "parsing_filter"
	StageConnecting    Stage = "connecting"
	StageQuerying      Stage = "querying"
	StageNormalizing   Stage = "normalizing"
	StageExporting     Stage = "exporting"
	StageReady         Stage = "ready"
	StageEmptyResult   Stage = "empty_result"
	StageFailed        Stage = "failed"
)

// EventStage is emitted on every stage transition.
const EventStage = "export:stage"

// StageEvent is the payload of EventStage.
type StageEvent struct {
	RunID string `json:"runId"`
	Stage Stage  `json:"stage"`
}

// ExportRequest is everything one run needs from the shell.
type ExportRequest struct {
	URI        string              `json:"uri"`
	Database   string              `json:"database"`
	Collection string              `json:"collection"`
	Filter     string              `json:"filter"`
	Format     domain.ExportFormat `json:"format"`
}

// ExportService runs export pipelines. It holds no state between runs:
// every Run parses, reconnects and re-queries from scratch.
type ExportService struct {
	logger     *slog.Logger
	emitter    EventEmitter
	connect    dbclient.ConnectFunc
	timeout    time.Duration
	maxRecords int
}

// Option configures an ExportService.
type Option func(*ExportService)

// WithTimeout bounds connection establishment.
func WithTimeout(d time.Duration) Option {
	return func(s *ExportService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxRecords sets the result ceiling; zero or negative disables it.
func WithMaxRecords(n int) Option {
	return func(s *ExportService) { s.maxRecords = n }
}

// WithEmitter receives stage transitions.
func WithEmitter(e EventEmitter) Option {
	return func(s *ExportService) {
		if e != nil {
			s.emitter = e
		}
	}
}

// WithConnectFunc replaces dbclient.Connect.
func WithConnectFunc(fn dbclient.ConnectFunc) Option {
	return func(s *ExportService) {
		if fn != nil {
			s.connect = fn
		}
	}
}

// NewExportService creates an ExportService logging to logger.
func NewExportService(logger *slog.Logger, opts ...Option) *ExportService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &ExportService{
		logger:     logger,
		emitter:    NoopEmitter{},
		connect:    dbclient.Connect,
		timeout:    dbclient.DefaultTimeout,
		maxRecords: dbclient.DefaultMaxRecords,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Timeout returns the connection timeout in effect.
func (s *ExportService) Timeout() time.Duration { return s.timeout }

// run carries the per-run logger and ID.
type run struct {
	id  string
	log *slog.Logger
	svc *ExportService
	ctx context.Context
}

func (r *run) enter(stage Stage) {
	r.svc.emitter.Emit(r.ctx, EventStage, StageEvent{RunID: r.id, Stage: stage})
}

// Run executes the whole pipeline once. It never returns a raw error: every
// failure is classified, logged, and reported as a failed Outcome. No
// artifact is produced unless every stage before export succeeded.
func (s *ExportService) Run(ctx context.Context, req ExportRequest) (out domain.Outcome) {
	r := &run{id: uuid.NewString(), svc: s, ctx: ctx}
	r.log = s.logger.With("run", r.id)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			out = r.fail(domain.NewError(domain.FailureUnclassified, "run", fmt.Errorf("panic: %v", p)))
		}
		r.enter(StageIdle)
	}()

	format, err := domain.ParseExportFormat(string(req.Format))
	if err != nil {
		return r.fail(domain.NewError(domain.FailureUnclassified, "run", err))
	}

	r.enter(StageParsingFilter)
	doc, err := filter.Parse(req.Filter)
	if err != nil {
		return r.fail(err)
	}

	r.enter(StageConnecting)
	spec := domain.ConnectionSpec{URI: req.URI, Database: req.Database, Collection: req.Collection}
	r.log.Info("attempting to connect", "uri", spec.Redacted(), "timeout", s.timeout)
	conn, err := s.connect(ctx, spec, dbclient.Options{
		Timeout:    s.timeout,
		MaxRecords: s.maxRecords,
		Logger:     r.log,
	})
	if err != nil {
		return r.fail(dbclient.Classify("connect", err))
	}
	r.log.Info("connection successful")
	defer func() {
		if err := conn.Close(); err != nil {
			r.log.Warn("connection close failed", "error", err)
			return
		}
		r.log.Info("connection closed")
	}()

	r.enter(StageQuerying)
	r.log.Info("querying collection",
		"database", req.Database, "collection", req.Collection, "filter", doc.String())
	records, err := conn.Find(ctx, req.Database, req.Collection, doc.D())
	if err != nil {
		return r.fail(dbclient.Classify("query", err))
	}

	r.enter(StageNormalizing)
	table, ok := etl.Normalize(records)
	if !ok {
		r.log.Warn("no records found matching the criteria")
		r.enter(StageEmptyResult)
		return domain.Outcome{Status: domain.StatusEmpty}
	}
	r.log.Info("retrieved records", "count", len(records), "columns", len(table.Columns))

	r.enter(StageExporting)
	artifact, err := export.Export(table, format)
	if err != nil {
		return r.fail(domain.NewError(domain.FailureUnclassified, "export", err))
	}

	r.log.Info("export ready",
		"filename", artifact.Filename, "bytes", len(artifact.Payload), "elapsed", time.Since(start))
	r.enter(StageReady)
	return domain.Outcome{
		Status:      domain.StatusSuccess,
		Artifact:    artifact,
		RecordCount: len(records),
	}
}

func (r *run) fail(err error) domain.Outcome {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = domain.NewError(domain.FailureUnclassified, "", err)
	}
	r.log.Error("export failed", "kind", de.Kind, "op", de.Op, "error", de.Err)
	r.enter(StageFailed)
	return domain.Outcome{
		Status:  domain.StatusFailed,
		Failure: &domain.Failure{Kind: de.Kind, Message: de.Err.Error()},
	}
}
