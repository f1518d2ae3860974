package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/v2/bson"

	"mongoextract/internal/dbclient"
	"mongoextract/internal/domain"
	"mongoextract/internal/export"
	"mongoextract/internal/service"
)

// ─────────────────────────────────────────────────────────────
// fakeConnector serves an in-memory collection, matching top-level
// equality conditions only.
// ─────────────────────────────────────────────────────────────

type fakeConnector struct {
	docs    []bson.D
	findErr error
	panicOn bool
	closed  int
	queried bool
}

func (f *fakeConnector) TestConnection(context.Context) error { return nil }

func (f *fakeConnector) Find(_ context.Context, _, _ string, filter bson.D) (domain.RecordSet, error) {
	f.queried = true
	if f.panicOn {
		panic("driver exploded")
	}
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out domain.RecordSet
	for _, doc := range f.docs {
		if matches(doc, filter) {
			rec := make(domain.Record, len(doc))
			for i, e := range doc {
				rec[i] = domain.Field{Name: e.Key, Value: e.Value}
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeConnector) Close() error {
	f.closed++
	return nil
}

func matches(doc, filter bson.D) bool {
	for _, cond := range filter {
		found := false
		for _, e := range doc {
			if e.Key == cond.Key && e.Value == cond.Value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type harness struct {
	svc      *service.ExportService
	conn     *fakeConnector
	logs     *bytes.Buffer
	emitter  *service.MockEmitter
	connects int
	connErr  error
}

func newHarness(docs ...bson.D) *harness {
	h := &harness{
		conn:    &fakeConnector{docs: docs},
		logs:    &bytes.Buffer{},
		emitter: &service.MockEmitter{},
	}
	logger := slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h.svc = service.NewExportService(logger,
		service.WithEmitter(h.emitter),
		service.WithConnectFunc(func(context.Context, domain.ConnectionSpec, dbclient.Options) (dbclient.Connector, error) {
			h.connects++
			if h.connErr != nil {
				return nil, h.connErr
			}
			return h.conn, nil
		}),
	)
	return h
}

func orders() []bson.D {
	return []bson.D{
		{{Key: "_id", Value: bson.NewObjectID()}, {Key: "status", Value: "ACTIVE"}, {Key: "qty", Value: int32(1)}},
		{{Key: "_id", Value: bson.NewObjectID()}, {Key: "status", Value: "ACTIVE"}, {Key: "qty", Value: int32(2)}},
		{{Key: "_id", Value: bson.NewObjectID()}, {Key: "status", Value: "ACTIVE"}, {Key: "note", Value: "late"}},
		{{Key: "_id", Value: bson.NewObjectID()}, {Key: "status", Value: "CLOSED"}, {Key: "qty", Value: int32(4)}},
		{{Key: "_id", Value: bson.NewObjectID()}, {Key: "status", Value: "CLOSED"}, {Key: "qty", Value: int32(5)}},
	}
}

func request(filter string, format domain.ExportFormat) service.ExportRequest {
	return service.ExportRequest{
		URI:        "mongodb://localhost:27017/",
		Database:   "effiser",
		Collection: "orders",
		Filter:     filter,
		Format:     format,
	}
}

func TestRun_SuccessCSV(t *testing.T) {
	h := newHarness(orders()...)

	out := h.svc.Run(context.Background(), request(`{"status":"ACTIVE"}`, domain.FormatCSV))

	require.Equal(t, domain.StatusSuccess, out.Status, "failure: %+v", out.Failure)
	assert.Equal(t, 3, out.RecordCount)
	assert.Nil(t, out.Failure)
	require.NotNil(t, out.Artifact)
	assert.Equal(t, "mongo_export.csv", out.Artifact.Filename)
	assert.Equal(t, "text/csv", out.Artifact.ContentType)

	rows, err := csv.NewReader(bytes.NewReader(out.Artifact.Payload)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"_id", "status", "qty", "note"}, rows[0])
	assert.Len(t, rows, 4)

	assert.Equal(t, 1, h.conn.closed)
	assert.Contains(t, h.logs.String(), "attempting to connect")
	assert.Contains(t, h.logs.String(), "retrieved records")
	assert.Contains(t, h.logs.String(), "connection closed")
}

func TestRun_StageTransitions(t *testing.T) {
	h := newHarness(orders()...)
	h.svc.Run(context.Background(), request(`{"status":"ACTIVE"}`, domain.FormatExcel))

	assert.Equal(t, []service.Stage{
		service.StageParsingFilter,
		service.StageConnecting,
		service.StageQuerying,
		service.StageNormalizing,
		service.StageExporting,
		service.StageReady,
		service.StageIdle,
	}, h.emitter.Stages())
}

func TestRun_EmptyResult(t *testing.T) {
	h := newHarness(orders()...)

	out := h.svc.Run(context.Background(), request(`{"status":"NONE_MATCH"}`, domain.FormatCSV))

	assert.Equal(t, domain.StatusEmpty, out.Status)
	assert.Nil(t, out.Artifact)
	assert.Nil(t, out.Failure)
	assert.Zero(t, out.RecordCount)
	assert.Equal(t, 1, h.conn.closed)
	assert.Contains(t, h.logs.String(), "level=WARN")
	assert.Contains(t, h.emitter.Stages(), service.StageEmptyResult)
}

func TestRun_MalformedFilterNeverConnects(t *testing.T) {
	h := newHarness(orders()...)

	out := h.svc.Run(context.Background(), request(`{"status":}`, domain.FormatCSV))

	require.Equal(t, domain.StatusFailed, out.Status)
	assert.Equal(t, domain.FailureFilterSyntax, out.Failure.Kind)
	assert.NotEmpty(t, out.Failure.Message)
	assert.Nil(t, out.Artifact)
	assert.Zero(t, h.connects)
	assert.NotContains(t, h.logs.String(), "attempting to connect")
	assert.NotContains(t, h.emitter.Stages(), service.StageConnecting)
}

func TestRun_InvalidFormatNeverConnects(t *testing.T) {
	h := newHarness(orders()...)

	out := h.svc.Run(context.Background(), request(`{}`, domain.ExportFormat("pdf")))

	require.Equal(t, domain.StatusFailed, out.Status)
	assert.Equal(t, domain.FailureUnclassified, out.Failure.Kind)
	assert.Zero(t, h.connects)
}

func TestRun_ConnectFailureIsClassified(t *testing.T) {
	h := newHarness()
	h.connErr = domain.NewError(domain.FailureAuthorization, "connect", errors.New("bad auth"))

	out := h.svc.Run(context.Background(), request(`{}`, domain.FormatCSV))

	require.Equal(t, domain.StatusFailed, out.Status)
	assert.Equal(t, domain.FailureAuthorization, out.Failure.Kind)
	assert.Equal(t, "bad auth", out.Failure.Message)
	assert.Zero(t, h.conn.closed)
}

func TestRun_QueryFailureClosesConnection(t *testing.T) {
	h := newHarness(orders()...)
	h.conn.findErr = errors.New("cursor died")

	out := h.svc.Run(context.Background(), request(`{}`, domain.FormatCSV))

	require.Equal(t, domain.StatusFailed, out.Status)
	assert.Equal(t, domain.FailureUnclassified, out.Failure.Kind)
	assert.Equal(t, 1, h.conn.closed)
	assert.Nil(t, out.Artifact)
}

func TestRun_PanicBecomesFailure(t *testing.T) {
	h := newHarness(orders()...)
	h.conn.panicOn = true

	var out domain.Outcome
	require.NotPanics(t, func() {
		out = h.svc.Run(context.Background(), request(`{}`, domain.FormatCSV))
	})
	require.Equal(t, domain.StatusFailed, out.Status)
	assert.Equal(t, domain.FailureUnclassified, out.Failure.Kind)
	assert.Contains(t, out.Failure.Message, "driver exploded")
	assert.Equal(t, 1, h.conn.closed)
}

func TestRun_ObjectIDRenderedAsHex(t *testing.T) {
	oid, err := bson.ObjectIDFromHex("65a1f0c2e4b0a1b2c3d4e5f6")
	require.NoError(t, err)
	h := newHarness(bson.D{{Key: "_id", Value: oid}, {Key: "status", Value: "ACTIVE"}})

	out := h.svc.Run(context.Background(), request(`{}`, domain.FormatCSV))
	require.Equal(t, domain.StatusSuccess, out.Status)
	rows, err := csv.NewReader(bytes.NewReader(out.Artifact.Payload)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "65a1f0c2e4b0a1b2c3d4e5f6", rows[1][0])

	out = h.svc.Run(context.Background(), request(`{}`, domain.FormatExcel))
	require.Equal(t, domain.StatusSuccess, out.Status)
	f, err := excelize.OpenReader(bytes.NewReader(out.Artifact.Payload))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(export.SheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "65a1f0c2e4b0a1b2c3d4e5f6", v)
}

func TestRun_FilterPassedThroughUnchanged(t *testing.T) {
	var got bson.D
	conn := &recordingConnector{onFind: func(f bson.D) { got = f }}
	svc := service.NewExportService(nil, service.WithConnectFunc(
		func(context.Context, domain.ConnectionSpec, dbclient.Options) (dbclient.Connector, error) {
			return conn, nil
		}))

	svc.Run(context.Background(), request(`{"qty":{"$gt":1},"_id":{"$oid":"65a1f0c2e4b0a1b2c3d4e5f6"}}`, domain.FormatCSV))

	oid, _ := bson.ObjectIDFromHex("65a1f0c2e4b0a1b2c3d4e5f6")
	assert.Equal(t, bson.D{
		{Key: "qty", Value: bson.D{{Key: "$gt", Value: int32(1)}}},
		{Key: "_id", Value: oid},
	}, got)
}

type recordingConnector struct {
	onFind func(bson.D)
}

func (r *recordingConnector) TestConnection(context.Context) error { return nil }
func (r *recordingConnector) Close() error                         { return nil }
func (r *recordingConnector) Find(_ context.Context, _, _ string, f bson.D) (domain.RecordSet, error) {
	r.onFind(f)
	return nil, nil
}

func TestRun_UnreachableHostTimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for server selection timeout")
	}
	const timeout = 500 * time.Millisecond
	svc := service.NewExportService(nil, service.WithTimeout(timeout))

	req := request(`{"status":"ACTIVE"}`, domain.FormatCSV)
	req.URI = "mongodb://127.0.0.1:1/?directConnection=true"

	start := time.Now()
	out := svc.Run(context.Background(), req)

	require.Equal(t, domain.StatusFailed, out.Status)
	assert.Equal(t, domain.FailureConnectionTimeout, out.Failure.Kind)
	assert.Less(t, time.Since(start), timeout+3*time.Second)
}

func TestNewExportService_Defaults(t *testing.T) {
	svc := service.NewExportService(nil)
	assert.Equal(t, dbclient.DefaultTimeout, svc.Timeout())
	assert.Equal(t, 2*time.Second, service.NewExportService(nil, service.WithTimeout(2*time.Second)).Timeout())
}
