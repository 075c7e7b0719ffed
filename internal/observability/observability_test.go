package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestTraceHandler_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "dev")

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "inside")
	span.End()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, span.SpanContext().TraceID().String(), rec["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), rec["span_id"])
}

func TestTraceHandler_NoSpanNoIDs(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, "prod").Info("plain")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.NotContains(t, rec, "trace_id")
}

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&pgconn.PgError{Code: "23505"}, "unique_violation"},
		{&pgconn.PgError{Code: "23514"}, "integrity_violation"},
		{&pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{fmt.Errorf("insert: %w", context.DeadlineExceeded), "timeout"},
		{errors.New("context deadline exceeded"), "timeout"},
		{errors.New("connection refused"), "connection"},
		{errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyDBErr(tt.err))
	}
}

func TestProm_ObserveDBCountsErrors(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveDB("registrations.create", func() error { return &pgconn.PgError{Code: "23505"} })
	require.Error(t, err)

	got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("registrations.create", "unique_violation"))
	assert.Equal(t, 1.0, got)
}

func TestProm_ObserveDBTreatsMissingRowAsNotFound(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveDB("registrations.get_by_id", func() error { return pgx.ErrNoRows })
	require.ErrorIs(t, err, pgx.ErrNoRows)

	assert.Equal(t, 0, testutil.CollectAndCount(p.DbErrorsTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(p.DbQueryDuration))
}

func TestTraceHandler_WithAttrsKeepsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "dev").With("component", "dispatcher")

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "notify")
	log.InfoContext(ctx, "notify.delivered")
	span.End()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "dispatcher", rec["component"])
	assert.Equal(t, span.SpanContext().TraceID().String(), rec["trace_id"])
}

func TestProm_NilSafeHelpers(t *testing.T) {
	var p *Prom
	p.NotifyResult("log", "delivered")
	p.RegistrationOutcome("created")
	p.SetNotifyQueued(3)
	p.IncRateLimited("/x")
	assert.NoError(t, p.ObserveDB("registrations.list", func() error { return nil }))
	assert.NoError(t, p.ObserveNotify("log", func() error { return nil }))
}

func TestDeliveryStats_Snapshot(t *testing.T) {
	s := NewDeliveryStats()
	s.IncEnqueued()
	s.IncEnqueued()
	s.IncDelivered()
	s.IncRetried()
	s.IncDropped()
	s.ObserveDuration(10 * time.Millisecond)
	s.ObserveDuration(30 * time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, uint64(2), snap.Enqueued)
	assert.Equal(t, uint64(1), snap.Delivered)
	assert.Equal(t, uint64(1), snap.Retried)
	assert.Equal(t, uint64(1), snap.Dropped)
	assert.Equal(t, 20*time.Millisecond, snap.AverageDuration)
	assert.Equal(t, 30*time.Millisecond, snap.MaxDuration)
}
