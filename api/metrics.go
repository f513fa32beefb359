package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	clientsEventName   = "clients.request"
	clientsEventDomain = "board"
	clientsRoute       = "/api/v1/clients"

	tracerName = "shiptivitas/api"
)

// clientRequestMetrics collects per-request timings for the board read path
// and emits them both as a span and as one structured log entry.
type clientRequestMetrics struct {
	logger *log.Logger
	span   trace.Span
	start  time.Time

	authDuration    time.Duration
	fetchDuration   time.Duration
	encodeDuration  time.Duration
	statusFilter    string
	clientsReturned int
	errorStage      string
}

func newClientRequestMetrics(ctx context.Context, logger *log.Logger) (*clientRequestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, clientsEventName)
	return &clientRequestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
	}, spanCtx
}

func (m *clientRequestMetrics) ObserveAuth(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.authDuration = duration
}

func (m *clientRequestMetrics) ObserveFetch(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.fetchDuration = duration
}

func (m *clientRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *clientRequestMetrics) SetStatusFilter(filter string) {
	m.statusFilter = filter
}

func (m *clientRequestMetrics) SetClientsReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.clientsReturned = count
}

func (m *clientRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log finishes the span and writes the observability event. It must be
// called exactly once per request.
func (m *clientRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	attrs := map[string]any{
		"http.route":                  clientsRoute,
		"http.status_code":            status,
		"board.clients.total_ms":      durationToMillis(time.Since(m.start)),
		"board.clients.returned":      m.clientsReturned,
		"board.clients.status_filter": m.statusFilter,
	}
	if m.authDuration > 0 {
		attrs["board.clients.auth_ms"] = durationToMillis(m.authDuration)
	}
	if m.fetchDuration > 0 {
		attrs["board.clients.fetch_ms"] = durationToMillis(m.fetchDuration)
	}
	if m.encodeDuration > 0 {
		attrs["board.clients.encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		attrs["board.clients.error_stage"] = m.errorStage
	}
	if err != nil {
		attrs["error"] = err.Error()
	}

	if m.span != nil {
		m.span.SetAttributes(
			attribute.String("http.route", clientsRoute),
			attribute.Int("http.status_code", status),
			attribute.Int("board.clients.returned", m.clientsReturned),
			attribute.String("board.clients.status_filter", m.statusFilter),
			attribute.String("board.clients.error_stage", m.errorStage),
		)
		if err != nil {
			m.span.SetStatus(codes.Error, err.Error())
		}
		m.span.End()
	}

	if m.logger != nil {
		m.logger.WithFields(log.Fields{
			"event.name":   clientsEventName,
			"event.domain": clientsEventDomain,
			"attributes":   attrs,
		}).Info("observability.event")
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
