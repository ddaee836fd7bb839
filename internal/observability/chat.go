package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ChatMetrics records retrieval-augmented chat metrics.
type ChatMetrics interface {
	RecordChatRequest(ctx context.Context, status string)
	RecordChatDuration(ctx context.Context, duration time.Duration, status string)
	RecordRetrievedSessions(ctx context.Context, count int64)
}

// AnalysisMetrics records report analyzer metrics.
type AnalysisMetrics interface {
	RecordAnalysis(ctx context.Context, status string)
	RecordAnalysisDuration(ctx context.Context, duration time.Duration, status string)
}

type chatMetrics struct {
	requests  metric.Int64Counter
	duration  metric.Float64Histogram
	retrieved metric.Int64Histogram
}

// NewChatMetrics creates ChatMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewChatMetrics(meter metric.Meter) (ChatMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	requests, err := meter.Int64Counter(
		MetricNameChatRequests,
		metric.WithDescription("Total chat requests by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create chat requests counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameChatDuration,
		metric.WithDescription("Chat request duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create chat duration histogram: %w", err)
	}

	retrieved, err := meter.Int64Histogram(
		MetricNameChatRetrievedSessions,
		metric.WithDescription("Sessions retrieved per chat request"),
	)
	if err != nil {
		return nil, fmt.Errorf("create chat retrieved sessions histogram: %w", err)
	}

	return &chatMetrics{requests: requests, duration: duration, retrieved: retrieved}, nil
}

func (c *chatMetrics) RecordChatRequest(ctx context.Context, status string) {
	status = normalizeChatStatus(status)
	c.requests.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
}

func (c *chatMetrics) RecordChatDuration(ctx context.Context, duration time.Duration, status string) {
	status = normalizeChatStatus(status)
	c.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(AttrStatus, status)))
}

func (c *chatMetrics) RecordRetrievedSessions(ctx context.Context, count int64) {
	c.retrieved.Record(ctx, count)
}

func normalizeChatStatus(status string) string {
	if AllowedChatStatus(status) {
		return status
	}

	return "other"
}

type analysisMetrics struct {
	analyses metric.Int64Counter
	duration metric.Float64Histogram
}

// NewAnalysisMetrics creates AnalysisMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewAnalysisMetrics(meter metric.Meter) (AnalysisMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	analyses, err := meter.Int64Counter(
		MetricNameAnalyses,
		metric.WithDescription("Total report analyses by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create analyses counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameAnalysisDuration,
		metric.WithDescription("Report analysis duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create analysis duration histogram: %w", err)
	}

	return &analysisMetrics{analyses: analyses, duration: duration}, nil
}

func (a *analysisMetrics) RecordAnalysis(ctx context.Context, status string) {
	status = normalizeAnalysisStatus(status)
	a.analyses.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
}

func (a *analysisMetrics) RecordAnalysisDuration(ctx context.Context, duration time.Duration, status string) {
	status = normalizeAnalysisStatus(status)
	a.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(AttrStatus, status)))
}

func normalizeAnalysisStatus(status string) string {
	if AllowedAnalysisStatus(status) {
		return status
	}

	return "other"
}
