// Package observability provides OpenTelemetry metrics and log correlation for the reports API.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameEmbeddingJobsEnqueued   = "reports_embedding_jobs_enqueued_total"
	MetricNameEmbeddingProviderErrors = "reports_embedding_provider_errors_total"
	MetricNameEmbeddingOutcomes       = "reports_embedding_outcomes_total"
	MetricNameEmbeddingWorkerErrors   = "reports_embedding_worker_errors_total"
	MetricNameEmbeddingDuration       = "reports_embedding_duration_seconds"
	MetricNameChatRequests            = "reports_chat_requests_total"
	MetricNameChatDuration            = "reports_chat_duration_seconds"
	MetricNameChatRetrievedSessions   = "reports_chat_retrieved_sessions"
	MetricNameAnalyses                = "reports_analyses_total"
	MetricNameAnalysisDuration        = "reports_analysis_duration_seconds"
	MetricNameCacheHits               = "reports_cache_hits_total"
	MetricNameCacheMisses             = "reports_cache_misses_total"
)

// Attribute keys.
const (
	AttrReason = "reason"
	AttrStatus = "status"
)

// AllowedEmbeddingProviderReason for reports_embedding_provider_errors_total.
func AllowedEmbeddingProviderReason(reason string) bool {
	return reason == "enqueue_failed"
}

// allowedEmbeddingWorkerReasons for reports_embedding_worker_errors_total.
var allowedEmbeddingWorkerReasons = map[string]bool{
	"get_session_failed": true,
	"provider_failed":    true,
	"update_failed":      true,
}

// AllowedEmbeddingWorkerReason reports whether reason is a known worker error reason.
func AllowedEmbeddingWorkerReason(reason string) bool {
	return allowedEmbeddingWorkerReasons[reason]
}

// allowedEmbeddingOutcomeStatuses for reports_embedding_outcomes_total and reports_embedding_duration_seconds.
var allowedEmbeddingOutcomeStatuses = map[string]bool{
	"success":      true,
	"skipped":      true,
	"retry":        true,
	"failed_final": true,
}

// AllowedEmbeddingOutcomeStatus reports whether status is a known embedding outcome.
func AllowedEmbeddingOutcomeStatus(status string) bool {
	return allowedEmbeddingOutcomeStatuses[status]
}

// allowedChatStatuses for reports_chat_requests_total and reports_chat_duration_seconds.
var allowedChatStatuses = map[string]bool{
	"answered":       true,
	"no_match":       true,
	"parse_fallback": true,
	"error":          true,
}

// AllowedChatStatus reports whether status is a known chat outcome.
func AllowedChatStatus(status string) bool {
	return allowedChatStatuses[status]
}

// allowedAnalysisStatuses for reports_analyses_total and reports_analysis_duration_seconds.
var allowedAnalysisStatuses = map[string]bool{
	"success": true,
	"failed":  true,
}

// AllowedAnalysisStatus reports whether status is a known analysis outcome.
func AllowedAnalysisStatus(status string) bool {
	return allowedAnalysisStatuses[status]
}

// allowedCacheNames bounds the cache label cardinality.
var allowedCacheNames = map[string]bool{
	"chat_query_embedding": true,
}

// NormalizeReason returns reason if allowed says so, otherwise "other".
func NormalizeReason(reason string, allowed func(string) bool) string {
	if allowed(reason) {
		return reason
	}

	return "other"
}

// NormalizeCacheName returns name if known, otherwise "other".
func NormalizeCacheName(name string) string {
	if allowedCacheNames[name] {
		return name
	}

	return "other"
}
