// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides comprehensive instrumentation for:
// - Database query performance (DuckDB)
// - API endpoint latency and throughput
// - Dataset ingest operations
// - Model training and recommendation serving
// - Analysis runs (mining, classification, clustering, regression)
// - Scraper fetches and cache efficiency
// - WebSocket connections

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s, 0.01s, 0.025s, 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBConnectionPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "duckdb_connection_pool_size",
			Help: "Current number of database connections in use",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Ingest Operation Metrics
	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "Duration of dataset ingest operations in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300}, // Large CSVs can take minutes
		},
		[]string{"source"}, // "ratings", "movies", "scrape", "events"
	)

	IngestRecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_records_processed_total",
			Help: "Total number of records processed during ingest",
		},
		[]string{"source"},
	)

	IngestRecordsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_records_rejected_total",
			Help: "Total number of records rejected during cleaning",
		},
		[]string{"source", "reason"}, // reason: "duplicate", "out_of_range", "missing_field", "unpopular_item"
	)

	IngestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_errors_total",
			Help: "Total number of ingest errors",
		},
		[]string{"source", "error_type"}, // "parse", "database", "io", "other"
	)

	IngestLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ingest_last_success_timestamp",
			Help: "Unix timestamp of last successful ingest",
		},
		[]string{"source"},
	)

	// Model Training Metrics
	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_training_duration_seconds",
			Help:    "Duration of model training in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600}, // ALS on large datasets can take minutes
		},
		[]string{"algorithm"},
	)

	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_training_runs_total",
			Help: "Total number of model training runs",
		},
		[]string{"algorithm", "result"}, // result: "success", "failure", "skipped"
	)

	TrainingLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_training_last_success_timestamp",
			Help: "Unix timestamp of last successful training cycle",
		},
	)

	ModelUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_users",
			Help: "Number of users in the trained interaction matrix",
		},
	)

	ModelItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_items",
			Help: "Number of items in the trained interaction matrix",
		},
	)

	ModelInteractions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_interactions",
			Help: "Number of interactions used in the last training cycle",
		},
	)

	// Recommendation Serving Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"algorithm", "mode"}, // mode: "personalized", "similar", "popular"
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Recommendation scoring duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"mode"},
	)

	RecommendationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	RecommendationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	RecommendationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_fallbacks_total",
			Help: "Total number of fallbacks to popularity recommendations",
		},
		[]string{"reason"}, // "unknown_user", "untrained", "empty_result"
	)

	// Analysis Run Metrics (rule mining, classification, clustering, regression)
	AnalysisRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"kind", "result"}, // kind: "rules", "classify", "cluster", "regress", "evaluate"
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_duration_seconds",
			Help:    "Duration of analysis runs in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"kind"},
	)

	// Scraper Metrics
	ScrapeFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_fetches_total",
			Help: "Total number of page fetches",
		},
		[]string{"fetcher", "result"}, // fetcher: "browser", "http"; result: "success", "failure", "cached"
	)

	ScrapeFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrape_fetch_duration_seconds",
			Help:    "Duration of page fetches in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"fetcher"},
	)

	ScrapeRowsExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scrape_rows_extracted_total",
			Help: "Total number of rows extracted from scraped pages",
		},
	)

	ScrapeRateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scrape_rate_limit_wait_seconds",
			Help:    "Time spent waiting on the politeness rate limiter",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// Cache Metrics (General)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "recommendation", "page", "statement"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Pipeline Metrics
	EventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of rating events published to NATS",
		},
	)

	EventsConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of rating events consumed from NATS",
		},
	)

	EventsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_processed_total",
			Help: "Total number of rating events successfully processed",
		},
	)

	EventsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_deduplicated_total",
			Help: "Total number of rating events skipped due to deduplication",
		},
	)

	EventsParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_parse_failed_total",
			Help: "Total number of rating events that failed to parse",
		},
	)

	EventProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "event_processing_duration_seconds",
			Help:    "Duration of rating event processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Authentication Metrics
	AuthLoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	AuthRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Total number of authenticated API requests by authenticator and outcome",
		},
		[]string{"authenticator", "outcome"},
	)

	AuthActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_active_sessions",
			Help: "Current number of live login sessions",
		},
	)

	AuthLockouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_lockouts_total",
			Help: "Total number of account lockouts triggered by failed logins",
		},
	)

	AuthRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_rate_limited_total",
			Help: "Total number of requests rejected by the API rate limiter",
		},
	)

	AuthJTIOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_jti_operations_total",
			Help: "Total number of token revocation store operations",
		},
		[]string{"operation", "status"},
	)

	AuthJTIReplayAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_jti_replay_attempts_total",
			Help: "Total number of revoked or replayed tokens rejected",
		},
	)

	// Authorization Metrics
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions by outcome and cache state",
		},
		[]string{"outcome", "cache"},
	)

	AuthzDecisionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "authz_decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds",
			Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
	)

	AuthzPolicyReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_policy_reloads_total",
			Help: "Total number of policy reloads by status",
		},
		[]string{"status"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordIngest records an ingest operation metric
func RecordIngest(source string, duration time.Duration, recordsProcessed int, err error) {
	IngestDuration.WithLabelValues(source).Observe(duration.Seconds())
	IngestRecordsProcessed.WithLabelValues(source).Add(float64(recordsProcessed))
	if err != nil {
		errorType := "other"
		errorMsg := err.Error()
		switch {
		case strings.Contains(errorMsg, "parse"), strings.Contains(errorMsg, "csv"):
			errorType = "parse"
		case strings.Contains(errorMsg, "database"), strings.Contains(errorMsg, "duckdb"):
			errorType = "database"
		case strings.Contains(errorMsg, "no such file"), strings.Contains(errorMsg, "permission"):
			errorType = "io"
		}
		IngestErrors.WithLabelValues(source, errorType).Inc()
	} else {
		IngestLastSuccess.WithLabelValues(source).Set(float64(time.Now().Unix()))
	}
}

// RecordRejectedRecords records records rejected during cleaning
func RecordRejectedRecords(source, reason string, count int) {
	if count > 0 {
		IngestRecordsRejected.WithLabelValues(source, reason).Add(float64(count))
	}
}

// RecordTraining records a model training run
func RecordTraining(algorithm string, duration time.Duration, err error) {
	TrainingDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	if err != nil {
		TrainingRunsTotal.WithLabelValues(algorithm, "failure").Inc()
	} else {
		TrainingRunsTotal.WithLabelValues(algorithm, "success").Inc()
	}
}

// RecordTrainingSkipped records a training run skipped (insufficient data
// or a previous run still holds the training lock)
func RecordTrainingSkipped(algorithm string) {
	TrainingRunsTotal.WithLabelValues(algorithm, "skipped").Inc()
}

// UpdateModelSize updates the trained model dimension gauges
func UpdateModelSize(users, items, interactions int) {
	ModelUsers.Set(float64(users))
	ModelItems.Set(float64(items))
	ModelInteractions.Set(float64(interactions))
}

// RecordRecommendation records a served recommendation request
func RecordRecommendation(algorithm, mode string, duration time.Duration) {
	RecommendationRequests.WithLabelValues(algorithm, mode).Inc()
	RecommendationDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordRecommendationCache records a recommendation cache lookup
func RecordRecommendationCache(hit bool) {
	if hit {
		RecommendationCacheHits.Inc()
	} else {
		RecommendationCacheMisses.Inc()
	}
}

// RecordRecommendationFallback records a fallback to popularity results
func RecordRecommendationFallback(reason string) {
	RecommendationFallbacks.WithLabelValues(reason).Inc()
}

// RecordAnalysis records an analysis run metric
func RecordAnalysis(kind string, duration time.Duration, err error) {
	AnalysisDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err != nil {
		AnalysisRunsTotal.WithLabelValues(kind, "failure").Inc()
	} else {
		AnalysisRunsTotal.WithLabelValues(kind, "success").Inc()
	}
}

// RecordScrapeFetch records a page fetch
func RecordScrapeFetch(fetcher, result string, duration time.Duration) {
	ScrapeFetchesTotal.WithLabelValues(fetcher, result).Inc()
	ScrapeFetchDuration.WithLabelValues(fetcher).Observe(duration.Seconds())
}

// RecordScrapeRows records rows extracted from a scraped page
func RecordScrapeRows(count int) {
	ScrapeRowsExtracted.Add(float64(count))
}

// RecordScrapeRateLimitWait records time spent waiting on the rate limiter
func RecordScrapeRateLimitWait(wait time.Duration) {
	ScrapeRateLimitWait.Observe(wait.Seconds())
}

// RecordCacheAccess records a general cache lookup by cache type
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// RecordEventPublish records a rating event published to NATS
func RecordEventPublish() {
	EventsPublished.Inc()
}

// RecordEventConsume records a rating event consumed from NATS
func RecordEventConsume() {
	EventsConsumed.Inc()
}

// RecordEventProcessed records a rating event successfully processed
func RecordEventProcessed() {
	EventsProcessed.Inc()
}

// RecordEventDeduplicated records a rating event skipped due to deduplication
func RecordEventDeduplicated() {
	EventsDeduplicated.Inc()
}

// RecordEventParseFailed records a rating event that failed to parse
func RecordEventParseFailed() {
	EventsParseFailed.Inc()
}

// RecordEventProcessingDuration records the duration of event processing
func RecordEventProcessingDuration(duration time.Duration) {
	EventProcessingDuration.Observe(duration.Seconds())
}

// RecordLoginAttempt records a login attempt by auth mode and outcome
// ("success", "failure", "locked")
func RecordLoginAttempt(mode, outcome string) {
	AuthLoginAttempts.WithLabelValues(mode, outcome).Inc()
}

// RecordAuthRequest records an authenticated request outcome
func RecordAuthRequest(authenticator, outcome string) {
	AuthRequests.WithLabelValues(authenticator, outcome).Inc()
}

// TrackActiveSessions adjusts the live session gauge
func TrackActiveSessions(delta int) {
	AuthActiveSessions.Add(float64(delta))
}

// RecordLockout records an account lockout
func RecordLockout() {
	AuthLockouts.Inc()
}

// RecordAuthRateLimited records a request rejected by the rate limiter
func RecordAuthRateLimited() {
	AuthRateLimited.Inc()
}

// RecordJTIOperation records a token revocation store operation
func RecordJTIOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AuthJTIOperations.WithLabelValues(operation, status).Inc()
}

// RecordJTIReplay records a rejected revoked or replayed token
func RecordJTIReplay() {
	AuthJTIReplayAttempts.Inc()
}

// RecordAuthzDecision records one authorization decision
func RecordAuthzDecision(allowed bool, duration time.Duration, cacheHit bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	AuthzDecisions.WithLabelValues(outcome, cache).Inc()
	AuthzDecisionDuration.Observe(duration.Seconds())
}

// RecordPolicyReload records an authorization policy reload
func RecordPolicyReload(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AuthzPolicyReloads.WithLabelValues(status).Inc()
}
