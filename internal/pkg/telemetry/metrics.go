package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Tile pipeline
	MetricTileFetchLatency  = "tiles.fetch_latency"
	MetricPlaceholderRatio  = "tiles.placeholder_ratio"
	MetricCompositeDuration = "composite.render_duration"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricBoxesLabeled     = "business.boxes_labeled"
	MetricExportsDelivered = "business.exports_delivered"
)
