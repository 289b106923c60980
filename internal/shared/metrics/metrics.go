package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	analysesTotal          atomic.Uint64
	analysesFlaggedTotal   atomic.Uint64
	analysisInvalidTotal   atomic.Uint64
	notificationsTotal     atomic.Uint64
	slackEventsTotal       atomic.Uint64
	slackAPIFailuresTotal  atomic.Uint64
	slackFeedbackTotal     atomic.Uint64
	queueMessagesTotal     atomic.Uint64
	queueMessageFailsTotal atomic.Uint64

	suggestions = newLabeledCounter()
	rateLimited = newLabeledCounter()

	analysisDuration   = newHistogram([]float64{1, 5, 10, 50, 100, 250, 500, 1000, 5000})
	generationDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncAnalyses counts a completed analysis and whether it flagged anything.
func IncAnalyses(flagged bool) {
	analysesTotal.Add(1)
	if flagged {
		analysesFlaggedTotal.Add(1)
	}
}

// IncAnalysisInvalid counts results that failed validation and were replaced by an empty result.
func IncAnalysisInvalid() {
	analysisInvalidTotal.Add(1)
}

// IncSuggestion counts a suggestion by its source, e.g. "llm" or "fallback".
func IncSuggestion(source string) {
	suggestions.Inc(source)
}

// IncRateLimited counts a request rejected by the rate limiter for group.
func IncRateLimited(group string) {
	rateLimited.Inc(group)
}

// IncNotifications counts results that recommended an active notification.
func IncNotifications() {
	notificationsTotal.Add(1)
}

// IncSlackEvents counts accepted Slack event callbacks.
func IncSlackEvents() {
	slackEventsTotal.Add(1)
}

// IncSlackAPIFailures counts failed Slack Web API calls.
func IncSlackAPIFailures() {
	slackAPIFailuresTotal.Add(1)
}

// IncSlackFeedback counts threaded feedback messages posted to Slack.
func IncSlackFeedback() {
	slackFeedbackTotal.Add(1)
}

// IncQueueMessages counts processed queue messages and failures.
func IncQueueMessages(failed bool) {
	queueMessagesTotal.Add(1)
	if failed {
		queueMessageFailsTotal.Add(1)
	}
}

// ObserveAnalysisDurationMs records an analysis duration in milliseconds.
func ObserveAnalysisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	analysisDuration.Observe(value)
}

// ObserveGenerationDurationMs records a rewrite generation call in milliseconds.
func ObserveGenerationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	generationDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "whc_analyses_total", "Total messages analyzed", analysesTotal.Load())
	writeCounter(&buf, "whc_analyses_flagged_total", "Analyses with at least one issue", analysesFlaggedTotal.Load())
	writeCounter(&buf, "whc_analysis_invalid_total", "Analyses replaced by an empty result after validation failed", analysisInvalidTotal.Load())
	writeLabeledCounter(&buf, "whc_suggestions_total", "Suggestions produced by source", "source", suggestions.Snapshot())
	writeLabeledCounter(&buf, "whc_rate_limited_total", "Requests rejected by the rate limiter", "group", rateLimited.Snapshot())
	writeCounter(&buf, "whc_notifications_total", "Analyses recommending an active notification", notificationsTotal.Load())
	writeCounter(&buf, "whc_slack_events_total", "Slack message events accepted", slackEventsTotal.Load())
	writeCounter(&buf, "whc_slack_api_failures_total", "Failed Slack Web API calls", slackAPIFailuresTotal.Load())
	writeCounter(&buf, "whc_slack_feedback_total", "Feedback messages posted to Slack", slackFeedbackTotal.Load())
	writeCounter(&buf, "whc_queue_messages_total", "Queue messages processed", queueMessagesTotal.Load())
	writeCounter(&buf, "whc_queue_message_failures_total", "Queue messages that failed processing", queueMessageFailsTotal.Load())
	writeHistogram(&buf, "whc_analysis_duration_ms", "Analysis duration in milliseconds", analysisDuration.Snapshot())
	writeHistogram(&buf, "whc_generation_duration_ms", "Rewrite generation duration in milliseconds", generationDuration.Snapshot())
	return buf.String()
}

type labeledCounter struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter() *labeledCounter {
	return &labeledCounter{values: make(map[string]uint64)}
}

func (l *labeledCounter) Inc(label string) {
	l.mu.Lock()
	l.values[label]++
	l.mu.Unlock()
}

func (l *labeledCounter) Snapshot() map[string]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]uint64, len(l.values))
	for k, v := range l.values {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe records value in the first bucket that holds it; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
