package metrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// metricsKey is where run metrics are published for external dashboards.
	metricsKey = "metrics:review-sender"
	// metricsTTL expires stale metrics if the service stops reporting.
	metricsTTL = 2 * time.Minute
	// defaultReportInterval is how often the snapshot is written to Redis.
	defaultReportInterval = 30 * time.Second
)

// RunMetrics is the JSON snapshot written to Redis.
type RunMetrics struct {
	ServiceName string    `json:"service_name"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`

	RecordsProcessed uint64 `json:"records_processed"`
	MessagesSent     uint64 `json:"messages_sent"`
	RecordsSkipped   uint64 `json:"records_skipped"`
	RecordsFailed    uint64 `json:"records_failed"`
	TemplatesApplied uint64 `json:"templates_applied"`

	AvgProcessingLatencyNs float64 `json:"avg_processing_latency_ns"`
}

// Collector is a Redis-backed Recorder. Counters are atomic and a
// background goroutine publishes a JSON snapshot on an interval.
type Collector struct {
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	processed atomic.Uint64
	sent      atomic.Uint64
	skipped   atomic.Uint64
	failed    atomic.Uint64
	applied   atomic.Uint64

	totalLatencyNs atomic.Uint64
	latencyCount   atomic.Uint64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewCollector(redisClient *redis.Client) *Collector {
	return &Collector{
		redis:          redisClient,
		startedAt:      time.Now().UTC(),
		reportInterval: defaultReportInterval,
		stopCh:         make(chan struct{}),
	}
}

// SetReportInterval overrides the snapshot publishing interval.
func (c *Collector) SetReportInterval(interval time.Duration) {
	c.reportInterval = interval
}

// Start begins periodic snapshot publishing until Stop or ctx cancellation.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.write(context.Background())
				return
			case <-c.stopCh:
				c.write(context.Background())
				return
			case <-ticker.C:
				c.write(ctx)
			}
		}
	}()
}

// Stop publishes a final snapshot and stops the reporting goroutine.
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Collector) RecordProcessed(latency time.Duration) {
	c.processed.Add(1)
	c.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	c.latencyCount.Add(1)
}

func (c *Collector) RecordSent()            { c.sent.Add(1) }
func (c *Collector) RecordSkipped()         { c.skipped.Add(1) }
func (c *Collector) RecordFailed()          { c.failed.Add(1) }
func (c *Collector) RecordTemplateApplied() { c.applied.Add(1) }

// Snapshot returns the current counters without writing to Redis.
func (c *Collector) Snapshot() *RunMetrics {
	var avgLatencyNs float64
	if n := c.latencyCount.Load(); n > 0 {
		avgLatencyNs = float64(c.totalLatencyNs.Load()) / float64(n)
	}

	return &RunMetrics{
		ServiceName:            "review-sender",
		StartedAt:              c.startedAt,
		LastUpdated:            time.Now().UTC(),
		RecordsProcessed:       c.processed.Load(),
		MessagesSent:           c.sent.Load(),
		RecordsSkipped:         c.skipped.Load(),
		RecordsFailed:          c.failed.Load(),
		TemplatesApplied:       c.applied.Load(),
		AvgProcessingLatencyNs: avgLatencyNs,
	}
}

func (c *Collector) write(ctx context.Context) {
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		slog.Error("Failed to marshal metrics", "error", err)
		return
	}

	if err := c.redis.Set(ctx, metricsKey, data, metricsTTL).Err(); err != nil {
		slog.Error("Failed to write metrics to Redis", "error", err)
		return
	}

	slog.Debug("Metrics written to Redis", "key", metricsKey)
}

var _ Recorder = (*Collector)(nil)
