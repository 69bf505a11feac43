package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

type endpointStats struct {
	count       int
	totalTime   time.Duration
	lastPrinted time.Time
}

// statsLogger prints per-route request counts and average latency.
type statsLogger struct {
	stats         map[string]*endpointStats
	mu            sync.Mutex
	flushInterval time.Duration
	done          chan struct{}
	stopOnce      sync.Once
}

func newStatsLogger() *statsLogger {
	return &statsLogger{
		stats:         make(map[string]*endpointStats),
		flushInterval: 30 * time.Second,
		done:          make(chan struct{}),
	}
}

func (sl *statsLogger) periodicFlush() {
	ticker := time.NewTicker(sl.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sl.flushStats(time.Now())
		case <-sl.done:
			return
		}
	}
}

func (sl *statsLogger) stop() {
	sl.stopOnce.Do(func() { close(sl.done) })
}

func (sl *statsLogger) flushStats(now time.Time) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	for endpoint, stats := range sl.stats {
		if stats.count == 0 || now.Sub(stats.lastPrinted) < sl.flushInterval {
			continue
		}
		avgTimeMs := float64(stats.totalTime.Microseconds()) / float64(stats.count) / 1000.0
		slog.Info("endpoint stats",
			"endpoint", endpoint,
			"count", stats.count,
			"avg_time_ms", fmt.Sprintf("%.2f", avgTimeMs),
			"period", sl.flushInterval,
		)
		stats.count = 0
		stats.totalTime = 0
		stats.lastPrinted = now
	}
}

func (sl *statsLogger) record(endpoint string, d time.Duration) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	stats, ok := sl.stats[endpoint]
	if !ok {
		stats = &endpointStats{}
		sl.stats[endpoint] = stats
	}
	stats.count++
	stats.totalTime += d
}

func (sl *statsLogger) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		// route pattern keeps blob keys out of the stats map
		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		sl.record(r.Method+" "+pattern, time.Since(start))
	})
}
