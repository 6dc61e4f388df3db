package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	startedAt     time.Time
	requestCount  map[string]int64
	errorCount    map[string]int64
	latencyMillis map[string]int64
	logins        map[string]int64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	UptimeSeconds int64            `json:"uptime_seconds"`
	Requests      map[string]int64 `json:"requests"`
	Errors        map[string]int64 `json:"errors"`
	LatencyMillis map[string]int64 `json:"latency_ms_total"`
	Logins        map[string]int64 `json:"logins"`
	RequestsTotal int64            `json:"requests_total"`
	SlowestRoutes []string         `json:"slowest_routes,omitempty"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		startedAt:     time.Now(),
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		latencyMillis: make(map[string]int64),
		logins:        make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.latencyMillis[path+"|"+method] += duration.Milliseconds()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordLogin counts login attempts by outcome ("success", "failure").
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins[outcome]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		UptimeSeconds: int64(time.Since(m.startedAt).Seconds()),
		Requests:      copyCounts(m.requestCount),
		Errors:        copyCounts(m.errorCount),
		LatencyMillis: copyCounts(m.latencyMillis),
		Logins:        copyCounts(m.logins),
	}
	for _, v := range m.requestCount {
		snap.RequestsTotal += v
	}

	routes := make([]string, 0, len(m.latencyMillis))
	for k := range m.latencyMillis {
		routes = append(routes, k)
	}
	sort.Slice(routes, func(i, j int) bool {
		return m.latencyMillis[routes[i]] > m.latencyMillis[routes[j]]
	})
	if len(routes) > 5 {
		routes = routes[:5]
	}
	snap.SlowestRoutes = routes
	return snap
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
