package metrics

import (
	"encoding/json"
	"expvar"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// Local diagnostics endpoints (bind them on 127.0.0.1 in your main)
	StatsPath     = "/stats"
	DebugVarsPath = "/debug/vars"
)

var st = newState()

// cacheStatsFn, when set, supplies the cache entry counts included in the
// /stats snapshot. Wired from main so this package stays storage-agnostic.
var cacheStatsFn func() map[string]int

// SetCacheStatsProvider registers the cache snapshot source. Call once at
// process startup, before the server starts serving.
func SetCacheStatsProvider(fn func() map[string]int) {
	cacheStatsFn = fn
}

// Init publishes expvar variables. These snapshot on access, so no ticker is
// needed. Call this once at process startup.
func Init() {
	expvar.Publish("cp_started_at", expvar.Func(func() any {
		st.mu.Lock()
		defer st.mu.Unlock()
		return st.startedAt.Format(time.RFC3339)
	}))
	expvar.Publish("cp_uptime_seconds", expvar.Func(func() any {
		st.mu.Lock()
		defer st.mu.Unlock()
		return int64(time.Since(st.startedAt).Seconds())
	}))
	expvar.Publish("cp_total_requests", expvar.Func(func() any {
		st.mu.Lock()
		defer st.mu.Unlock()
		return st.totalReq
	}))
	expvar.Publish("cp_total_errors", expvar.Func(func() any {
		st.mu.Lock()
		defer st.mu.Unlock()
		return st.totalErr
	}))
	expvar.Publish("cp_total_latency_ms", expvar.Func(func() any {
		st.mu.Lock()
		defer st.mu.Unlock()
		return st.totalLatency.Milliseconds()
	}))
	expvar.Publish("cp_active_users_5m", expvar.Func(func() any {
		st.mu.Lock()
		defer st.mu.Unlock()
		st.pruneLocked(time.Now())
		return int64(len(st.active))
	}))
	expvar.Publish("cp_requests_by_method_status", expvar.Func(func() any {
		st.mu.Lock()
		defer st.mu.Unlock()
		// Copy into map[string]map[string]int64 to keep it JSON-friendly.
		out := make(map[string]map[string]int64, len(st.byMethodStatus))
		for m, inner := range st.byMethodStatus {
			o2 := make(map[string]int64, len(inner))
			for code, c := range inner {
				o2[strconv.Itoa(code)] = c
			}
			out[m] = o2
		}
		return out
	}))
	expvar.Publish("cp_requests_last_10m", expvar.Func(func() any {
		st.mu.Lock()
		defer st.mu.Unlock()
		// Newest-first snapshot
		out := make([]int64, len(st.perMinute))
		copy(out, st.perMinute[:])
		return out
	}))
}

// Instrument wraps an http.Handler to record request count, status codes,
// latency, requests-per-minute, and active users (5m window).
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: 0}
		start := time.Now()
		next.ServeHTTP(sw, r)
		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		st.record(r, sw.status, time.Since(start))
	})
}

// StatsHandler returns a compact JSON snapshot, suitable for quick human inspection.
func StatsHandler(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	st.mu.Lock()
	defer st.mu.Unlock()

	st.pruneLocked(now)
	avgLatencyMs := float64(0)
	if st.totalReq > 0 {
		avgLatencyMs = float64(st.totalLatency.Milliseconds()) / float64(st.totalReq)
	}

	// Copy RPM newest-first
	rpm := make([]int64, len(st.perMinute))
	copy(rpm, st.perMinute[:])

	methodStatus := make(map[string]map[string]int64, len(st.byMethodStatus))
	for m, inner := range st.byMethodStatus {
		o2 := make(map[string]int64, len(inner))
		for code, c := range inner {
			o2[strconv.Itoa(code)] = c
		}
		methodStatus[m] = o2
	}

	s := stats{
		StartedAt:                 st.startedAt.Format(time.RFC3339),
		UptimeSeconds:             int64(now.Sub(st.startedAt).Seconds()),
		TotalRequests:             st.totalReq,
		TotalErrors:               st.totalErr,
		AverageLatencyMs:          avgLatencyMs,
		RequestsPerMinuteLast10m:  rpm,
		ActiveUsers5m:             int64(len(st.active)),
		RequestsByMethodAndStatus: methodStatus,
	}
	if cacheStatsFn != nil {
		s.Cache = cacheStatsFn()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s)
}

// ===== Internals =====

type stats struct {
	StartedAt                 string                      `json:"started_at"`
	UptimeSeconds             int64                       `json:"uptime_seconds"`
	TotalRequests             int64                       `json:"total_requests"`
	TotalErrors               int64                       `json:"total_errors"`
	AverageLatencyMs          float64                     `json:"avg_latency_ms"`
	RequestsPerMinuteLast10m  []int64                     `json:"requests_last_10m_newest_first"`
	ActiveUsers5m             int64                       `json:"active_users_5m"`
	RequestsByMethodAndStatus map[string]map[string]int64 `json:"requests_by_method_status"`
	Cache                     map[string]int              `json:"cache,omitempty"`
}

type metricsState struct {
	mu sync.Mutex

	startedAt time.Time

	totalReq     int64
	totalErr     int64
	totalLatency time.Duration

	// method -> statusCode -> count
	byMethodStatus map[string]map[int]int64

	// Newest minute is perMinute[0], oldest is perMinute[9]
	perMinute  [10]int64
	lastMinute time.Time

	// active user key -> last seen time
	active map[string]time.Time
}

func newState() *metricsState {
	return &metricsState{
		startedAt:      time.Now(),
		byMethodStatus: make(map[string]map[int]int64),
		active:         make(map[string]time.Time),
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *metricsState) record(r *http.Request, statusCode int, d time.Duration) {
	now := time.Now()
	method := r.Method
	if method == "" {
		method = "UNKNOWN"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalReq++
	if statusCode >= 400 {
		s.totalErr++
	}
	s.totalLatency += d

	if _, ok := s.byMethodStatus[method]; !ok {
		s.byMethodStatus[method] = make(map[int]int64)
	}
	s.byMethodStatus[method][statusCode]++

	// Requests-per-minute ring (newest-first)
	currMinute := now.Truncate(time.Minute)
	if s.lastMinute.IsZero() {
		s.lastMinute = currMinute
	}
	if delta := int(currMinute.Sub(s.lastMinute) / time.Minute); delta > 0 {
		if delta >= len(s.perMinute) {
			for i := range s.perMinute {
				s.perMinute[i] = 0
			}
		} else {
			// shift right by delta; fill zeros at the front
			for i := len(s.perMinute) - 1; i >= delta; i-- {
				s.perMinute[i] = s.perMinute[i-delta]
			}
			for i := 0; i < delta; i++ {
				s.perMinute[i] = 0
			}
		}
		s.lastMinute = currMinute
	}
	s.perMinute[0]++

	// Active users (5m window)
	s.active[userKey(r)] = now
	s.pruneLocked(now)
}

func (s *metricsState) pruneLocked(now time.Time) {
	cutoff := now.Add(-5 * time.Minute)
	for k, t := range s.active {
		if t.Before(cutoff) {
			delete(s.active, k)
		}
	}
}

func userKey(r *http.Request) string {
	if uid := strings.TrimSpace(r.Header.Get("X-User-ID")); uid != "" {
		return "uid:" + uid
	}
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			xff = xff[:idx]
		}
		xff = strings.TrimSpace(xff)
		if xff != "" {
			return "ip:" + xff
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return "ip:" + host
	}
	return "ip:" + r.RemoteAddr
}
