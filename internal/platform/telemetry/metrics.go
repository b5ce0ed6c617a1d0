// Package telemetry records HTTP and extraction metrics and serves them in
// the Prometheus text exposition format.
package telemetry

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

var (
	durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	sizeBuckets     = []float64{1024, 8192, 65536, 262144, 1048576, 4194304, 10485760}
)

// histogram stores non-cumulative bucket counts; cumulative counts are
// computed at export time.
type histogram struct {
	boundaries   []float64
	bucketCounts []int64
	count        int64
	sum          uint64 // math.Float64bits
	mu           sync.Mutex
}

func newHistogram(boundaries []float64) *histogram {
	return &histogram{
		boundaries:   boundaries,
		bucketCounts: make([]int64, len(boundaries)),
	}
}

func (h *histogram) Observe(v float64) {
	atomic.AddInt64(&h.count, 1)
	for {
		old := atomic.LoadUint64(&h.sum)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(&h.sum, old, next) {
			break
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, b := range h.boundaries {
		if v <= b {
			h.bucketCounts[i]++
			return
		}
	}
}

func (h *histogram) Count() int64 { return atomic.LoadInt64(&h.count) }

func (h *histogram) Sum() float64 { return math.Float64frombits(atomic.LoadUint64(&h.sum)) }

func (h *histogram) cumulativeBuckets() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	cum := make([]int64, len(h.bucketCounts))
	var running int64
	for i, c := range h.bucketCounts {
		running += c
		cum[i] = running
	}
	return cum
}

// labeled holds one histogram or counter per label set. Keys are label
// values joined with "|".
type labeled[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	mk    func() T
}

func newLabeled[T any](mk func() T) *labeled[T] {
	return &labeled[T]{items: make(map[string]T), mk: mk}
}

func (l *labeled[T]) get(labels ...string) T {
	key := strings.Join(labels, "|")
	l.mu.RLock()
	v, ok := l.items[key]
	l.mu.RUnlock()
	if ok {
		return v
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok = l.items[key]; !ok {
		v = l.mk()
		l.items[key] = v
	}
	return v
}

// sorted returns keys in lexical order so the exposition is stable.
func (l *labeled[T]) sorted() ([]string, map[string]T) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.items))
	cp := make(map[string]T, len(l.items))
	for k, v := range l.items {
		keys = append(keys, k)
		cp[k] = v
	}
	sort.Strings(keys)
	return keys, cp
}

// Metrics is safe for concurrent use.
type Metrics struct {
	active          int64
	requestDuration *labeled[*histogram] // method|route|status
	requestSize     *histogram
	extractions     *labeled[*int64] // status
	records         *labeled[*int64] // domain
	extractDuration *histogram
}

func NewMetrics() *Metrics {
	counter := func() *int64 { return new(int64) }
	return &Metrics{
		requestDuration: newLabeled(func() *histogram { return newHistogram(durationBuckets) }),
		requestSize:     newHistogram(sizeBuckets),
		extractions:     newLabeled(counter),
		records:         newLabeled(counter),
		extractDuration: newHistogram(durationBuckets),
	}
}

// Middleware records request duration by method, route and status code.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			atomic.AddInt64(&m.active, 1)
			defer atomic.AddInt64(&m.active, -1)

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}

			m.requestDuration.get(c.Request().Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
			if n := c.Request().ContentLength; n > 0 {
				m.requestSize.Observe(float64(n))
			}
			return err
		}
	}
}

// ObserveExtraction counts one engine run and the records it produced.
func (m *Metrics) ObserveExtraction(status string, counts map[string]int, elapsed time.Duration) {
	atomic.AddInt64(m.extractions.get(status), 1)
	for domain, n := range counts {
		atomic.AddInt64(m.records.get(domain), int64(n))
	}
	m.extractDuration.Observe(elapsed.Seconds())
}

// ExtractionCount returns the number of runs observed with status.
func (m *Metrics) ExtractionCount(status string) int64 {
	return atomic.LoadInt64(m.extractions.get(status))
}

// Handler serves GET /metrics.
func (m *Metrics) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var b strings.Builder

		b.WriteString("# HELP http_server_request_duration_seconds Duration of HTTP requests in seconds.\n")
		b.WriteString("# TYPE http_server_request_duration_seconds histogram\n")
		keys, hists := m.requestDuration.sorted()
		for _, k := range keys {
			parts := strings.SplitN(k, "|", 3)
			labels := fmt.Sprintf("method=%q,route=%q,status_code=%q", parts[0], parts[1], parts[2])
			writeHistogram(&b, "http_server_request_duration_seconds", labels, hists[k])
		}
		b.WriteByte('\n')

		b.WriteString("# HELP http_server_active_requests Number of in-flight HTTP requests.\n")
		b.WriteString("# TYPE http_server_active_requests gauge\n")
		fmt.Fprintf(&b, "http_server_active_requests %d\n\n", atomic.LoadInt64(&m.active))

		b.WriteString("# HELP http_server_request_size_bytes Size of HTTP request bodies in bytes.\n")
		b.WriteString("# TYPE http_server_request_size_bytes histogram\n")
		writeHistogram(&b, "http_server_request_size_bytes", "", m.requestSize)
		b.WriteByte('\n')

		writeCounters(&b, "ccda_extractions_total", "C-CDA documents processed by status.", "status", m.extractions)
		writeCounters(&b, "ccda_records_total", "Records extracted by domain.", "domain", m.records)

		b.WriteString("# HELP ccda_extraction_duration_seconds Time spent in the extraction engine.\n")
		b.WriteString("# TYPE ccda_extraction_duration_seconds histogram\n")
		writeHistogram(&b, "ccda_extraction_duration_seconds", "", m.extractDuration)

		return c.String(http.StatusOK, b.String())
	}
}

func writeCounters(b *strings.Builder, name, help, label string, l *labeled[*int64]) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s counter\n", name)
	keys, vals := l.sorted()
	for _, k := range keys {
		fmt.Fprintf(b, "%s{%s=%q} %d\n", name, label, k, atomic.LoadInt64(vals[k]))
	}
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, labels string, h *histogram) {
	prefix, suffix := "", ""
	if labels != "" {
		prefix = labels + ","
		suffix = "{" + labels + "}"
	}

	cum := h.cumulativeBuckets()
	for i, bound := range h.boundaries {
		fmt.Fprintf(b, "%s_bucket{%sle=\"%g\"} %d\n", name, prefix, bound, cum[i])
	}
	fmt.Fprintf(b, "%s_bucket{%sle=\"+Inf\"} %d\n", name, prefix, h.Count())
	fmt.Fprintf(b, "%s_sum%s %g\n", name, suffix, h.Sum())
	fmt.Fprintf(b, "%s_count%s %d\n", name, suffix, h.Count())
}
