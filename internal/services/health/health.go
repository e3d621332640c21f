// Package health samples process metrics and request statistics for the
// health endpoints
package health

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultInterval is the sampling period
	DefaultInterval = 30 * time.Second
	// MaxHistory bounds every history series
	MaxHistory = 1000
	// DefaultHistoryLimit is used when a read asks for a non-positive limit
	DefaultHistoryLimit = 100

	perfWindow = 100
)

// Health status values
const (
	StatusHealthy  = "healthy"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// MemorySample is one reading of the Go runtime allocator
type MemorySample struct {
	Timestamp  time.Time `json:"timestamp"`
	HeapAlloc  uint64    `json:"heapAlloc"`
	HeapInuse  uint64    `json:"heapInuse"`
	Sys        uint64    `json:"sys"`
	NumGC      uint32    `json:"numGC"`
	Goroutines int       `json:"goroutines"`
	Usage      float64   `json:"usage"`
}

// DiskSample is the size of the data directory
type DiskSample struct {
	Timestamp time.Time `json:"timestamp"`
	Bytes     int64     `json:"bytes"`
	MB        float64   `json:"mb"`
}

// RequestSample is one served request
type RequestSample struct {
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Endpoint  string        `json:"endpoint"`
	Status    int           `json:"status"`
}

// SystemInfo is static host and runtime information
type SystemInfo struct {
	OS         string  `json:"os"`
	Arch       string  `json:"arch"`
	Hostname   string  `json:"hostname"`
	GoVersion  string  `json:"goVersion"`
	NumCPU     int     `json:"numCPU"`
	UptimeSecs float64 `json:"uptime"`
}

// RequestTotals counts requests since start
type RequestTotals struct {
	Total     int64   `json:"total"`
	Errors    int64   `json:"errors"`
	ErrorRate float64 `json:"errorRate"`
}

// Current is the latest sample set
type Current struct {
	Memory     *MemorySample `json:"memory,omitempty"`
	Disk       *DiskSample   `json:"disk,omitempty"`
	UptimeSecs float64       `json:"uptime"`
	Requests   RequestTotals `json:"requests"`
}

// Performance summarizes the last requests
type Performance struct {
	AvgResponseMs     float64 `json:"avgResponseTime"`
	MinResponseMs     float64 `json:"minResponseTime"`
	MaxResponseMs     float64 `json:"maxResponseTime"`
	RequestsPerMinute int     `json:"requestsPerMinute"`
}

// Status is the overall verdict with the reasons behind it
type Status struct {
	Status    string    `json:"status"`
	Issues    []string  `json:"issues"`
	Timestamp time.Time `json:"timestamp"`
}

// Report is the body of the detailed health endpoint
type Report struct {
	Status      string      `json:"status"`
	UptimeSecs  float64     `json:"uptime"`
	Timestamp   time.Time   `json:"timestamp"`
	System      SystemInfo  `json:"system"`
	Metrics     Current     `json:"metrics"`
	Performance Performance `json:"performance"`
	Health      Status      `json:"health"`
}

// Monitor keeps bounded metric histories and request counters
type Monitor struct {
	dataDir  string
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
	start    time.Time

	mu       sync.RWMutex
	memory   []MemorySample
	disk     []DiskSample
	requests []RequestSample
	errors   []RequestSample
	total    int64
	errCount int64

	done chan struct{}
	once sync.Once
}

// NewMonitor takes an initial sample and starts the sampling loop.
// dataDir is measured for disk usage; empty skips disk sampling.
func NewMonitor(dataDir string, interval time.Duration, log *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	m := &Monitor{
		dataDir:  dataDir,
		interval: interval,
		log:      log,
		now:      time.Now,
		start:    time.Now(),
		done:     make(chan struct{}),
	}

	m.Collect()

	// Start sampling goroutine
	go m.sampleLoop()

	return m
}

// Close stops the sampling loop
func (m *Monitor) Close() {
	m.once.Do(func() { close(m.done) })
}

func (m *Monitor) sampleLoop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Collect()
		case <-m.done:
			return
		}
	}
}

// Collect records one memory sample and, when configured, one disk sample
func (m *Monitor) Collect() {
	now := m.now().UTC()

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	mem := MemorySample{
		Timestamp:  now,
		HeapAlloc:  stats.HeapAlloc,
		HeapInuse:  stats.HeapInuse,
		Sys:        stats.Sys,
		NumGC:      stats.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
	if stats.Sys > 0 {
		mem.Usage = float64(stats.HeapInuse) / float64(stats.Sys) * 100
	}

	var disk *DiskSample
	if m.dataDir != "" {
		size, err := dirSize(m.dataDir)
		if err != nil {
			m.log.Debug("disk sample skipped", zap.String("dir", m.dataDir), zap.Error(err))
		} else {
			disk = &DiskSample{Timestamp: now, Bytes: size, MB: float64(size) / 1024 / 1024}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.memory = trim(append(m.memory, mem))
	if disk != nil {
		m.disk = trim(append(m.disk, *disk))
	}
}

// RecordRequest counts a served request; status >= 400 counts as an error
func (m *Monitor) RecordRequest(d time.Duration, endpoint string, status int) {
	s := RequestSample{
		Timestamp: m.now().UTC(),
		Duration:  d,
		Endpoint:  endpoint,
		Status:    status,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.requests = trim(append(m.requests, s))
	if status >= 400 {
		m.errCount++
		m.errors = trim(append(m.errors, s))
	}
}

// SystemInfo describes the host and runtime
func (m *Monitor) SystemInfo() SystemInfo {
	host, _ := os.Hostname()
	return SystemInfo{
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		Hostname:   host,
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
		UptimeSecs: m.Uptime().Seconds(),
	}
}

// Uptime is the time since the monitor started
func (m *Monitor) Uptime() time.Duration {
	return m.now().Sub(m.start)
}

// Current returns the latest samples and request totals
func (m *Monitor) Current() Current {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := Current{
		UptimeSecs: m.Uptime().Seconds(),
		Requests:   RequestTotals{Total: m.total, Errors: m.errCount},
	}
	if m.total > 0 {
		c.Requests.ErrorRate = float64(m.errCount) / float64(m.total) * 100
	}
	if n := len(m.memory); n > 0 {
		s := m.memory[n-1]
		c.Memory = &s
	}
	if n := len(m.disk); n > 0 {
		s := m.disk[n-1]
		c.Disk = &s
	}
	return c
}

// MemoryHistory returns up to limit recent memory samples, oldest first
func (m *Monitor) MemoryHistory(limit int) []MemorySample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return last(m.memory, limit)
}

// DiskHistory returns up to limit recent disk samples, oldest first
func (m *Monitor) DiskHistory(limit int) []DiskSample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return last(m.disk, limit)
}

// RequestHistory returns up to limit recent requests, oldest first
func (m *Monitor) RequestHistory(limit int) []RequestSample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return last(m.requests, limit)
}

// ErrorHistory returns up to limit recent failed requests, oldest first
func (m *Monitor) ErrorHistory(limit int) []RequestSample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return last(m.errors, limit)
}

// Performance summarizes the last 100 requests
func (m *Monitor) Performance() Performance {
	m.mu.RLock()
	recent := last(m.requests, perfWindow)
	m.mu.RUnlock()

	if len(recent) == 0 {
		return Performance{}
	}

	cutoff := m.now().Add(-time.Minute)
	var p Performance
	var sum time.Duration
	lo, hi := recent[0].Duration, recent[0].Duration
	for _, r := range recent {
		sum += r.Duration
		if r.Duration < lo {
			lo = r.Duration
		}
		if r.Duration > hi {
			hi = r.Duration
		}
		if r.Timestamp.After(cutoff) {
			p.RequestsPerMinute++
		}
	}
	p.AvgResponseMs = ms(sum / time.Duration(len(recent)))
	p.MinResponseMs = ms(lo)
	p.MaxResponseMs = ms(hi)
	return p
}

// Status grades memory pressure and error rate
func (m *Monitor) Status() Status {
	c := m.Current()
	st := Status{Status: StatusHealthy, Issues: []string{}, Timestamp: m.now().UTC()}

	if c.Memory != nil {
		switch {
		case c.Memory.Usage > 90:
			st.Status = StatusCritical
			st.Issues = append(st.Issues, "High memory usage")
		case c.Memory.Usage > 75:
			st.Status = StatusWarning
			st.Issues = append(st.Issues, "Elevated memory usage")
		}
	}

	if c.Requests.ErrorRate > 10 {
		if st.Status == StatusHealthy {
			st.Status = StatusWarning
		}
		st.Issues = append(st.Issues, "High error rate")
	}
	return st
}

// Report assembles the detailed health body
func (m *Monitor) Report() Report {
	return Report{
		Status:      "ok",
		UptimeSecs:  m.Uptime().Seconds(),
		Timestamp:   m.now().UTC(),
		System:      m.SystemInfo(),
		Metrics:     m.Current(),
		Performance: m.Performance(),
		Health:      m.Status(),
	}
}

func dirSize(root string) (int64, error) {
	var size int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != root && (d.Name() == ".git" || d.Name() == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

func trim[T any](s []T) []T {
	if len(s) > MaxHistory {
		return append(s[:0:0], s[len(s)-MaxHistory:]...)
	}
	return s
}

func last[T any](s []T, limit int) []T {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	return append([]T(nil), s...)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
