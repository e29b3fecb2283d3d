package observability

import "sync"

type observe struct {
	Kind   string  `json:"kind"`
	Name   string  `json:"name,omitempty"`
	Source string  `json:"source,omitempty"`
	Status int     `json:"status,omitempty"`
	OK     bool    `json:"ok"`
	DurMs  float64 `json:"dur_ms"`
	DBMs   float64 `json:"db_ms,omitempty"`
}

// Inmem keeps the last max observations and running cache counters.
type Inmem struct {
	mu     sync.Mutex
	last   []observe
	max    int
	totals struct {
		cacheHits, cacheMiss int
	}
}

type Snapshot struct {
	CacheHits   int       `json:"cache_hits"`
	CacheMisses int       `json:"cache_misses"`
	Last        []observe `json:"last"`
}

func NewInmem(max int) *Inmem {
	return &Inmem{
		max: max,
	}
}

func (m *Inmem) push(v observe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = append(m.last, v)
	if len(m.last) > m.max {
		m.last = m.last[len(m.last)-m.max:]
	}
}

func (m *Inmem) ObserveLookup(key, source string, cacheMs, dbMs float64) {
	m.push(observe{Kind: "lookup", Name: key, Source: source, OK: true, DurMs: cacheMs, DBMs: dbMs})
}

func (m *Inmem) ObserveOrder(dbWriteMs float64, ok bool) {
	m.push(observe{Kind: "order", OK: ok, DBMs: dbWriteMs})
}

func (m *Inmem) ObserveHTTP(method, route string, status int, durMs float64) {
	m.push(observe{Kind: "http", Name: method + " " + route, Status: status, OK: status < 500, DurMs: durMs})
}

func (m *Inmem) ObserveKafka(processMs float64, ok bool) {
	m.push(observe{Kind: "kafka", OK: ok, DurMs: processMs})
}

func (m *Inmem) IncCacheHit() {
	m.mu.Lock()
	m.totals.cacheHits++
	m.mu.Unlock()
}

func (m *Inmem) IncCacheMiss() {
	m.mu.Lock()
	m.totals.cacheMiss++
	m.mu.Unlock()
}

func (m *Inmem) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	last := make([]observe, len(m.last))
	copy(last, m.last)
	return Snapshot{
		CacheHits:   m.totals.cacheHits,
		CacheMisses: m.totals.cacheMiss,
		Last:        last,
	}
}
