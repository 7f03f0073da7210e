// Package metrics собирает счётчики запросов и событий бронирования.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// Collector принимает события. Передаётся явно, глобального состояния нет.
type Collector interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
	Inc(name string)
}

// Nop ничего не делает
type Nop struct{}

func (Nop) ObserveRequest(string, string, int, time.Duration) {}
func (Nop) Inc(string)                                        {}

type routeStats struct {
	count    int64
	errors   int64
	total    time.Duration
	max      time.Duration
	statuses map[int]int64
}

// Memory потокобезопасный сборщик в памяти процесса
type Memory struct {
	mu       sync.Mutex
	started  time.Time
	routes   map[string]*routeStats
	counters map[string]int64
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		started:  time.Now(),
		routes:   make(map[string]*routeStats),
		counters: make(map[string]int64),
		now:      time.Now,
	}
}

func (m *Memory) ObserveRequest(method, route string, status int, duration time.Duration) {
	key := method + " " + route

	m.mu.Lock()
	defer m.mu.Unlock()

	rs, ok := m.routes[key]
	if !ok {
		rs = &routeStats{statuses: make(map[int]int64)}
		m.routes[key] = rs
	}
	rs.count++
	rs.total += duration
	rs.max = max(rs.max, duration)
	rs.statuses[status]++
	if status >= 500 {
		rs.errors++
	}
}

func (m *Memory) Inc(name string) {
	m.mu.Lock()
	m.counters[name]++
	m.mu.Unlock()
}

type RouteSnapshot struct {
	Route      string        `json:"route"`
	Count      int64         `json:"count"`
	Errors     int64         `json:"errors"`
	AvgLatency time.Duration `json:"avg_latency_ns"`
	MaxLatency time.Duration `json:"max_latency_ns"`
	Statuses   map[int]int64 `json:"statuses"`
}

type Snapshot struct {
	Uptime        time.Duration    `json:"uptime_ns"`
	TotalRequests int64            `json:"total_requests"`
	TotalErrors   int64            `json:"total_errors"`
	Routes        []RouteSnapshot  `json:"routes"`
	Counters      map[string]int64 `json:"counters"`
}

// Snapshot копия текущих значений, маршруты отсортированы по числу запросов
func (m *Memory) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Uptime:   m.now().Sub(m.started),
		Counters: make(map[string]int64, len(m.counters)),
	}

	for name, v := range m.counters {
		snap.Counters[name] = v
	}

	for route, rs := range m.routes {
		statuses := make(map[int]int64, len(rs.statuses))
		for code, n := range rs.statuses {
			statuses[code] = n
		}
		snap.Routes = append(snap.Routes, RouteSnapshot{
			Route:      route,
			Count:      rs.count,
			Errors:     rs.errors,
			AvgLatency: rs.total / time.Duration(rs.count),
			MaxLatency: rs.max,
			Statuses:   statuses,
		})
		snap.TotalRequests += rs.count
		snap.TotalErrors += rs.errors
	}

	sort.Slice(snap.Routes, func(i, j int) bool {
		if snap.Routes[i].Count != snap.Routes[j].Count {
			return snap.Routes[i].Count > snap.Routes[j].Count
		}
		return snap.Routes[i].Route < snap.Routes[j].Route
	})

	return snap
}
