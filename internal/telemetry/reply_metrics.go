// Package telemetry keeps in-memory statistics about generated replies.
// Nothing is persisted or reported anywhere.
package telemetry

import (
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LatencyBucket is a histogram bucket for reply latency.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// ReplyEvent describes one generated reply.
type ReplyEvent struct {
	// Seed is the word the reply was grown around, "" for a random reply.
	Seed string
	// Echoed is set when an unknown seed was echoed back as a question.
	Echoed     bool
	Entropy    int
	Candidates int
	Latency    time.Duration
}

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	mu       sync.RWMutex
	items    []T
	head     int
	size     int
	capacity int
}

// NewCircularBuffer creates a buffer holding the last capacity items.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add appends item, evicting the oldest one when full.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Items returns the buffered items, oldest first.
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]T, b.size)
	if b.size < b.capacity {
		copy(result, b.items[:b.size])
	} else {
		n := copy(result, b.items[b.head:])
		copy(result[n:], b.items[:b.head])
	}
	return result
}

// Size returns the number of buffered items.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// SeedCount is a seed word and how often it was asked for.
type SeedCount struct {
	Seed  string `json:"seed"`
	Count int64  `json:"count"`
}

// Snapshot is a point-in-time copy of the metrics.
type Snapshot struct {
	TotalReplies   int64                   `json:"total_replies"`
	SeededReplies  int64                   `json:"seeded_replies"`
	EchoedReplies  int64                   `json:"echoed_replies"`
	AverageEntropy float64                 `json:"average_entropy"`
	Latency        map[LatencyBucket]int64 `json:"latency"`
	TopSeeds       []SeedCount             `json:"top_seeds"`
	UnknownSeeds   []string                `json:"unknown_seeds"`
	Since          time.Time               `json:"since"`
}

// Config sizes the metric collections.
type Config struct {
	// TopSeedsCapacity bounds the number of distinct seeds counted.
	TopSeedsCapacity int
	// UnknownSeedsCapacity is how many echoed seeds are remembered.
	UnknownSeedsCapacity int
}

// DefaultConfig returns the default sizes.
func DefaultConfig() Config {
	return Config{
		TopSeedsCapacity:     100,
		UnknownSeedsCapacity: 50,
	}
}

// ReplyMetrics aggregates ReplyEvents. Safe for concurrent use.
type ReplyMetrics struct {
	mu sync.Mutex

	total        int64
	seeded       int64
	echoed       int64
	entropySum   int64
	latencies    map[LatencyBucket]int64
	seeds        *lru.Cache[string, int64]
	unknownSeeds *CircularBuffer[string]
	start        time.Time
}

// NewReplyMetrics creates an empty collector.
func NewReplyMetrics(cfg Config) *ReplyMetrics {
	def := DefaultConfig()
	if cfg.TopSeedsCapacity <= 0 {
		cfg.TopSeedsCapacity = def.TopSeedsCapacity
	}
	if cfg.UnknownSeedsCapacity <= 0 {
		cfg.UnknownSeedsCapacity = def.UnknownSeedsCapacity
	}

	seeds, _ := lru.New[string, int64](cfg.TopSeedsCapacity)
	return &ReplyMetrics{
		latencies:    make(map[LatencyBucket]int64),
		seeds:        seeds,
		unknownSeeds: NewCircularBuffer[string](cfg.UnknownSeedsCapacity),
		start:        time.Now(),
	}
}

// Record adds one reply.
func (m *ReplyMetrics) Record(e ReplyEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.entropySum += int64(e.Entropy)
	m.latencies[LatencyToBucket(e.Latency)]++

	seed := strings.ToLower(strings.TrimSpace(e.Seed))
	if seed == "" {
		return
	}
	m.seeded++
	count, _ := m.seeds.Get(seed)
	m.seeds.Add(seed, count+1)

	if e.Echoed {
		m.echoed++
		m.unknownSeeds.Add(seed)
	}
}

// Snapshot returns the current metrics. TopSeeds is sorted by count, then
// alphabetically.
func (m *ReplyMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	top := make([]SeedCount, 0, m.seeds.Len())
	for _, seed := range m.seeds.Keys() {
		if count, ok := m.seeds.Peek(seed); ok {
			top = append(top, SeedCount{Seed: seed, Count: count})
		}
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Seed < top[j].Seed
	})

	var avg float64
	if m.total > 0 {
		avg = float64(m.entropySum) / float64(m.total)
	}

	return Snapshot{
		TotalReplies:   m.total,
		SeededReplies:  m.seeded,
		EchoedReplies:  m.echoed,
		AverageEntropy: avg,
		Latency:        latencies,
		TopSeeds:       top,
		UnknownSeeds:   m.unknownSeeds.Items(),
		Since:          m.start,
	}
}
