package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyToBucket(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want LatencyBucket
	}{
		{0, BucketP10},
		{9 * time.Millisecond, BucketP10},
		{10 * time.Millisecond, BucketP50},
		{99 * time.Millisecond, BucketP100},
		{100 * time.Millisecond, BucketP500},
		{2 * time.Second, BucketP1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LatencyToBucket(tt.d), tt.d.String())
	}
}

func TestCircularBuffer_KeepsNewest(t *testing.T) {
	// Given: a buffer of three
	b := NewCircularBuffer[int](3)

	// When: adding five items
	for i := 1; i <= 5; i++ {
		b.Add(i)
	}

	// Then: the last three remain, oldest first
	assert.Equal(t, []int{3, 4, 5}, b.Items())
	assert.Equal(t, 3, b.Size())
}

func TestCircularBuffer_Partial(t *testing.T) {
	b := NewCircularBuffer[string](4)
	b.Add("a")
	b.Add("b")

	assert.Equal(t, []string{"a", "b"}, b.Items())
}

func TestCircularBuffer_Empty(t *testing.T) {
	b := NewCircularBuffer[string](0)

	assert.Empty(t, b.Items())
	assert.Equal(t, 0, b.Size())
}

func TestReplyMetrics_Record(t *testing.T) {
	// Given: a collector
	m := NewReplyMetrics(DefaultConfig())

	// When: recording random, seeded and echoed replies
	m.Record(ReplyEvent{Entropy: 10, Latency: time.Millisecond})
	m.Record(ReplyEvent{Seed: "Cat", Entropy: 20, Latency: 20 * time.Millisecond})
	m.Record(ReplyEvent{Seed: "cat", Entropy: 30, Latency: time.Millisecond})
	m.Record(ReplyEvent{Seed: "zebra", Echoed: true, Latency: time.Millisecond})

	// Then: the snapshot aggregates them
	s := m.Snapshot()
	assert.Equal(t, int64(4), s.TotalReplies)
	assert.Equal(t, int64(3), s.SeededReplies)
	assert.Equal(t, int64(1), s.EchoedReplies)
	assert.InDelta(t, 15.0, s.AverageEntropy, 0.001)
	assert.Equal(t, int64(3), s.Latency[BucketP10])
	assert.Equal(t, int64(1), s.Latency[BucketP50])
	assert.Equal(t, []string{"zebra"}, s.UnknownSeeds)

	want := []SeedCount{{Seed: "cat", Count: 2}, {Seed: "zebra", Count: 1}}
	if diff := cmp.Diff(want, s.TopSeeds); diff != "" {
		t.Errorf("top seeds mismatch (-want +got):\n%s", diff)
	}
}

func TestReplyMetrics_SeedCapacity(t *testing.T) {
	m := NewReplyMetrics(Config{TopSeedsCapacity: 2, UnknownSeedsCapacity: 1})

	m.Record(ReplyEvent{Seed: "a", Echoed: true})
	m.Record(ReplyEvent{Seed: "b", Echoed: true})
	m.Record(ReplyEvent{Seed: "c", Echoed: true})

	s := m.Snapshot()
	require.Len(t, s.TopSeeds, 2)
	assert.Equal(t, "b", s.TopSeeds[0].Seed)
	assert.Equal(t, []string{"c"}, s.UnknownSeeds)
}

func TestReplyMetrics_EmptySnapshot(t *testing.T) {
	s := NewReplyMetrics(Config{}).Snapshot()

	assert.Zero(t, s.TotalReplies)
	assert.Zero(t, s.AverageEntropy)
	assert.Empty(t, s.TopSeeds)
	assert.Empty(t, s.UnknownSeeds)
	assert.False(t, s.Since.IsZero())
}

func TestReplyMetrics_Concurrent(t *testing.T) {
	m := NewReplyMetrics(DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.Record(ReplyEvent{Seed: "cat", Entropy: 1})
				_ = m.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(400), m.Snapshot().TotalReplies)
}
