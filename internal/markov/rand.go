package markov

import (
	"math/rand"
	"time"
)

// Source yields uniform integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// defaultSeed replaces a zero seed so that "unset" stays reproducible.
const defaultSeed int64 = 1

// NewSeededSource returns a deterministic Source. seed==0 uses defaultSeed.
func NewSeededSource(seed int64) Source {
	if seed == 0 {
		seed = defaultSeed
	}
	return rand.New(rand.NewSource(seed))
}

// NewRandomSource returns a time-seeded Source.
func NewRandomSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
