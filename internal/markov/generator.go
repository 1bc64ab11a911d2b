package markov

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// EmptyReply is returned when the index has not learned anything.
const EmptyReply = "I ain't lern mysellf w00t. u teach me!"

// DefaultCompensation is the per-step score bonus.
const DefaultCompensation = 7

// Options configures a Generator.
type Options struct {
	// Cautious answers an unknown seed by echoing it as a question
	// instead of walking from a random anchor.
	Cautious bool

	// Compensation is added to the score for every walk step.
	Compensation int

	// Rand drives every random choice. Nil means time-seeded.
	Rand Source
}

// DefaultOptions returns cautious generation with the default compensation.
func DefaultOptions() Options {
	return Options{
		Cautious:     true,
		Compensation: DefaultCompensation,
	}
}

// Result is one generated sentence and its entropy score.
type Result struct {
	Sentence string `json:"sentence"`
	Entropy  int    `json:"entropy"`
	// Echoed is set when Sentence is the cautious echo of an unknown seed.
	Echoed bool `json:"echoed,omitempty"`
}

// String renders the result the way candidates are logged: "[entropy]\tsentence".
func (r Result) String() string {
	return fmt.Sprintf("[%d]\t%s", r.Entropy, r.Sentence)
}

// Sampling is the outcome of Sample.
type Sampling struct {
	Best       Result
	Candidates []Result
}

// Generator random-walks an Index. It only reads the index.
type Generator struct {
	index *Index

	cautious     atomic.Bool
	compensation atomic.Int64

	mu  sync.Mutex // guards rnd
	rnd Source

	logger *slog.Logger
}

// NewGenerator creates a generator over idx.
func NewGenerator(idx *Index, opts Options) *Generator {
	rnd := opts.Rand
	if rnd == nil {
		rnd = NewRandomSource()
	}
	g := &Generator{
		index:  idx,
		rnd:    rnd,
		logger: slog.Default(),
	}
	g.cautious.Store(opts.Cautious)
	g.compensation.Store(int64(opts.Compensation))
	return g
}

// SetCautious toggles the cautious reply policy.
func (g *Generator) SetCautious(on bool) {
	g.cautious.Store(on)
}

// Cautious reports whether the cautious reply policy is on.
func (g *Generator) Cautious() bool {
	return g.cautious.Load()
}

// SetCompensation sets the per-step score bonus.
func (g *Generator) SetCompensation(n int) {
	g.compensation.Store(int64(n))
}

// Compensation returns the per-step score bonus.
func (g *Generator) Compensation() int {
	return int(g.compensation.Load())
}

// Intn draws from the generator's Source, so that callers sharing the
// generator's randomness stay reproducible under a seeded Source.
func (g *Generator) Intn(n int) int {
	return g.intn(n)
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Intn(n)
}

// Generate produces one sentence. A nil seed anchors the walk on any known
// tuple; otherwise the anchor is a tuple containing *seed when the index knows
// it. Only an index inconsistency is reported as an error.
func (g *Generator) Generate(seed *string) (Result, error) {
	ix := g.index
	if ix.KnownTupleCount() == 0 {
		return Result{Sentence: EmptyReply}, nil
	}

	known := seed == nil || ix.Knows(*seed)
	if !known && g.Cautious() {
		return Result{Sentence: cautiousReply(*seed), Echoed: true}, nil
	}

	pool := ix.known
	if seed != nil && known {
		pool = ix.containers[*seed]
	}
	anchor := pool.at(g.intn(pool.len()))

	comp := g.Compensation()
	entropy := 0

	// Tokens appended after the anchor, and tokens prepended before it
	// (stored in walk order, reversed on join).
	var tail, head []string

	current := anchor
	for {
		desc, ok := ix.descriptors[current]
		if !ok {
			return Result{}, inconsistency("no descriptor for %s", current)
		}
		if desc.Finisher {
			break
		}
		candidates := ix.following[current]
		k := candidates.len()
		if k == 0 {
			return Result{}, inconsistency("no following candidates for non-finisher %s", current)
		}
		entropy += k - 1 + comp
		next := candidates.at(g.intn(k))
		tail = append(tail, next)

		shifted := current.ShiftRight(next)
		if !ix.known.contains(shifted) {
			return Result{}, inconsistency("shifted tuple %s not indexed", shifted)
		}
		current = shifted
	}

	current = anchor
	for {
		desc, ok := ix.descriptors[current]
		if !ok {
			return Result{}, inconsistency("no descriptor for %s", current)
		}
		if desc.Starter {
			break
		}
		candidates := ix.preceding[current]
		k := candidates.len()
		if k == 0 {
			return Result{}, inconsistency("no preceding candidates for non-starter %s", current)
		}
		entropy += k - 1 + comp
		prev := candidates.at(g.intn(k))
		head = append(head, prev)

		shifted := current.ShiftLeft(prev)
		if !ix.known.contains(shifted) {
			return Result{}, inconsistency("shifted tuple %s not indexed", shifted)
		}
		current = shifted
	}

	words := make([]string, 0, len(head)+anchor.Len()+len(tail))
	for i := len(head) - 1; i >= 0; i-- {
		words = append(words, head[i])
	}
	words = append(words, anchor.tokens[:anchor.n]...)
	words = append(words, tail...)

	g.logger.Debug("generated",
		"anchor", anchor.String(),
		"tokens", len(words),
		"entropy", entropy)

	return Result{Sentence: strings.Join(words, " "), Entropy: entropy}, nil
}

// Sample runs n independent generations and keeps the one with the highest
// entropy. The earliest candidate wins a tie. n < 1 is treated as 1.
func (g *Generator) Sample(seed *string, n int) (Sampling, error) {
	if n < 1 {
		n = 1
	}
	s := Sampling{Candidates: make([]Result, 0, n)}
	bestEntropy := -1
	for i := 0; i < n; i++ {
		r, err := g.Generate(seed)
		if err != nil {
			return Sampling{}, err
		}
		s.Candidates = append(s.Candidates, r)
		if r.Entropy > bestEntropy {
			bestEntropy = r.Entropy
			s.Best = r
		}
	}
	return s, nil
}

// cautiousReply echoes an unknown seed as a question. Only a trailing '?' is
// recognized; "wat." becomes "wat.?".
func cautiousReply(seed string) string {
	if strings.HasSuffix(seed, "?") {
		return seed
	}
	return seed + "?"
}
