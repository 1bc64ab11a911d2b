package markov

import (
	"strings"
)

// DefaultOrder is the tuple length used when none is configured.
const DefaultOrder = 3

// Index is the N-gram knowledge base. All sets keep first-insertion order so
// that uniform picks over them are reproducible under a seeded Source.
type Index struct {
	order int

	known       *orderedSet[Tuple]
	following   map[Tuple]*orderedSet[string]
	preceding   map[Tuple]*orderedSet[string]
	containers  map[string]*orderedSet[Tuple]
	descriptors map[Tuple]*Descriptor
}

// Stats summarizes the index for status reporting.
type Stats struct {
	Order     int `json:"order"`
	Tuples    int `json:"tuples"`
	Tokens    int `json:"tokens"`
	Starters  int `json:"starters"`
	Finishers int `json:"finishers"`
}

// NewIndex creates an empty index for the given order.
func NewIndex(order int) (*Index, error) {
	if err := validateOrder(order); err != nil {
		return nil, err
	}
	idx := &Index{order: order}
	idx.Clear()
	return idx, nil
}

func validateOrder(order int) error {
	if order < MinOrder || order > MaxOrder {
		return invalidOrder(order)
	}
	return nil
}

// Configure sets a new order and drops everything learned so far.
// The index is left untouched when order is invalid.
func (ix *Index) Configure(order int) error {
	if err := validateOrder(order); err != nil {
		return err
	}
	ix.order = order
	ix.Clear()
	return nil
}

// Order returns the tuple length.
func (ix *Index) Order() int {
	return ix.order
}

// Clear empties the index, keeping the order.
func (ix *Index) Clear() {
	ix.known = newOrderedSet[Tuple]()
	ix.following = make(map[Tuple]*orderedSet[string])
	ix.preceding = make(map[Tuple]*orderedSet[string])
	ix.containers = make(map[string]*orderedSet[Tuple])
	ix.descriptors = make(map[Tuple]*Descriptor)
}

// KnownTupleCount returns the number of distinct tuples.
func (ix *Index) KnownTupleCount() int {
	return ix.known.len()
}

// AddSegment learns one ingestion unit. Whitespace is collapsed and the
// tokens are cut into sliding windows of Order() tokens. It reports whether
// any tuple was derived; a segment shorter than the order teaches nothing.
func (ix *Index) AddSegment(text string) bool {
	tuples := ix.derive(strings.Fields(text))
	if len(tuples) == 0 {
		return false
	}

	for i, t := range tuples {
		desc := ix.descriptors[t]
		if ix.known.add(t) {
			desc = &Descriptor{}
			ix.descriptors[t] = desc
		}

		for _, token := range t.tokens[:t.n] {
			set, ok := ix.containers[token]
			if !ok {
				set = newOrderedSet[Tuple]()
				ix.containers[token] = set
			}
			set.add(t)
		}

		if i+1 < len(tuples) {
			addCandidate(ix.following, t, tuples[i+1].Last())
		} else {
			desc.Finisher = true
		}

		if i > 0 {
			addCandidate(ix.preceding, t, tuples[i-1].First())
		} else {
			desc.Starter = true
		}
	}
	return true
}

// derive returns the sliding windows over tokens, in order.
func (ix *Index) derive(tokens []string) []Tuple {
	if len(tokens) < ix.order {
		return nil
	}
	out := make([]Tuple, 0, len(tokens)-ix.order+1)
	for i := 0; i+ix.order <= len(tokens); i++ {
		out = append(out, mustTuple(tokens[i:i+ix.order]))
	}
	return out
}

func addCandidate(m map[Tuple]*orderedSet[string], t Tuple, token string) {
	set, ok := m[t]
	if !ok {
		set = newOrderedSet[string]()
		m[t] = set
	}
	set.add(token)
}

// Following returns the tokens seen right after t.
func (ix *Index) Following(t Tuple) []string {
	return ix.following[t].values()
}

// Preceding returns the tokens seen right before t.
func (ix *Index) Preceding(t Tuple) []string {
	return ix.preceding[t].values()
}

// Containers returns every tuple containing token.
func (ix *Index) Containers(token string) []Tuple {
	return ix.containers[token].values()
}

// Descriptor returns a copy of t's flags and whether t is known.
func (ix *Index) Descriptor(t Tuple) (Descriptor, bool) {
	d, ok := ix.descriptors[t]
	if !ok {
		return Descriptor{}, false
	}
	return *d, true
}

// Tuples returns all known tuples in insertion order.
func (ix *Index) Tuples() []Tuple {
	return ix.known.values()
}

// Knows reports whether token occurs in any known tuple.
func (ix *Index) Knows(token string) bool {
	return ix.containers[token].len() > 0
}

// Stats counts tuples, distinct tokens and boundary flags.
func (ix *Index) Stats() Stats {
	s := Stats{
		Order:  ix.order,
		Tuples: ix.known.len(),
		Tokens: len(ix.containers),
	}
	for _, d := range ix.descriptors {
		if d.Starter {
			s.Starters++
		}
		if d.Finisher {
			s.Finishers++
		}
	}
	return s
}
