// Package markov implements the bidirectional N-gram knowledge base.
//
// Text is cut into fixed-length token windows (tuples). For every tuple the
// Index records which tokens were seen right after it and right before it,
// which tuples contain a given token, and whether the tuple ever opened or
// closed an ingested segment.
//
// The Generator picks an anchor tuple (one containing the seed token when
// there is one) and random-walks the index forward until it reaches a
// finisher tuple and backward until it reaches a starter tuple. Each step
// adds (candidates - 1 + compensation) to the result's entropy score, which
// callers use to pick the best of several generations.
//
// Neither type is safe for concurrent mutation. Concurrent generations are
// safe as long as no ingestion is interleaved; callers serialize with a
// reader/writer lock (see internal/bot).
package markov
