package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Aman-CERP/shapeshifter/internal/loader"
	"github.com/Aman-CERP/shapeshifter/internal/markov"
)

// Status describes the knowledge base and generation settings.
type Status struct {
	markov.Stats
	Cautious     bool   `json:"cautious"`
	Compensation int    `json:"compensation"`
	SampleSize   int    `json:"sample_size"`
	Source       string `json:"source,omitempty"`
	Format       string `json:"format"`
}

// Status returns a snapshot of the index and settings.
func (b *Bot) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return Status{
		Stats:        b.index.Stats(),
		Cautious:     b.gen.Cautious(),
		Compensation: b.gen.Compensation(),
		SampleSize:   b.sampleSize,
		Source:       b.source,
		Format:       b.format.String(),
	}
}

// Reply samples n generations for seed and returns them with the best one.
// n < 1 uses the configured sample size. Nothing is learned.
func (b *Bot) Reply(seed *string, n int) (markov.Sampling, error) {
	if n < 1 {
		n = b.sampleSize
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.gen.Sample(seed, n)
}

// Learn feeds text to the index.
func (b *Bot) Learn(ctx context.Context, text string, format loader.Format) (loader.Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return loader.Load(ctx, strings.NewReader(text), format, b.index)
}

// Reload re-learns the configured source. It waits for any running command.
func (b *Bot) Reload(ctx context.Context) (loader.ReinitResult, error) {
	if err := b.worker.Acquire(ctx, 1); err != nil {
		return loader.ReinitResult{}, err
	}
	defer b.worker.Release(1)

	return b.reinit(ctx, b.source, b.format)
}

func (b *Bot) reinit(ctx context.Context, location string, format loader.Format) (loader.ReinitResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.sources.Reinit(ctx, b.index, location, format)
	if err != nil {
		return res, err
	}
	b.logger.Info("knowledge_reloaded",
		slog.String("source", location),
		slog.Int("tuples", res.Tuples))
	return res, nil
}

// setOrder reconfigures the index, dropping everything learned.
func (b *Bot) setOrder(order int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Configure(order)
}

func (b *Bot) order() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.Order()
}

func (b *Bot) learnSegment(text string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.AddSegment(text)
}
