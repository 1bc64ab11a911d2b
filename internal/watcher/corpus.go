package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
)

// CorpusWatcher reports changes to a single corpus file.
type CorpusWatcher struct {
	fsWatcher      *fsnotify.Watcher
	poller         *PollingWatcher
	debouncer      *Debouncer
	target         string
	events         chan []FileEvent
	errors         chan error
	stopCh         chan struct{}
	mu             sync.RWMutex
	stopped        bool
	droppedBatches atomic.Uint64
}

// New creates a watcher for the file at path. The file itself may be
// missing, but its directory must exist.
func New(path string, opts Options) (*CorpusWatcher, error) {
	opts = opts.WithDefaults()

	if path == "" {
		return nil, shaperrors.ValidationError("no corpus file to watch", nil)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, shaperrors.ValidationError(fmt.Sprintf("invalid corpus path %q", path), err)
	}
	if info, err := os.Stat(filepath.Dir(abs)); err != nil || !info.IsDir() {
		return nil, shaperrors.New(shaperrors.ErrCodeSourceNotFound,
			fmt.Sprintf("directory of %s does not exist", abs), err)
	}

	w := &CorpusWatcher{
		debouncer: NewDebouncer(opts.DebounceWindow),
		target:    abs,
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			w.fsWatcher = fsw
		} else {
			slog.Warn("fsnotify_unavailable", slog.String("error", err.Error()))
		}
	}
	if w.fsWatcher == nil {
		w.poller = NewPollingWatcher(abs, opts.PollInterval)
	}

	return w, nil
}

// Path returns the absolute path being watched.
func (w *CorpusWatcher) Path() string {
	return w.target
}

// Type returns "fsnotify" or "polling".
func (w *CorpusWatcher) Type() string {
	if w.fsWatcher != nil {
		return "fsnotify"
	}
	return "polling"
}

// Start watches until Stop is called or ctx is cancelled.
func (w *CorpusWatcher) Start(ctx context.Context) error {
	go w.forwardDebouncedEvents(ctx)

	if w.fsWatcher != nil {
		return w.startFsnotify(ctx)
	}
	return w.startPolling(ctx)
}

// startFsnotify watches the parent directory so that a file replaced by
// rename keeps being observed.
func (w *CorpusWatcher) startFsnotify(ctx context.Context) error {
	if err := w.fsWatcher.Add(filepath.Dir(w.target)); err != nil {
		return shaperrors.IOError("cannot watch corpus directory", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

func (w *CorpusWatcher) startPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case event, ok := <-w.poller.Events():
				if !ok {
					return
				}
				w.debouncer.Add(event)
			}
		}
	}()

	return w.poller.Start(ctx)
}

func (w *CorpusWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.target {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      w.target,
		Operation: op,
		Timestamp: time.Now(),
	})
}

func (w *CorpusWatcher) forwardDebouncedEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case events, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			if len(events) > 0 {
				w.emitEvents(events)
			}
		}
	}
}

// emitEvents holds the read lock across the send so Stop cannot close the
// channel underneath it.
func (w *CorpusWatcher) emitEvents(events []FileEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return
	}

	select {
	case w.events <- events:
	default:
		count := w.droppedBatches.Add(1)
		slog.Warn("watcher_buffer_full",
			slog.Int("batch_size", len(events)),
			slog.Uint64("total_dropped_batches", count),
		)
	}
}

func (w *CorpusWatcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return
	}

	select {
	case w.errors <- err:
	default:
	}
}

// DroppedBatches returns the number of batches dropped on a full buffer.
func (w *CorpusWatcher) DroppedBatches() uint64 {
	return w.droppedBatches.Load()
}

// Stop stops the watcher and releases resources.
// Safe to call multiple times.
func (w *CorpusWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}

	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()

	if w.fsWatcher != nil {
		_ = w.fsWatcher.Close()
	}
	if w.poller != nil {
		_ = w.poller.Stop()
	}

	close(w.events)
	close(w.errors)
	return nil
}

// Events returns the channel of debounced batches.
func (w *CorpusWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns the channel of non-fatal watcher errors.
func (w *CorpusWatcher) Errors() <-chan error {
	return w.errors
}

// ReloadFunc re-learns the corpus.
type ReloadFunc func(ctx context.Context) error

// Watch calls reload each time the file at path settles after a change,
// until ctx is cancelled. A batch ending with the file gone is skipped.
func Watch(ctx context.Context, path string, opts Options, reload ReloadFunc) error {
	w, err := New(path, opts)
	if err != nil {
		return err
	}

	slog.Info("watcher_started",
		slog.String("path", w.Path()),
		slog.String("type", w.Type()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := w.Start(gctx)
		if gctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return w.Stop()
			case batch, ok := <-w.Events():
				if !ok {
					return nil
				}
				w.apply(gctx, batch, reload)
			case err, ok := <-w.Errors():
				if !ok {
					return nil
				}
				slog.Warn("watcher_error", slog.String("error", err.Error()))
			}
		}
	})

	err = g.Wait()
	slog.Info("watcher_stopped", slog.String("path", w.Path()))
	return err
}

func (w *CorpusWatcher) apply(ctx context.Context, batch []FileEvent, reload ReloadFunc) {
	last := batch[len(batch)-1]
	if last.Operation.Gone() {
		slog.Warn("corpus_removed",
			slog.String("path", last.Path),
			slog.String("op", last.Operation.String()),
		)
		return
	}

	start := time.Now()
	if err := reload(ctx); err != nil {
		slog.Error("corpus_reload_failed", shaperrors.LogAttrs(err)...)
		return
	}
	slog.Info("corpus_reloaded",
		slog.String("path", last.Path),
		slog.String("op", last.Operation.String()),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}
