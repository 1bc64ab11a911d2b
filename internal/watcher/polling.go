package watcher

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

// PollingWatcher detects changes to one file by comparing its modification
// time and size on every tick. It is the fallback when fsnotify is not
// available, for example on some network mounts.
type PollingWatcher struct {
	interval time.Duration
	path     string
	last     fileSnapshot
	events   chan FileEvent
	stopCh   chan struct{}
	mu       sync.Mutex
	stopped  bool
}

type fileSnapshot struct {
	exists  bool
	modTime time.Time
	size    int64
}

// NewPollingWatcher creates a polling watcher for path.
func NewPollingWatcher(path string, interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		interval: interval,
		path:     path,
		events:   make(chan FileEvent, 16),
		stopCh:   make(chan struct{}),
	}
}

// Start polls until Stop is called or ctx is cancelled.
func (p *PollingWatcher) Start(ctx context.Context) error {
	p.mu.Lock()
	p.last = snapshot(p.path)
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			p.detectChange()
		}
	}
}

// Stop stops the polling watcher.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}

	p.stopped = true
	close(p.stopCh)
	close(p.events)
	return nil
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

func snapshot(path string) fileSnapshot {
	info, err := os.Stat(path)
	if err != nil {
		return fileSnapshot{}
	}
	return fileSnapshot{exists: true, modTime: info.ModTime(), size: info.Size()}
}

func (p *PollingWatcher) detectChange() {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := snapshot(p.path)
	prev := p.last
	p.last = cur

	var op Operation
	switch {
	case !prev.exists && cur.exists:
		op = OpCreate
	case prev.exists && !cur.exists:
		op = OpDelete
	case cur.exists && (cur.modTime != prev.modTime || cur.size != prev.size):
		op = OpModify
	default:
		return
	}

	if p.stopped {
		return
	}
	select {
	case p.events <- FileEvent{Path: p.path, Operation: op, Timestamp: time.Now()}:
	default:
		slog.Warn("polling_buffer_full",
			slog.String("path", p.path),
			slog.String("op", op.String()),
		)
	}
}
