// Package watcher re-learns the corpus when its file changes on disk.
//
// A CorpusWatcher watches the directory holding the corpus with fsnotify
// and keeps only events for the corpus file itself, so editors that save
// through a temporary file and rename are still seen. When fsnotify is not
// available it polls the file instead. Bursts of events are coalesced by a
// Debouncer before they are delivered.
//
// Usage:
//
//	err := watcher.Watch(ctx, "corpus.txt", watcher.DefaultOptions(),
//	    func(ctx context.Context) error {
//	        _, err := b.Reload(ctx)
//	        return err
//	    })
package watcher
