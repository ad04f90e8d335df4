package history

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Follower streams run entries recorded after it starts. SaveHistory
// replaces the file by rename, so the state directory is watched rather
// than the file itself.
type Follower struct {
	stateDir string
	watcher  *fsnotify.Watcher
	// interval is the fallback poll for missed events.
	interval time.Duration

	mu     sync.Mutex
	closed bool
}

// NewFollower watches stateDir, creating it if needed.
func NewFollower(stateDir string) (*Follower, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := watcher.Add(stateDir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching state dir: %w", err)
	}
	return &Follower{stateDir: stateDir, watcher: watcher, interval: time.Second}, nil
}

// Follow returns a channel of entries newer than the newest entry present
// when it was called. The channel is closed when ctx is done or the
// Follower is closed.
func (f *Follower) Follow(ctx context.Context) (<-chan RunEntry, error) {
	h, err := LoadHistory(f.stateDir)
	if err != nil {
		return nil, err
	}
	var since time.Time
	if n := len(h.Entries); n > 0 {
		since = h.Entries[n-1].Timestamp
	}

	entries := make(chan RunEntry, 16)
	go f.loop(ctx, entries, since)
	return entries, nil
}

func (f *Follower) loop(ctx context.Context, entries chan<- RunEntry, since time.Time) {
	defer close(entries)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	path := Path(f.stateDir)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if ev.Name == path && (ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename)) {
				since = f.emitNew(ctx, entries, since)
			}
		case <-ticker.C:
			since = f.emitNew(ctx, entries, since)
		case _, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			// polling covers anything the watcher dropped
		}
	}
}

func (f *Follower) emitNew(ctx context.Context, entries chan<- RunEntry, since time.Time) time.Time {
	h, err := LoadHistory(f.stateDir)
	if err != nil {
		return since
	}
	for _, e := range h.Entries {
		if !e.Timestamp.After(since) {
			continue
		}
		select {
		case <-ctx.Done():
			return since
		case entries <- e:
			since = e.Timestamp
		}
	}
	return since
}

// Close stops the watcher. It is safe to call more than once.
func (f *Follower) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.watcher.Close()
}
