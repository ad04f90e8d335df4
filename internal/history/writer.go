package history

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ariel-frischer/codebuilder/internal/launcher"
)

// Writer appends run entries to the history file and prunes the oldest ones.
type Writer struct {
	// StateDir is the directory containing the history file.
	StateDir string
	// MaxEntries is the maximum number of entries to retain. Zero keeps all.
	MaxEntries int

	mu     sync.Mutex
	logger *zap.Logger
	now    func() time.Time
}

// NewWriter creates a new history writer.
func NewWriter(stateDir string, maxEntries int, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		StateDir:   stateDir,
		MaxEntries: maxEntries,
		logger:     logger.Named("history"),
		now:        time.Now,
	}
}

// LogEntry adds an entry to the history file. Failures are logged, never
// returned.
func (w *Writer) LogEntry(entry RunEntry) {
	if err := w.append(entry); err != nil {
		w.logger.Warn("failed to record run", zap.String("state_dir", w.StateDir), zap.Error(err))
	}
}

// LogRun records the outcome of a launcher run. res may be nil when the
// execution never started.
func (w *Writer) LogRun(res *launcher.Result, commit string, runErr error) {
	if res == nil {
		return
	}
	entry := RunEntry{
		Timestamp:    w.now(),
		ExecutionARN: res.ExecutionARN,
		BuildID:      res.BuildID,
		BuildLink:    res.BuildLink,
		Commit:       commit,
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	w.LogEntry(entry)
}

func (w *Writer) append(entry RunEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	h, err := LoadHistory(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	h.Entries = append(h.Entries, entry)

	// Prune oldest entries if over limit
	if w.MaxEntries > 0 && len(h.Entries) > w.MaxEntries {
		excess := len(h.Entries) - w.MaxEntries
		h.Entries = h.Entries[excess:]
	}

	if err := SaveHistory(w.StateDir, h); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}
