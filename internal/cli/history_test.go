package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/codebuilder/internal/history"
)

func seedHistory(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	now := time.Now()
	require.NoError(t, history.SaveHistory(dir, &history.HistoryFile{Entries: []history.RunEntry{
		{Timestamp: now.Add(-2 * time.Hour), ExecutionARN: "arn:1", BuildID: "codebuilder:1", BuildLink: "https://link/1"},
		{Timestamp: now.Add(-time.Hour), ExecutionARN: "arn:2", Error: "buildId not found"},
		{Timestamp: now, ExecutionARN: "arn:3", BuildID: "codebuilder:3", BuildLink: "https://link/3"},
	}}))
	return dir
}

func TestRunHistory(t *testing.T) {
	color.NoColor = true

	tests := map[string]struct {
		opts       historyOptions
		wantLines  int
		wantOut    []string
		wantAbsent []string
		wantErr    bool
	}{
		"all entries": {
			wantLines: 3,
			wantOut:   []string{"codebuilder:1", "https://link/3", "failed", "buildId not found"},
		},
		"limit keeps most recent": {
			opts:       historyOptions{limit: 1},
			wantLines:  1,
			wantOut:    []string{"codebuilder:3"},
			wantAbsent: []string{"codebuilder:1"},
		},
		"ids only": {
			opts:      historyOptions{idsOnly: true},
			wantLines: 2,
			wantOut:   []string{"codebuilder:1\ncodebuilder:3\n"},
		},
		"negative limit": {
			opts:    historyOptions{limit: -1},
			wantErr: true,
		},
		"clear with follow": {
			opts:    historyOptions{clear: true, follow: true},
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			dir := seedHistory(t)

			var out bytes.Buffer
			err := runHistory(context.Background(), &out, dir, tc.opts)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
			assert.Len(t, lines, tc.wantLines)
			for _, s := range tc.wantOut {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tc.wantAbsent {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}

func TestRunHistory_EmptyAndClear(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, runHistory(context.Background(), &out, t.TempDir(), historyOptions{}))
	assert.Equal(t, "No history available.\n", out.String())

	dir := seedHistory(t)
	out.Reset()
	require.NoError(t, runHistory(context.Background(), &out, dir, historyOptions{clear: true}))
	assert.Equal(t, "History cleared.\n", out.String())

	h, err := history.LoadHistory(dir)
	require.NoError(t, err)
	assert.Empty(t, h.Entries)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunHistory_Follow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- runHistory(ctx, out, dir, historyOptions{idsOnly: true, follow: true})
	}()

	w := history.NewWriter(dir, 10, nil)
	assert.Eventually(t, func() bool {
		w.LogEntry(history.RunEntry{Timestamp: time.Now(), ExecutionARN: "arn:1", BuildID: "codebuilder:9"})
		return strings.Contains(out.String(), "codebuilder:9")
	}, 5*time.Second, 200*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not stop")
	}
}
