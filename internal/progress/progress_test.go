package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectSymbols(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		caps TerminalCapabilities
		want ProgressSymbols
	}{
		"unicode": {
			caps: TerminalCapabilities{IsTTY: true, SupportsUnicode: true},
			want: ProgressSymbols{Checkmark: "✓", Failure: "✗", SpinnerSet: 14},
		},
		"ascii": {
			caps: TerminalCapabilities{},
			want: ProgressSymbols{Checkmark: "[OK]", Failure: "[FAIL]", SpinnerSet: 9},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, SelectSymbols(tc.caps))
		})
	}
}

func TestIndicator_NoTTY(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ind := NewIndicator(&buf, TerminalCapabilities{})

	ind.Start("Waiting for build")
	ind.Stop(true, "build started")
	ind.Start("Waiting again")
	ind.Stop(false, "no build")

	assert.Equal(t,
		"Waiting for build...\n[OK] build started\nWaiting again...\n[FAIL] no build\n",
		buf.String())
}

func TestIndicator_TTY(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ind := NewIndicator(&buf, TerminalCapabilities{IsTTY: true, SupportsUnicode: true})

	ind.Start("Waiting for build")
	ind.Stop(true, "build started")

	assert.Contains(t, buf.String(), "✓ build started")
}
