package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Indicator shows a spinner while a long call runs. Without a terminal it
// prints a single line instead.
type Indicator struct {
	w       io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols
	spin    *spinner.Spinner
}

// NewIndicator creates an Indicator writing to w.
func NewIndicator(w io.Writer, caps TerminalCapabilities) *Indicator {
	return &Indicator{w: w, caps: caps, symbols: SelectSymbols(caps)}
}

// Start begins the wait with message.
func (i *Indicator) Start(message string) {
	if !i.caps.IsTTY {
		fmt.Fprintf(i.w, "%s...\n", message)
		return
	}
	i.spin = spinner.New(spinner.CharSets[i.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(i.w))
	i.spin.Suffix = " " + message
	i.spin.Start()
}

// Stop ends the wait and prints the outcome line.
func (i *Indicator) Stop(ok bool, message string) {
	if i.spin != nil {
		i.spin.Stop()
		i.spin = nil
	}
	mark, paint := i.symbols.Checkmark, color.New(color.FgGreen)
	if !ok {
		mark, paint = i.symbols.Failure, color.New(color.FgRed)
	}
	if i.caps.SupportsColor {
		mark = paint.Sprint(mark)
	}
	fmt.Fprintf(i.w, "%s %s\n", mark, message)
}
