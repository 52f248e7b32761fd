package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// SpinnerSink renders orchestration progress: a spinner while transactions are in flight and
// one status line per finished step
type SpinnerSink struct {
	mu      sync.Mutex
	out     io.Writer
	spinner *spinner.Spinner
	started time.Time
}

// NewSpinnerSink creates a spinner-based progress sink writing to stderr
func NewSpinnerSink() *SpinnerSink {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.HideCursor = false
	return &SpinnerSink{out: os.Stderr, spinner: s}
}

// OnProgress handles progress events
func (r *SpinnerSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Spinner {
		r.spinner.Suffix = " " + event.Message
		if !r.spinner.Active() {
			r.spinner.Start()
		}
		return
	}
	if r.spinner.Active() {
		r.spinner.Stop()
	}

	switch event.Stage {
	case usecase.StagePlan:
		r.started = time.Now()
		r.println(color.New(color.FgCyan, color.Bold), event.Message)
	case usecase.StageStep:
		r.println(color.New(color.FgWhite, color.Faint), fmt.Sprintf("[%d/%d] %s", event.Current, event.Total, event.Message))
	case usecase.StageDecision:
		if reason, ok := event.Metadata.(string); ok && reason != "" {
			r.println(color.New(color.FgYellow), fmt.Sprintf("  ⊘ %s (%s)", event.Message, reason))
		}
	case usecase.StageDeployed, usecase.StageExecuted:
		r.println(color.New(color.FgGreen), "  ✓ "+event.Message)
	case usecase.StageVerifying, usecase.StageFormula:
		r.println(color.New(color.FgWhite, color.Faint), "  • "+event.Message)
	case usecase.StageCompleted:
		msg := event.Message
		if !r.started.IsZero() {
			msg = fmt.Sprintf("%s (%s)", msg, time.Since(r.started).Round(time.Millisecond))
		}
		r.println(color.New(color.FgGreen, color.Bold), "✓ "+msg)
	case usecase.StageForkStop:
		r.println(color.New(color.FgWhite, color.Faint), event.Message)
	}
}

// Info prints an info message
func (r *SpinnerSink) Info(message string) {
	r.pause(func() { r.println(color.New(color.FgCyan), message) })
}

// Error prints an error message
func (r *SpinnerSink) Error(message string) {
	r.pause(func() { r.println(color.New(color.FgRed), message) })
}

// pause stops the spinner while fn writes and restarts it afterwards
func (r *SpinnerSink) pause(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	fn()
	if wasActive {
		r.spinner.Start()
	}
}

func (r *SpinnerSink) println(c *color.Color, msg string) {
	_, _ = c.Fprintln(r.out, msg)
}

var _ usecase.ProgressSink = (*SpinnerSink)(nil)
