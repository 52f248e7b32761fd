package progress

import (
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// NewNopSink creates a progress sink that discards everything, used with --json and
// --non-interactive
func NewNopSink() usecase.ProgressSink {
	return usecase.NopProgress{}
}

// NewSink picks the spinner sink for interactive terminals and the no-op sink otherwise
func NewSink(nonInteractive bool) usecase.ProgressSink {
	if nonInteractive {
		return NewNopSink()
	}
	return NewSpinnerSink()
}
