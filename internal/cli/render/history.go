package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// HistoryRenderer renders history sessions newest first
type HistoryRenderer struct {
	out io.Writer
}

// NewHistoryRenderer creates a new history renderer
func NewHistoryRenderer(out io.Writer) *HistoryRenderer {
	return &HistoryRenderer{out: out}
}

// Render prints each session and its transactions in order
func (r *HistoryRenderer) Render(network string, sessions []domain.HistorySession) error {
	if len(sessions) == 0 {
		fmt.Fprintf(r.out, "No history recorded for %s\n", network)
		return nil
	}

	for i, s := range sessions {
		if i > 0 {
			fmt.Fprintln(r.out)
		}
		printSection(r.out, "%s", s.Key)
		faintStyle.Fprintf(r.out, "  session %s\n", s.SessionID)
		for _, e := range s.Entries {
			switch e.Type {
			case domain.HistoryDeploy:
				fmt.Fprintf(r.out, "  %s %s", templateStyle.Sprint("DEPLOY "), identityStyle.Sprint(e.ContractName))
				if e.ContractType != "" {
					fmt.Fprintf(r.out, " (%s)", e.ContractType)
				}
				fmt.Fprintln(r.out)
			default:
				fmt.Fprintf(r.out, "  %s %s\n", warnStyle.Sprint("EXECUTE"), e.ExecutionDescription)
			}
			faintStyle.Fprintf(r.out, "          %s\n", e.Tx)
		}
	}
	return nil
}
