package interactive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

// ErrNonInteractive is returned when a prompt is needed but prompting is disabled
var ErrNonInteractive = errors.New("interactive prompt not available in non-interactive mode")

// SelectorAdapter handles interactive selection and confirmation
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectArtifact selects a record from a list
func (s *SelectorAdapter) SelectArtifact(ctx context.Context, records []*domain.ArtifactRecord, prompt string) (*domain.ArtifactRecord, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no artifacts provided for selection")
	}
	if len(records) == 1 {
		return records[0], nil
	}
	if s.config.NonInteractive {
		return nil, fmt.Errorf("%s: %w", prompt, ErrNonInteractive)
	}

	options := formatArtifactOptions(records)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:             prompt,
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          createFuzzySearchFunc(records),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}
	return records[index], nil
}

// Confirm asks a yes/no question; anything but yes declines
func (s *SelectorAdapter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if s.config.NonInteractive {
		return false, fmt.Errorf("%s (pass --yes to confirm): %w", prompt, ErrNonInteractive)
	}

	confirm := promptui.Prompt{
		Label:     prompt,
		IsConfirm: true,
	}
	if _, err := confirm.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}
	return true, nil
}

// formatArtifactOptions creates display strings as "Identity Template (address)"
func formatArtifactOptions(records []*domain.ArtifactRecord) []string {
	options := make([]string, len(records))
	for i, rec := range records {
		identity := color.New(color.FgWhite, color.Bold).Sprint(rec.Identity)
		address := color.New(color.FgBlue).Sprint(rec.Address.Hex())

		var indicators []string
		if rec.TemplateName != "" && rec.TemplateName != rec.Identity {
			indicators = append(indicators, rec.TemplateName)
		}
		if rec.Attached() {
			indicators = append(indicators, "attached")
		}
		if len(indicators) > 0 {
			indicatorStr := color.New(color.FgYellow).Sprintf("[%s]", strings.Join(indicators, ", "))
			options[i] = fmt.Sprintf("%s %s (%s)", identity, indicatorStr, address)
		} else {
			options[i] = fmt.Sprintf("%s (%s)", identity, address)
		}
	}
	return options
}

// createFuzzySearchFunc matches the search input against identities, ignoring color codes
func createFuzzySearchFunc(records []*domain.ArtifactRecord) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(records[index].Identity + " " + records[index].TemplateName)

		if strings.Contains(item, input) {
			return true
		}

		return len(fuzzy.Find(input, []string{item})) > 0
	}
}

var (
	_ usecase.InteractiveSelector = (*SelectorAdapter)(nil)
	_ usecase.Confirmer           = (*SelectorAdapter)(nil)
)
