package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-amm/internal/domain"
)

// ListArtifactsParams filters the artifact listing
type ListArtifactsParams struct {
	Network string
	// Template keeps records of one template only
	Template string
	// Contains keeps identities containing the substring, case-insensitively
	Contains string
}

// ListArtifactsResult contains the matching records sorted by identity
type ListArtifactsResult struct {
	Network   string
	Artifacts []*domain.ArtifactRecord
}

// ListArtifacts lists the records persisted for a network
type ListArtifacts struct {
	stores ArtifactStoreFactory
}

// NewListArtifacts creates the use case
func NewListArtifacts(stores ArtifactStoreFactory) *ListArtifacts {
	return &ListArtifacts{stores: stores}
}

// Execute lists the records
func (uc *ListArtifacts) Execute(ctx context.Context, params ListArtifactsParams) (*ListArtifactsResult, error) {
	store, err := uc.stores.Open(params.Network)
	if err != nil {
		return nil, err
	}
	records, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	records = lo.Filter(records, func(r *domain.ArtifactRecord, _ int) bool {
		if params.Template != "" && r.TemplateName != params.Template {
			return false
		}
		return params.Contains == "" || strings.Contains(strings.ToLower(r.Identity), strings.ToLower(params.Contains))
	})
	sort.Slice(records, func(i, j int) bool { return records[i].Identity < records[j].Identity })

	return &ListArtifactsResult{Network: store.Network(), Artifacts: records}, nil
}

// ShowArtifactResult is one record with the history entry of its deployment
type ShowArtifactResult struct {
	Network string
	Record  *domain.ArtifactRecord
	// Deploy is nil for attached and reused records
	Deploy *domain.HistoryEntry
}

// ShowArtifact shows one persisted record
type ShowArtifact struct {
	stores   ArtifactStoreFactory
	history  HistoryStore
	selector InteractiveSelector
}

// NewShowArtifact creates the use case
func NewShowArtifact(stores ArtifactStoreFactory, history HistoryStore, selector InteractiveSelector) *ShowArtifact {
	return &ShowArtifact{stores: stores, history: history, selector: selector}
}

// Execute looks the record up by identity. A query that is not an exact identity matches
// identities containing it; several matches are disambiguated by the selector.
func (uc *ShowArtifact) Execute(ctx context.Context, network, query string) (*ShowArtifactResult, error) {
	store, err := uc.stores.Open(network)
	if err != nil {
		return nil, err
	}
	rec, err := uc.resolve(ctx, store, query)
	if err != nil {
		return nil, err
	}

	result := &ShowArtifactResult{Network: store.Network(), Record: rec}
	if rec.DeployTxHash == nil {
		return result, nil
	}
	log, err := uc.history.Load(ctx, store.Network())
	if err != nil || log == nil {
		return result, err
	}
	tx := rec.DeployTxHash.Hex()
	for _, session := range log.Sessions {
		for _, entry := range session.Entries {
			if entry.Type == domain.HistoryDeploy && entry.Tx == tx {
				result.Deploy = &entry
				return result, nil
			}
		}
	}
	return result, nil
}

func (uc *ShowArtifact) resolve(ctx context.Context, store ArtifactStore, query string) (*domain.ArtifactRecord, error) {
	rec, err := store.Get(ctx, query)
	if !errors.Is(err, domain.ErrNotFound) {
		return rec, err
	}

	records, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	matches := lo.Filter(records, func(r *domain.ArtifactRecord, _ int) bool {
		return strings.Contains(strings.ToLower(r.Identity), strings.ToLower(query))
	})
	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("artifact %q on %s: %w", query, store.Network(), domain.ErrNotFound)
	case len(matches) == 1:
		return matches[0], nil
	case uc.selector == nil:
		return nil, fmt.Errorf("artifact %q on %s is ambiguous: %d matches", query, store.Network(), len(matches))
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Identity < matches[j].Identity })
	return uc.selector.SelectArtifact(ctx, matches, fmt.Sprintf("Several artifacts match %q", query))
}
