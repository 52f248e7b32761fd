package interactive

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
)

func testRecords() []*domain.ArtifactRecord {
	tx := common.HexToHash("0x01")
	return []*domain.ArtifactRecord{
		{Identity: "BancorNetwork", TemplateName: "BancorNetwork", Address: common.HexToAddress("0x1"), DeployTxHash: &tx},
		{Identity: "BancorNetwork_Implementation", TemplateName: "BancorNetwork", Address: common.HexToAddress("0x2"), DeployTxHash: &tx},
		{Identity: "BNTGovernance", TemplateName: "TokenGovernance", Address: common.HexToAddress("0x3")},
	}
}

func TestFuzzySearch(t *testing.T) {
	records := testRecords()
	search := createFuzzySearchFunc(records)

	tests := []struct {
		name  string
		input string
		index int
		want  bool
	}{
		{"empty input matches all", "", 2, true},
		{"substring of identity", "network", 0, true},
		{"substring of template", "tokengov", 2, true},
		{"fuzzy subsequence", "bntgv", 2, true},
		{"no match", "vault", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, search(tt.input, tt.index))
		})
	}
}

func TestFormatArtifactOptions(t *testing.T) {
	options := formatArtifactOptions(testRecords())
	require.Len(t, options, 3)
	assert.Contains(t, options[0], "BancorNetwork")
	assert.NotContains(t, options[0], "[")
	assert.Contains(t, options[1], "BancorNetwork_Implementation")
	assert.Contains(t, options[2], "TokenGovernance")
	assert.Contains(t, options[2], "attached")
}

func TestSelectArtifact_SingleCandidate(t *testing.T) {
	s := NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true})
	records := testRecords()[:1]

	got, err := s.SelectArtifact(context.Background(), records, "pick")
	require.NoError(t, err)
	assert.Same(t, records[0], got)
}

func TestSelectArtifact_NonInteractive(t *testing.T) {
	s := NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true})

	_, err := s.SelectArtifact(context.Background(), testRecords(), "pick")
	assert.ErrorIs(t, err, ErrNonInteractive)

	_, err = s.SelectArtifact(context.Background(), nil, "pick")
	assert.Error(t, err)
}

func TestConfirm_NonInteractive(t *testing.T) {
	s := NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true})

	ok, err := s.Confirm(context.Background(), "Deploy to mainnet")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNonInteractive)
}
