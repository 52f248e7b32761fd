package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendEntry_Lifecycle(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := NewSession("local", ModeDevelopment, start)
	deploy := HistoryEntry{Type: HistoryDeploy, ContractName: "BNT", ContractType: "SmartToken", Tx: "0x01"}
	exec := HistoryEntry{Type: HistoryExecute, ExecutionDescription: "BNTGovernance.grantRole", Tx: "0x02"}

	state := ClassifyHistory(nil, first)
	require.IsType(t, HistoryNoFile{}, state)
	log := AppendEntry(state, first, deploy)
	require.Len(t, log.Sessions, 1)
	assert.Equal(t, "2024-05-01T12:00:00Z", log.Sessions[0].Key)
	assert.Equal(t, first.ID.String(), log.Sessions[0].SessionID)

	state = ClassifyHistory(log, first)
	require.Equal(t, HistoryHasSession{Log: log, Index: 0}, state)
	log = AppendEntry(state, first, exec)
	assert.Equal(t, []HistoryEntry{deploy, exec}, log.Sessions[0].Entries)

	second := NewSession("local", ModeDevelopment, start.Add(time.Hour))
	state = ClassifyHistory(log, second)
	require.IsType(t, HistoryNoSession{}, state)
	log = AppendEntry(state, second, deploy)

	require.Len(t, log.Sessions, 2)
	assert.Equal(t, second.ID.String(), log.Sessions[0].SessionID, "newest session first")
	assert.Len(t, log.Sessions[1].Entries, 2)
}

func TestClassifyHistory_SameKeyDifferentSession(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := NewSession("local", ModeDevelopment, now)
	b := NewSession("local", ModeDevelopment, now)

	log := AppendEntry(HistoryNoFile{}, a, HistoryEntry{Type: HistoryDeploy, Tx: "0x01"})
	assert.IsType(t, HistoryNoSession{}, ClassifyHistory(log, b))
}

func TestParseNetworkMode(t *testing.T) {
	tests := []struct {
		in      string
		want    NetworkMode
		wantErr bool
	}{
		{"", ModeDevelopment, false},
		{"production", ModeProduction, false},
		{"production-fork", ModeProductionFork, false},
		{"development", ModeDevelopment, false},
		{"staging", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNetworkMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, ModeProduction.IsProduction())
	assert.False(t, ModeProduction.AllowsTestEffects())
	assert.True(t, ModeProductionFork.AllowsTestEffects())
}
