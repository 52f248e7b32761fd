package domain

// HistoryEntryType tags a history entry
type HistoryEntryType string

const (
	HistoryDeploy  HistoryEntryType = "DEPLOY"
	HistoryExecute HistoryEntryType = "EXECUTE"
)

// HistoryEntry is one transaction recorded in a session
type HistoryEntry struct {
	Type HistoryEntryType `json:"type"`

	// DEPLOY fields
	ContractName      string   `json:"contractName,omitempty"`
	ContractType      string   `json:"contractType,omitempty"`
	ConstructorParams []string `json:"constructorParams,omitempty"`

	// EXECUTE fields
	ExecutionDescription string `json:"executionDescription,omitempty"`

	Tx string `json:"tx"`
}

// HistorySession holds the entries of one session in order
type HistorySession struct {
	Key       string         `json:"session"`
	SessionID string         `json:"sessionId"`
	Entries   []HistoryEntry `json:"entries"`
}

// HistoryLog is the per-network history file; the newest session comes first
type HistoryLog struct {
	Sessions []HistorySession `json:"sessions"`
}

// HistoryFileState is the state of the history file with respect to a session
type HistoryFileState interface {
	historyFileState()
}

// HistoryNoFile means no history file exists yet
type HistoryNoFile struct{}

// HistoryNoSession means the file exists without the current session
type HistoryNoSession struct {
	Log *HistoryLog
}

// HistoryHasSession means the file already holds the current session at Index
type HistoryHasSession struct {
	Log   *HistoryLog
	Index int
}

func (HistoryNoFile) historyFileState()     {}
func (HistoryNoSession) historyFileState()  {}
func (HistoryHasSession) historyFileState() {}

// ClassifyHistory determines the file state for session; log is nil when no file exists
func ClassifyHistory(log *HistoryLog, session *Session) HistoryFileState {
	if log == nil {
		return HistoryNoFile{}
	}
	for i, s := range log.Sessions {
		if s.Key == session.Key() && s.SessionID == session.ID.String() {
			return HistoryHasSession{Log: log, Index: i}
		}
	}
	return HistoryNoSession{Log: log}
}

// AppendEntry adds entry under session according to the file state and returns the updated log
func AppendEntry(state HistoryFileState, session *Session, entry HistoryEntry) *HistoryLog {
	newSession := HistorySession{
		Key:       session.Key(),
		SessionID: session.ID.String(),
		Entries:   []HistoryEntry{entry},
	}

	switch s := state.(type) {
	case HistoryNoFile:
		return &HistoryLog{Sessions: []HistorySession{newSession}}
	case HistoryNoSession:
		s.Log.Sessions = append([]HistorySession{newSession}, s.Log.Sessions...)
		return s.Log
	case HistoryHasSession:
		s.Log.Sessions[s.Index].Entries = append(s.Log.Sessions[s.Index].Entries, entry)
		return s.Log
	}
	panic("unreachable history file state")
}
