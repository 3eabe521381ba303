package models

// LogEntryType classifies entries in a session's public event log.
type LogEntryType string

const (
	LogSystem        LogEntryType = "system"
	LogInvestigation LogEntryType = "investigation"
	LogInterrogation LogEntryType = "interrogation"
	LogAccusation    LogEntryType = "accusation"
	LogResponse      LogEntryType = "response"
	LogResponseEmpty LogEntryType = "response_empty"
	LogFailure       LogEntryType = "failure"
)

// LogEntry is one line of the append-only session log. IDs are millisecond
// timestamps, bumped when two entries land in the same millisecond so they
// stay strictly increasing.
type LogEntry struct {
	ID   int64        `json:"id"`
	Text string       `json:"text"`
	Type LogEntryType `json:"type"`
}
