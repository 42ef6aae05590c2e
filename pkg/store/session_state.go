package store

import "time"

// SessionState is the short-lived per-session memory the pipeline keeps
// between turns. It never outlives the process; durable history lives in
// the conversation store.
type SessionState struct {
	ID             string
	LastIntent     string
	LastQuery      string
	RewrittenQuery string
	TurnCount      int
	UpdatedAt      time.Time
}
