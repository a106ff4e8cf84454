package database

import (
	"time"
)

// Run is one invocation of the state machine runner
type Run struct {
	ID           string     `db:"id"`
	TableName    string     `db:"table_name"`
	InitialState string     `db:"initial_state"`
	FinalState   *string    `db:"final_state"`
	Result       string     `db:"result"` // running, completed, exited, invalid, cancelled, failed, replay_ended
	Ticks        int64      `db:"ticks"`
	ErrorMessage *string    `db:"error_message"`
	StartedAt    time.Time  `db:"started_at"`
	FinishedAt   *time.Time `db:"finished_at"`
}

// Duration returns how long the run took, or zero while it is running
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Transition is a single state change taken by a rule
type Transition struct {
	ID         int64     `db:"id"`
	RunID      string    `db:"run_id"`
	Tick       int64     `db:"tick"`
	FromState  string    `db:"from_state"`
	ToState    string    `db:"to_state"`
	Rule       string    `db:"rule"`
	OccurredAt time.Time `db:"occurred_at"`
}

// Alarm records an operator alert raised during a run
type Alarm struct {
	ID         int64     `db:"id"`
	RunID      string    `db:"run_id"`
	State      string    `db:"state"`
	Reason     string    `db:"reason"`
	OccurredAt time.Time `db:"occurred_at"`
}
