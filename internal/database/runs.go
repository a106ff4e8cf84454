package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StartRun records the start of a run and returns its ID
func (db *DB) StartRun(tableName, initialState string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(`
		INSERT INTO runs (id, table_name, initial_state, result, started_at)
		VALUES (?, ?, ?, 'running', ?)
	`, id, tableName, initialState, time.Now())

	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// RecordTransition appends a transition to the run journal
func (db *DB) RecordTransition(runID string, tick int64, from, to, rule string) error {
	_, err := db.conn.Exec(`
		INSERT INTO transitions (run_id, tick, from_state, to_state, rule, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, tick, from, to, rule, time.Now())

	if err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}
	return nil
}

// RecordAlarm appends an alarm to the run journal
func (db *DB) RecordAlarm(runID, state, reason string) error {
	_, err := db.conn.Exec(`
		INSERT INTO alarms (run_id, state, reason, occurred_at)
		VALUES (?, ?, ?, ?)
	`, runID, state, reason, time.Now())

	if err != nil {
		return fmt.Errorf("failed to record alarm: %w", err)
	}
	return nil
}

// FinishRun stores the outcome of a run. runErr may be nil.
func (db *DB) FinishRun(runID, result, finalState string, ticks int64, runErr error) error {
	var message *string
	if runErr != nil {
		m := runErr.Error()
		message = &m
	}

	res, err := db.conn.Exec(`
		UPDATE runs
		SET result = ?,
		    final_state = ?,
		    ticks = ?,
		    error_message = ?,
		    finished_at = ?
		WHERE id = ?
	`, result, finalState, ticks, message, time.Now(), runID)

	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(runID string) (*Run, error) {
	row := db.conn.QueryRow(`
		SELECT id, table_name, initial_state, final_state, result, ticks,
		       error_message, started_at, finished_at
		FROM runs
		WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.Query(`
		SELECT id, table_name, initial_state, final_state, result, ticks,
		       error_message, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetTransitions returns the transitions of a run in tick order
func (db *DB) GetTransitions(runID string) ([]*Transition, error) {
	rows, err := db.conn.Query(`
		SELECT id, run_id, tick, from_state, to_state, rule, occurred_at
		FROM transitions
		WHERE run_id = ?
		ORDER BY tick, id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transitions: %w", err)
	}
	defer rows.Close()

	var transitions []*Transition
	for rows.Next() {
		var t Transition
		if err := rows.Scan(&t.ID, &t.RunID, &t.Tick, &t.FromState, &t.ToState, &t.Rule, &t.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		transitions = append(transitions, &t)
	}
	return transitions, rows.Err()
}

// GetAlarms returns the alarms raised during a run
func (db *DB) GetAlarms(runID string) ([]*Alarm, error) {
	rows, err := db.conn.Query(`
		SELECT id, run_id, state, reason, occurred_at
		FROM alarms
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get alarms: %w", err)
	}
	defer rows.Close()

	var alarms []*Alarm
	for rows.Next() {
		var a Alarm
		if err := rows.Scan(&a.ID, &a.RunID, &a.State, &a.Reason, &a.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan alarm: %w", err)
		}
		alarms = append(alarms, &a)
	}
	return alarms, rows.Err()
}

// DeleteRunsBefore removes runs started before cutoff along with their journal
func (db *DB) DeleteRunsBefore(cutoff time.Time) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var finalState, errorMessage sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(
		&run.ID,
		&run.TableName,
		&run.InitialState,
		&finalState,
		&run.Result,
		&run.Ticks,
		&errorMessage,
		&run.StartedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if finalState.Valid {
		run.FinalState = &finalState.String
	}
	if errorMessage.Valid {
		run.ErrorMessage = &errorMessage.String
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}
