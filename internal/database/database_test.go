package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal", "test.db")

	db, err := OpenJournal(dbPath)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabaseInitialization(t *testing.T) {
	db := openTestDB(t)

	version, err := db.GetVersion()
	if err != nil {
		t.Fatalf("Failed to get version: %v", err)
	}
	if version != LatestVersion() {
		t.Errorf("Expected version %d, got %d", LatestVersion(), version)
	}

	if _, err := os.Stat(db.Path()); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	// Migrations are idempotent
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
	version, _ = db.GetVersion()
	if version != LatestVersion() {
		t.Errorf("Expected version %d after rerun, got %d", LatestVersion(), version)
	}
}

func TestRunJournal(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.StartRun("arceus_reset", "INITIAL")
	if err != nil {
		t.Fatalf("Failed to start run: %v", err)
	}
	if runID == "" {
		t.Fatal("Expected a run ID")
	}

	run, err := db.GetRun(runID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if run.Result != "running" || run.FinishedAt != nil || run.Duration() != 0 {
		t.Errorf("Unexpected fresh run: %+v", run)
	}

	if err := db.RecordTransition(runID, 1, "INITIAL", "ENCOUNTER", "game loaded"); err != nil {
		t.Fatalf("Failed to record transition: %v", err)
	}
	if err := db.RecordTransition(runID, 2, "ENCOUNTER", "EXIT", "rule 2"); err != nil {
		t.Fatalf("Failed to record transition: %v", err)
	}
	if err := db.RecordAlarm(runID, "ENCOUNTER", "shiny"); err != nil {
		t.Fatalf("Failed to record alarm: %v", err)
	}

	if err := db.FinishRun(runID, "completed", "EXIT", 2, nil); err != nil {
		t.Fatalf("Failed to finish run: %v", err)
	}

	run, err = db.GetRun(runID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if run.Result != "completed" {
		t.Errorf("Expected completed, got %s", run.Result)
	}
	if run.FinalState == nil || *run.FinalState != "EXIT" {
		t.Errorf("Expected final state EXIT, got %v", run.FinalState)
	}
	if run.Ticks != 2 {
		t.Errorf("Expected 2 ticks, got %d", run.Ticks)
	}
	if run.ErrorMessage != nil {
		t.Errorf("Expected no error message, got %s", *run.ErrorMessage)
	}
	if run.FinishedAt == nil {
		t.Error("Expected finished_at to be set")
	}

	transitions, err := db.GetTransitions(runID)
	if err != nil {
		t.Fatalf("Failed to get transitions: %v", err)
	}
	if len(transitions) != 2 {
		t.Fatalf("Expected 2 transitions, got %d", len(transitions))
	}
	if transitions[0].FromState != "INITIAL" || transitions[0].ToState != "ENCOUNTER" || transitions[0].Rule != "game loaded" {
		t.Errorf("Unexpected first transition: %+v", transitions[0])
	}
	if transitions[1].Tick != 2 {
		t.Errorf("Expected tick 2, got %d", transitions[1].Tick)
	}

	alarms, err := db.GetAlarms(runID)
	if err != nil {
		t.Fatalf("Failed to get alarms: %v", err)
	}
	if len(alarms) != 1 || alarms[0].Reason != "shiny" {
		t.Errorf("Unexpected alarms: %+v", alarms)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats["runs"] != 1 || stats["transitions"] != 2 || stats["alarms"] != 1 {
		t.Errorf("Unexpected stats: %v", stats)
	}
}

func TestFailedRun(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.StartRun("ace_tournament", "MENU")
	if err != nil {
		t.Fatalf("Failed to start run: %v", err)
	}

	if err := db.FinishRun(runID, "failed", "MENU", 7, errors.New("serial port closed")); err != nil {
		t.Fatalf("Failed to finish run: %v", err)
	}

	run, _ := db.GetRun(runID)
	if run.ErrorMessage == nil || *run.ErrorMessage != "serial port closed" {
		t.Errorf("Expected error message, got %v", run.ErrorMessage)
	}

	if err := db.FinishRun("missing", "failed", "MENU", 0, nil); err == nil {
		t.Error("Expected error finishing unknown run")
	}
	if _, err := db.GetRun("missing"); err == nil {
		t.Error("Expected error getting unknown run")
	}
}

func TestListAndPruneRuns(t *testing.T) {
	db := openTestDB(t)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := db.StartRun("arceus_reset", "INITIAL")
		if err != nil {
			t.Fatalf("Failed to start run: %v", err)
		}
		ids = append(ids, id)
		time.Sleep(5 * time.Millisecond)
	}
	if err := db.RecordTransition(ids[0], 1, "INITIAL", "INITIAL", "fallback"); err != nil {
		t.Fatalf("Failed to record transition: %v", err)
	}

	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] {
		t.Errorf("Expected newest run first")
	}

	deleted, err := db.DeleteRunsBefore(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Failed to prune: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted, got %d", deleted)
	}

	transitions, _ := db.GetTransitions(ids[0])
	if len(transitions) != 0 {
		t.Errorf("Expected transitions to cascade, got %d", len(transitions))
	}
}
