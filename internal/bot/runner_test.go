package bot

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"jordanella.com/switch-farm-go/internal/actions"
	"jordanella.com/switch-farm-go/internal/controller"
	"jordanella.com/switch-farm-go/internal/cv"
	"jordanella.com/switch-farm-go/internal/database"
	"jordanella.com/switch-farm-go/internal/events"
	"jordanella.com/switch-farm-go/internal/monitor"
)

func pressTable(t *testing.T) *actions.StateTable {
	t.Helper()
	table, err := actions.NewTableBuilder("press-x").Initial("A").
		State("A", actions.On(actions.MatchPixel(cv.Point{Y: 0, X: 0}, red), actions.NewActionBuilder().Press('X', 0), "B")).
		State("B", actions.On(actions.AlwaysMatches(), actions.NewActionBuilder().Exit(), actions.Exit)).
		Build()
	require.NoError(t, err)
	return table
}

func TestRunPressScenario(t *testing.T) {
	h := newHarness(t, Devices{}, solid(black), solid(red))

	result, err := NewRunner(h.bot).Run(pressTable(t))
	require.NoError(t, err)

	assert.Equal(t, StatusExited, result.Status)
	assert.Equal(t, 0, result.ExitCode())
	assert.Equal(t, actions.StateName("B"), result.FinalState)
	assert.Equal(t, int64(3), result.Ticks)
	assert.Equal(t, int64(1), result.Stats.Transitions)
	assert.Equal(t, int64(1), result.Stats.SelfLoops)
	assert.Equal(t, int64(2), result.Stats.Visits["A"])

	// One press, then the cleanup release
	assert.Equal(t, "X0"+"0.", h.sent())
	assert.True(t, h.bot.RoutineController().IsStopped())
}

func TestRunSelfLoopUntilCancelled(t *testing.T) {
	table, err := actions.NewTableBuilder("poll").Initial("A").
		State("A", actions.On(actions.AlwaysMatches(), actions.NoOp, "A")).
		Build()
	require.NoError(t, err)

	h := newHarness(t, Devices{}, solid(black)).cancelAfter(50)

	result, err := NewRunner(h.bot).Run(table)
	require.NoError(t, err, "cancellation is a clean stop")

	assert.Equal(t, StatusCancelled, result.Status)
	assert.Equal(t, 0, result.ExitCode())
	assert.Equal(t, int64(49), result.Ticks)
	assert.Equal(t, int64(49), result.Stats.SelfLoops)
	assert.Equal(t, "0.", h.sent(), "only the cleanup bytes are written")
}

func TestRunInvalidState(t *testing.T) {
	table, err := actions.NewTableBuilder("lost").Initial("A").
		State("A", actions.On(actions.AlwaysMatches(), actions.NoOp, actions.Invalid)).
		Build()
	require.NoError(t, err)

	h := newHarness(t, Devices{}, solid(black))

	result, err := NewRunner(h.bot).Run(table)
	require.ErrorIs(t, err, ErrUnexpectedVisualState)
	assert.Contains(t, err.Error(), "reached from state A")

	assert.Equal(t, StatusInvalid, result.Status)
	assert.Equal(t, actions.Invalid, result.FinalState)
	assert.Equal(t, 2, result.ExitCode())
	assert.Equal(t, monitor.KindUnexpectedVisualState, monitor.Classify(err))
	assert.Equal(t, "0.", h.sent())
}

func TestRunStrictStateWithoutMatch(t *testing.T) {
	table, err := actions.NewTableBuilder("strict").Initial("A").
		StrictState("A", actions.On(actions.MatchPixel(cv.Point{}, red), actions.NoOp, actions.Exit)).
		Build()
	require.NoError(t, err)

	h := newHarness(t, Devices{}, solid(black))

	result, err := NewRunner(h.bot).Run(table)
	var noMatch *NoMatchingRuleError
	require.ErrorAs(t, err, &noMatch)
	assert.Equal(t, actions.StateName("A"), noMatch.State)
	assert.Equal(t, int64(1), noMatch.Tick)
	assert.Equal(t, monitor.KindNoMatchingRule, monitor.Classify(err))

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, 1, result.ExitCode())
	assert.Equal(t, "0.", h.sent())
}

func TestRunFirstMatchWins(t *testing.T) {
	always := actions.AlwaysMatches()
	table, err := actions.NewTableBuilder("priority").Initial("A").
		State("A",
			actions.On(always, actions.NewActionBuilder().Press('A', 0), "S1"),
			actions.On(always, actions.NewActionBuilder().Press('B', 0), "S2"),
		).
		State("S1", actions.On(always, actions.NoOp, actions.Exit)).
		State("S2", actions.On(always, actions.NoOp, actions.Exit)).
		Build()
	require.NoError(t, err)

	h := newHarness(t, Devices{}, solid(black))

	result, err := NewRunner(h.bot).Run(table)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, actions.Exit, result.FinalState)
	assert.Equal(t, "A0"+"0.", h.sent())
	assert.Equal(t, int64(1), result.Stats.Visits["S1"])
	assert.Zero(t, result.Stats.Visits["S2"])
}

func TestRunActionError(t *testing.T) {
	boom := errors.New("boom")
	table, err := actions.NewTableBuilder("fails").Initial("A").
		State("A", actions.On(actions.AlwaysMatches(), actions.Func(func(actions.BotInterface) error { return boom }), actions.Exit).Named("explode")).
		Build()
	require.NoError(t, err)

	h := newHarness(t, Devices{}, solid(black))

	result, err := NewRunner(h.bot).Run(table)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "state A, explode")
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "0.", h.sent())
}

func TestRunInitialStateOverride(t *testing.T) {
	h := newHarness(t, Devices{}, solid(black))

	result, err := NewRunner(h.bot).WithInitialState("B").Run(pressTable(t))
	require.NoError(t, err)
	assert.Equal(t, StatusExited, result.Status)
	assert.Equal(t, int64(1), result.Ticks)

	_, err = NewRunner(h.bot).WithInitialState("NOPE").Run(pressTable(t))
	assert.ErrorIs(t, err, actions.ErrInvalidTable)
}

func TestRunStallAlarm(t *testing.T) {
	table, err := actions.NewTableBuilder("stuck").Initial("A").
		AddState(actions.State{
			Name:       "A",
			Rules:      []actions.Rule{actions.On(actions.AlwaysMatches(), actions.NoOp, "A")},
			AlarmAfter: 100 * time.Millisecond,
		}).
		Build()
	require.NoError(t, err)

	// The alarm fires after 10 polls and samples 5 frames; a second one
	// would fire before read 21
	h := newHarness(t, Devices{}, solid(black)).cancelAfter(20)

	result, err := NewRunner(h.bot).Run(table)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, result.Status)
	assert.Equal(t, 1, result.Stats.Alarms)
	assert.Equal(t, "!."+"0.", h.sent(), "one alarm pair, never aborting")
}

func TestRunJournal(t *testing.T) {
	defer goleak.VerifyNone(t)

	db, err := database.OpenJournal(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer db.Close()

	bus := events.NewEventBus(64)
	var seen []events.EventType
	for _, eventType := range events.AllEventTypes {
		bus.Subscribe(eventType, func(event events.Event) {
			seen = append(seen, event.Type)
		})
	}

	h := newHarness(t, Devices{Journal: db, Events: bus}, solid(black), solid(red))
	runner := NewRunner(h.bot)

	result, err := runner.Run(pressTable(t))
	require.NoError(t, err)
	bus.Stop()

	require.NotEmpty(t, result.RunID)
	assert.Equal(t, result.RunID, runner.RunID())

	run, err := db.GetRun(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, "exited", run.Result)
	assert.Equal(t, "press-x", run.TableName)
	assert.Equal(t, int64(3), run.Ticks)
	require.NotNil(t, run.FinalState)
	assert.Equal(t, "B", *run.FinalState)

	transitions, err := db.GetTransitions(result.RunID)
	require.NoError(t, err)
	require.Len(t, transitions, 1, "implicit polls are not journaled")
	assert.Equal(t, "A", transitions[0].FromState)
	assert.Equal(t, "B", transitions[0].ToState)
	assert.Equal(t, "rule 1", transitions[0].Rule)
	assert.Equal(t, int64(2), transitions[0].Tick)

	assert.Equal(t, []events.EventType{
		events.EventTypeRunStarted,
		events.EventTypeTransition,
		events.EventTypeRunFinished,
	}, seen)
}

func TestRunJournalsAlarms(t *testing.T) {
	db, err := database.OpenJournal(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer db.Close()

	bus := events.NewEventBus(64)

	table, err := actions.NewTableBuilder("shiny").Initial("A").
		State("A", actions.On(actions.AlwaysMatches(), actions.NewActionBuilder().Alarm(1, "shiny"), actions.Exit)).
		Build()
	require.NoError(t, err)

	h := newHarness(t, Devices{Journal: db, Events: bus}, solid(black))
	result, err := NewRunner(h.bot).Run(table)
	require.NoError(t, err)
	bus.Stop()

	alarms, err := db.GetAlarms(result.RunID)
	require.NoError(t, err)
	require.Len(t, alarms, 1)
	assert.Equal(t, "shiny", alarms[0].Reason)
	assert.Equal(t, "!."+"0.", h.sent())
}

func TestRunEventData(t *testing.T) {
	defer goleak.VerifyNone(t)

	table, err := actions.NewTableBuilder("lost").Initial("A").
		State("A",
			actions.On(actions.MatchPixel(cv.Point{}, red), actions.NoOp, actions.Exit),
			actions.On(actions.AlwaysMatches(), actions.NoOp, "B").Named("advance"),
		).
		State("B", actions.On(actions.AlwaysMatches(), actions.NoOp, actions.Invalid)).
		Build()
	require.NoError(t, err)

	bus := events.NewEventBus(64)
	var seen []events.Event
	for _, eventType := range events.AllEventTypes {
		bus.Subscribe(eventType, func(event events.Event) {
			seen = append(seen, event)
		})
	}

	h := newHarness(t, Devices{Events: bus}, solid(black))
	_, err = NewRunner(h.bot).Run(table)
	require.ErrorIs(t, err, ErrUnexpectedVisualState)
	bus.Stop()

	require.Len(t, seen, 5)
	assert.Equal(t, events.EventTypeRunStarted, seen[0].Type)

	assert.Equal(t, events.EventTypeTransition, seen[1].Type)
	assert.Equal(t, 2, seen[1].Data["rule"], "named rules keep their position")
	assert.Equal(t, events.EventTypeTransition, seen[2].Type)
	assert.Equal(t, 1, seen[2].Data["rule"])

	errorEvent := seen[3]
	assert.Equal(t, events.EventTypeError, errorEvent.Type)
	assert.Equal(t, "unexpected_visual_state", errorEvent.Data["error_type"])
	assert.Equal(t, "high", errorEvent.Data["severity"])
	assert.Contains(t, errorEvent.Data["message"], "manual intervention required")
	assert.Contains(t, errorEvent.Data["message"], "reached from state B")

	assert.Equal(t, events.EventTypeRunFailed, seen[4].Type)
}

func TestRunEndsCleanlyWhenReplayRunsOut(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"001.png", "002.png", "003.png"} {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, solid(black).Image()))
		require.NoError(t, f.Close())
	}

	capturer, err := cv.NewReplayCapturer(dir, false)
	require.NoError(t, err)
	port := &recorder{}

	b, err := New(context.Background(), &Config{Resolution: testDims, Reference: testDims}, Devices{
		Sampler:    cv.NewSampler(capturer, cv.NewNullDisplay()),
		Controller: controller.NewController(port, "test"),
	})
	require.NoError(t, err)
	defer b.Shutdown()

	table, err := actions.NewTableBuilder("watch").Initial("A").
		State("A", actions.On(actions.MatchPixel(cv.Point{}, red), actions.NoOp, actions.Exit)).
		Build()
	require.NoError(t, err)

	result, err := NewRunner(b).Run(table)
	require.NoError(t, err)
	assert.Equal(t, StatusReplayEnded, result.Status)
	assert.Equal(t, "replay_ended", result.Status.String())
	assert.Equal(t, 0, result.ExitCode())
	assert.Equal(t, int64(3), result.Ticks)
	assert.Equal(t, "0.", port.String())

	assert.False(t, Restartable(fmt.Errorf("failed to capture frame: %w", cv.ErrReplayFinished)))
}
