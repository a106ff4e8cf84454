package bot

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"jordanella.com/switch-farm-go/internal/actions"
	"jordanella.com/switch-farm-go/internal/controller"
	"jordanella.com/switch-farm-go/internal/cv"
	"jordanella.com/switch-farm-go/internal/events"
	"jordanella.com/switch-farm-go/internal/logging"
	"jordanella.com/switch-farm-go/internal/monitor"
)

// Runner executes a state table on a bot. The only memory carried between
// ticks is the current state name and the bot's counters.
type Runner struct {
	bot     *Bot
	initial actions.StateName
	log     *logging.Logger

	mu      sync.Mutex
	current actions.StateName
	runID   string
	stats   *statsRecorder
	stall   *monitor.StallDetector

	// Alarm events are delivered asynchronously, so the subscription of a
	// run is kept until the next run starts
	unsubscribeAlarms func()
}

// NewRunner creates a runner for b
func NewRunner(b *Bot) *Runner {
	r := &Runner{
		bot:   b,
		log:   logging.NewLogger("Runner"),
		stats: newStatsRecorder(),
	}
	r.stall = monitor.NewStallDetector().WithStallCallback(r.stalled)
	return r
}

// WithInitialState overrides the table's initial state
func (r *Runner) WithInitialState(name actions.StateName) *Runner {
	r.initial = name
	return r
}

// CurrentState returns the state the run is in
func (r *Runner) CurrentState() actions.StateName {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// RunID returns the journal ID of the current or last run
func (r *Runner) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

// Stats returns a snapshot of the run statistics
func (r *Runner) Stats() Stats {
	return r.stats.snapshot()
}

func (r *Runner) setCurrent(state actions.StateName) {
	r.mu.Lock()
	r.current = state
	r.mu.Unlock()
}

// Run executes table until it reaches a terminal state, an exit action
// fires, the operator cancels or an error occurs. The controller is released
// on every path. Cancellation and exit actions return a nil error.
func (r *Runner) Run(table *actions.StateTable) (Result, error) {
	if err := table.Validate(); err != nil {
		return Result{Status: StatusFailed}, err
	}

	initial := table.Initial
	if r.initial != "" {
		if _, ok := table.State(r.initial); !ok {
			return Result{Status: StatusFailed, Table: table.Name},
				fmt.Errorf("%w: %s: initial state %s is not defined", actions.ErrInvalidTable, table.Name, r.initial)
		}
		initial = r.initial
	}

	b := r.bot
	started := b.sampler.Clock().Now()

	r.stats = newStatsRecorder()
	r.stall = monitor.NewStallDetector().WithStallCallback(r.stalled)
	r.setCurrent(initial)
	b.counters.SetParams(table.Params)

	if r.unsubscribeAlarms != nil {
		r.unsubscribeAlarms()
	}
	runID := r.startJournal(table.Name, initial)
	r.unsubscribeAlarms = r.journalAlarms(runID)

	var cleanupOnce sync.Once
	var cleanupErr error
	cleanup := func() {
		cleanupOnce.Do(func() {
			cleanupErr = b.ctrl.ReleaseAll()
			b.routineController.Complete()
		})
	}
	defer cleanup()

	b.routineController.Start()
	r.log.InfoWithContext("Run started", map[string]interface{}{
		"run_id":  runID,
		"table":   table.Name,
		"initial": string(initial),
	})
	r.publish(events.NewRunStartedEvent(runID, table.Name, string(initial)))

	status, final, err := r.loop(table, initial)

	cleanup()
	if cleanupErr != nil {
		r.log.Error("Failed to release controller", cleanupErr)
		if err == nil && status != StatusInvalid {
			status = StatusFailed
			err = fmt.Errorf("release controller: %w", cleanupErr)
		}
	}

	stats := r.stats.snapshot()
	result := Result{
		Status:     status,
		RunID:      runID,
		Table:      table.Name,
		FinalState: final,
		Ticks:      stats.Ticks,
		Stats:      stats,
		Duration:   b.sampler.Clock().Now().Sub(started),
	}
	r.finishJournal(result, err)

	var response monitor.ErrorResponse
	if err != nil {
		response = r.reportError(runID, err)
	}
	r.publish(events.NewRunFinishedEvent(runID, status.String(), stats.Ticks, err))

	context := map[string]interface{}{
		"run_id":      runID,
		"result":      status.String(),
		"final_state": string(final),
		"ticks":       stats.Ticks,
		"transitions": stats.Transitions,
		"duration":    result.Duration.String(),
	}
	if err != nil {
		context["kind"] = response.Kind.String()
		context["severity"] = response.Severity.String()
		context["action"] = response.Action.String()
		r.log.ErrorWithContext("Run failed", err, context)
	} else {
		r.log.InfoWithContext("Run finished", context)
	}

	return result, err
}

func (r *Runner) loop(table *actions.StateTable, current actions.StateName) (Status, actions.StateName, error) {
	b := r.bot
	clock := b.sampler.Clock()
	previous := current

	for {
		switch current {
		case actions.Exit:
			return StatusCompleted, current, nil
		case actions.Invalid:
			return StatusInvalid, current, fmt.Errorf("%w: reached from state %s", ErrUnexpectedVisualState, previous)
		}

		state, ok := table.State(current)
		if !ok {
			return StatusFailed, current, fmt.Errorf("%w: state %s is not defined", actions.ErrInvalidTable, current)
		}

		now := clock.Now()
		r.stall.Enter(string(current), state.AlarmAfter, now)
		if stalled, _ := r.stall.Check(now); stalled {
			if err := r.stallAlarm(); err != nil {
				return r.stopped(current, err)
			}
		}

		frame, err := b.sampler.Capture(b.ctx)
		if err != nil {
			return r.stopped(current, err)
		}
		tick := r.stats.tick(current)

		rule, position, matched := firstMatch(b, state, frame)
		if !matched {
			if state.OnNoMatch == actions.FailOnNoMatch {
				return StatusFailed, current, &NoMatchingRuleError{State: current, Tick: tick}
			}
			continue
		}
		label := rule.Label(position - 1)

		if err := rule.Action.Execute(b); err != nil {
			if errors.Is(err, actions.ErrExit) {
				r.log.InfoWithContext("Exit action", map[string]interface{}{
					"state": string(current),
					"rule":  label,
					"tick":  tick,
				})
				return StatusExited, current, nil
			}
			return r.stopped(current, fmt.Errorf("state %s, %s: %w", current, label, err))
		}

		r.transition(tick, current, rule.Next, label, position, rule.Implicit())
		previous = current
		current = rule.Next
		r.setCurrent(current)
	}
}

// firstMatch returns the first rule whose condition holds on frame and its
// 1-based position in the state
func firstMatch(b *Bot, state *actions.State, frame *cv.Frame) (actions.Rule, int, bool) {
	for i, rule := range state.Rules {
		if rule.Condition.Evaluate(b, frame) {
			return rule, i + 1, true
		}
	}
	return actions.Rule{}, 0, false
}

// stopped maps an error that ended the loop to a status. Cancellation and
// the end of a replay are clean stops.
func (r *Runner) stopped(state actions.StateName, err error) (Status, actions.StateName, error) {
	switch monitor.Classify(err) {
	case monitor.KindUserCancelled:
		r.log.InfoWithContext("Run cancelled", map[string]interface{}{"state": string(state)})
		return StatusCancelled, state, nil
	case monitor.KindReplayFinished:
		r.log.InfoWithContext("Replay finished", map[string]interface{}{"state": string(state)})
		return StatusReplayEnded, state, nil
	}
	return StatusFailed, state, err
}

func (r *Runner) transition(tick int64, from, to actions.StateName, rule string, index int, implicit bool) {
	r.stats.transition(from, to)

	// Implicit stay-in-place polls are not transitions worth journaling
	if from == to && implicit {
		return
	}

	context := map[string]interface{}{
		"from": string(from),
		"to":   string(to),
		"rule": rule,
		"tick": tick,
	}
	if from == to {
		r.log.DebugWithContext("Transition", context)
	} else {
		r.log.InfoWithContext("Transition", context)
	}

	runID := r.RunID()
	if j := r.bot.journal; j != nil && runID != "" {
		if err := j.RecordTransition(runID, tick, string(from), string(to), rule); err != nil {
			r.log.Error("Failed to journal transition", err)
		}
	}
	r.publish(events.NewTransitionEvent(runID, string(from), string(to), index, tick))
}

// stalled reports a state that overstayed its budget
func (r *Runner) stalled(state string, elapsed time.Duration) {
	response := monitor.DefaultErrorHandler(monitor.KindTimeoutExceeded, nil)

	r.stats.alarm()
	r.log.WarnWithContext("State stalled", map[string]interface{}{
		"state":    state,
		"elapsed":  elapsed.String(),
		"kind":     response.Kind.String(),
		"severity": response.Severity.String(),
		"action":   response.Action.String(),
	})
	r.publish(events.NewStalledEvent(r.RunID(), state, elapsed))
	r.alarm(actions.StateName(state), fmt.Sprintf("stuck in %s for %s", state, elapsed.Round(time.Second)))
}

// stallAlarm plays one alarm pair after a stall
func (r *Runner) stallAlarm() error {
	b := r.bot
	if err := b.ctrl.Send(controller.AlarmOn); err != nil {
		return fmt.Errorf("alarm on: %w", err)
	}
	if err := b.sampler.WaitFor(b.ctx, b.config.AlarmOn); err != nil {
		return err
	}
	if err := b.ctrl.Send(controller.AlarmOff); err != nil {
		return fmt.Errorf("alarm off: %w", err)
	}
	return nil
}

// alarm journals a runner alarm. With an event bus the journal entry is
// written by the alarm subscription instead.
func (r *Runner) alarm(state actions.StateName, reason string) {
	if r.bot.events != nil {
		r.publish(events.NewAlarmEvent("runner", reason))
		return
	}
	r.recordAlarm(r.RunID(), string(state), reason)
}

func (r *Runner) recordAlarm(runID, state, reason string) {
	j := r.bot.journal
	if j == nil || runID == "" {
		return
	}
	if err := j.RecordAlarm(runID, state, reason); err != nil {
		r.log.Error("Failed to journal alarm", err)
	}
}

// journalAlarms records every alarm event of the run, including those
// raised by actions
func (r *Runner) journalAlarms(runID string) func() {
	bus := r.bot.events
	if bus == nil || r.bot.journal == nil || runID == "" {
		return func() {}
	}
	id := bus.Subscribe(events.EventTypeAlarm, func(event events.Event) {
		if r.RunID() != runID {
			return
		}
		reason, _ := event.Data["reason"].(string)
		r.recordAlarm(runID, string(r.CurrentState()), reason)
	})
	return func() { bus.Unsubscribe(id) }
}

func (r *Runner) startJournal(table string, initial actions.StateName) string {
	r.mu.Lock()
	r.runID = ""
	r.mu.Unlock()

	j := r.bot.journal
	if j == nil {
		return ""
	}
	runID, err := j.StartRun(table, string(initial))
	if err != nil {
		r.log.Error("Failed to journal run start", err)
		return ""
	}
	r.mu.Lock()
	r.runID = runID
	r.mu.Unlock()
	return runID
}

func (r *Runner) finishJournal(result Result, runErr error) {
	j := r.bot.journal
	if j == nil || result.RunID == "" {
		return
	}
	if err := j.FinishRun(result.RunID, result.Status.String(), string(result.FinalState), result.Ticks, runErr); err != nil {
		r.log.Error("Failed to journal run finish", err)
	}
}

// reportError applies the error policy to the error that ended a run and
// publishes it
func (r *Runner) reportError(runID string, err error) monitor.ErrorResponse {
	response := monitor.HandleError(err)
	message := response.Message
	if message != err.Error() {
		message += ": " + err.Error()
	}

	event := events.NewErrorEvent("runner", response.Kind.String(), response.Severity.String(), message)
	event.Data["run_id"] = runID
	r.publish(event)
	return response
}

func (r *Runner) publish(event events.Event) {
	if bus := r.bot.events; bus != nil {
		bus.Publish(event)
	}
}
