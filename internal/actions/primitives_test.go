package actions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/switch-farm-go/internal/controller"
	"jordanella.com/switch-farm-go/internal/cv"
)

func TestPressWritesCodeThenRelease(t *testing.T) {
	tests := []struct {
		name      string
		duration  time.Duration
		wantReads int
	}{
		{"default duration", 0, 10 + 8},
		{"explicit duration", 50 * time.Millisecond, 5 + 8},
		{"negative falls back to default", -time.Second, 10 + 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := newTestBot(t)
			err := NewActionBuilder().Press('A', tt.duration).Execute(bot)
			require.NoError(t, err)

			assert.Equal(t, "A0", bot.sent())
			assert.Equal(t, tt.wantReads, bot.capturer.Reads(), "press and settle both sample frames")
		})
	}
}

func TestSequenceOrderAndAssociativity(t *testing.T) {
	a := NewActionBuilder().Press('A', 0)
	b := NewActionBuilder().Press('w', 0)
	c := NewActionBuilder().Press('B', 0)

	left := newTestBot(t)
	require.NoError(t, Sequence(Sequence(a, b), c).Execute(left))

	right := newTestBot(t)
	require.NoError(t, Sequence(a, Sequence(b, c)).Execute(right))

	assert.Equal(t, "A0w0B0", left.sent())
	assert.Equal(t, left.sent(), right.sent())
	assert.Equal(t, left.capturer.Reads(), right.capturer.Reads())
}

func TestEmptySequenceIsNoOp(t *testing.T) {
	bot := newTestBot(t)
	require.NoError(t, Sequence().Execute(bot))
	require.NoError(t, NewActionBuilder().Execute(bot))

	assert.Empty(t, bot.sent())
	assert.Zero(t, bot.capturer.Reads())
}

func TestWaitSendsNothing(t *testing.T) {
	bot := newTestBot(t)
	require.NoError(t, NewActionBuilder().Wait(200*time.Millisecond).Execute(bot))

	assert.Empty(t, bot.sent())
	assert.Equal(t, 20, bot.capturer.Reads())
}

func TestCancelDuringPressStopsSequence(t *testing.T) {
	bot := newTestBot(t).cancelAfter(3)

	err := NewActionBuilder().Press('A', 0).Press('B', 0).Execute(bot)
	assert.ErrorIs(t, err, cv.ErrUserCancelled)

	// the release is left to the runner's cleanup
	assert.Equal(t, "A", bot.sent())
}

func TestExitStopsSequence(t *testing.T) {
	bot := newTestBot(t)
	err := NewActionBuilder().Press('A', 0).Exit().Press('B', 0).Execute(bot)

	assert.ErrorIs(t, err, ErrExit)
	assert.Equal(t, "A0", bot.sent())
}

func TestUnknownButtonFailsWithoutWriting(t *testing.T) {
	bot := newTestBot(t)
	ab := NewActionBuilder().Press('Q', 0)

	require.Error(t, ab.Err())
	err := ab.Execute(bot)
	assert.ErrorIs(t, err, controller.ErrUnknownCommand)
	assert.Empty(t, bot.sent())
}

func TestHoldAndRelease(t *testing.T) {
	bot := newTestBot(t)
	err := NewActionBuilder().Hold('d').Wait(30 * time.Millisecond).Release().Execute(bot)
	require.NoError(t, err)

	assert.Equal(t, "d0", bot.sent())
}

func TestAlarmPattern(t *testing.T) {
	bot := newTestBot(t)
	require.NoError(t, NewActionBuilder().Alarm(2, "test").Execute(bot))

	assert.Equal(t, "!.!.", bot.sent())
	// on, off, on: no trailing off period
	assert.Equal(t, 15, bot.capturer.Reads())
}

func TestAlarmSilentMode(t *testing.T) {
	bot := newTestBot(t)
	bot.ctrl.WithSilent(true)

	require.NoError(t, NewActionBuilder().Alarm(3, "test").Press('A', 0).Execute(bot))
	assert.Equal(t, "A0", bot.sent())
}

func TestDoAndFunc(t *testing.T) {
	bot := newTestBot(t)
	var order []string

	ab := NewActionBuilder().
		Do("first", func(BotInterface) error {
			order = append(order, "first")
			return nil
		}).
		Then(Func(func(BotInterface) error {
			order = append(order, "second")
			return nil
		}))

	require.NoError(t, ab.Execute(bot))
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, []string{"first", "Action"}, ab.StepNames())
}

func TestWaitUntilReturnsOnMatch(t *testing.T) {
	dark := cv.NewSolidFrame(testDims, cv.Color{})
	lit := dark.WithPixel(cv.Point{Y: 5, X: 5}, cv.BGR(17, 203, 244))
	bot := newTestBot(t, dark, dark, dark, lit)

	cond := MatchPixel(cv.Point{Y: 5, X: 5}, cv.BGR(17, 203, 244))
	require.NoError(t, NewActionBuilder().WaitUntil(cond, time.Second).Execute(bot))

	assert.Equal(t, 4, bot.capturer.Reads())
	assert.Empty(t, bot.sent())
}

func TestWaitUntilAlarmsOncePerTimeout(t *testing.T) {
	// 1s timeout at 10ms per frame: alarms fire at reads 100 and 205
	bot := newTestBot(t).cancelAfter(250)
	never := Negate(AlwaysMatches())

	err := NewActionBuilder().WaitUntil(never, time.Second).Execute(bot)
	assert.ErrorIs(t, err, cv.ErrUserCancelled)
	assert.Equal(t, "!.!.", bot.sent())
}

func TestWaitUntilWithoutTimeoutNeverAlarms(t *testing.T) {
	bot := newTestBot(t).cancelAfter(500)

	err := NewActionBuilder().WaitUntil(Negate(AlwaysMatches()), 0).Execute(bot)
	assert.ErrorIs(t, err, cv.ErrUserCancelled)
	assert.Empty(t, bot.sent())
}
