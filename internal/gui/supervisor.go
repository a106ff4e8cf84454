package gui

import (
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/switch-farm-go/internal/cv"
	"jordanella.com/switch-farm-go/internal/events"
)

// Controls is what the window can ask of a running bot
type Controls interface {
	Pause() bool
	Resume() bool
	Stop() bool
}

// SupervisorWindow mirrors the captured video and lets the operator pause,
// resume or stop the run. It is a cv.Display: the control goroutine hands
// frames over through Show and learns about the stop request from its
// return value. Widgets are only touched on the fyne goroutine.
type SupervisorWindow struct {
	window fyne.Window
	logs   *LogPanel
	status statusTracker

	image      *canvas.Image
	headline   *widget.Label
	counters   *widget.Label
	pauseBtn   *widget.Button
	stopBtn    *widget.Button
	controlsMu sync.Mutex
	controls   Controls

	frameMu sync.Mutex
	latest  *cv.Frame
	pending atomic.Bool // A refresh is queued on the fyne goroutine

	cancel    atomic.Bool
	closeOnce sync.Once
}

var _ cv.Display = (*SupervisorWindow)(nil)

// NewSupervisorWindow creates the window. Bind must be called before the
// buttons do anything.
func NewSupervisorWindow(app fyne.App, title string) *SupervisorWindow {
	app.Settings().SetTheme(&BotTheme{})

	w := &SupervisorWindow{
		window: app.NewWindow(title),
		logs:   NewLogPanel(500),
	}
	w.window.SetMaster()
	w.window.Resize(DefaultWindowSize)
	w.window.SetContent(w.build())

	// 'q' mirrors the OpenCV window's cancel key
	w.window.Canvas().SetOnTypedRune(func(r rune) {
		if r == 'q' || r == 'Q' {
			w.RequestCancel()
		}
	})
	w.window.SetCloseIntercept(w.RequestCancel)
	return w
}

func (w *SupervisorWindow) build() fyne.CanvasObject {
	w.image = canvas.NewImageFromImage(nil)
	w.image.FillMode = canvas.ImageFillContain
	w.image.ScaleMode = canvas.ImageScaleFastest
	w.image.SetMinSize(fyne.NewSize(640, 400))

	w.headline = widget.NewLabelWithStyle("Waiting for run", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	w.counters = widget.NewLabel(Status{}.Counters())

	w.pauseBtn = widget.NewButtonWithIcon("Pause", theme.MediaPauseIcon(), w.togglePause)
	w.stopBtn = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), w.RequestCancel)
	w.stopBtn.Importance = widget.DangerImportance

	video := container.NewBorder(
		w.headline,
		container.NewHBox(w.counters, layout.NewSpacer(), w.pauseBtn, w.stopBtn),
		nil,
		nil,
		w.image,
	)

	split := container.NewVSplit(video, w.logs.Build())
	split.Offset = 0.7
	return split
}

// Bind connects the buttons to a bot
func (w *SupervisorWindow) Bind(controls Controls) {
	w.controlsMu.Lock()
	w.controls = controls
	w.controlsMu.Unlock()
}

func (w *SupervisorWindow) boundControls() Controls {
	w.controlsMu.Lock()
	defer w.controlsMu.Unlock()
	return w.controls
}

// Attach follows the run through the event bus
func (w *SupervisorWindow) Attach(bus events.EventBus) {
	w.logs.Attach(bus)
	for _, eventType := range events.AllEventTypes {
		bus.Subscribe(eventType, func(event events.Event) {
			if w.status.apply(event) {
				w.scheduleRefresh()
			}
		})
	}
}

// Show stores frame for the next repaint and reports whether the operator
// asked to stop. Frames arriving faster than the window repaints are dropped.
func (w *SupervisorWindow) Show(frame *cv.Frame) (bool, error) {
	w.frameMu.Lock()
	w.latest = frame
	w.frameMu.Unlock()

	w.scheduleRefresh()
	return w.cancel.Load(), nil
}

func (w *SupervisorWindow) scheduleRefresh() {
	if w.pending.CompareAndSwap(false, true) {
		fyne.Do(w.refresh)
	}
}

func (w *SupervisorWindow) refresh() {
	w.pending.Store(false)

	w.frameMu.Lock()
	frame := w.latest
	w.frameMu.Unlock()

	if frame != nil {
		w.image.Image = frame.Image()
		w.image.Refresh()
	}

	status := w.status.snapshot()
	w.headline.SetText(status.Headline())
	w.counters.SetText(status.Counters())
	if status.Result != "" {
		w.pauseBtn.Disable()
		w.stopBtn.Disable()
	}
}

// RequestCancel makes the next capture fail with cv.ErrUserCancelled
func (w *SupervisorWindow) RequestCancel() {
	if !w.cancel.CompareAndSwap(false, true) {
		return
	}
	if controls := w.boundControls(); controls != nil {
		controls.Stop()
	}
}

// Cancelled reports whether the operator asked to stop
func (w *SupervisorWindow) Cancelled() bool {
	return w.cancel.Load()
}

func (w *SupervisorWindow) togglePause() {
	controls := w.boundControls()
	if controls == nil {
		return
	}

	if w.status.snapshot().Paused {
		if controls.Resume() {
			w.status.setPaused(false)
			w.pauseBtn.SetText("Pause")
			w.pauseBtn.SetIcon(theme.MediaPauseIcon())
		}
	} else if controls.Pause() {
		w.status.setPaused(true)
		w.pauseBtn.SetText("Resume")
		w.pauseBtn.SetIcon(theme.MediaPlayIcon())
	}
	w.refresh()
}

// ShowAndRun shows the window and runs the fyne event loop until Close
func (w *SupervisorWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close closes the window, which ends ShowAndRun. Safe to call from any goroutine.
func (w *SupervisorWindow) Close() error {
	w.closeOnce.Do(func() {
		fyne.Do(func() {
			w.window.SetCloseIntercept(nil)
			w.window.Close()
		})
	})
	return nil
}
