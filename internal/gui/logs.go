package gui

import (
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"jordanella.com/switch-farm-go/internal/events"
)

// LogLevel represents log severity
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Message   string
}

// entryFor turns a bus event into a log line. ok is false for events the
// panel does not show.
func entryFor(event events.Event) (entry LogEntry, ok bool) {
	entry.Timestamp = event.Timestamp
	d := event.Data

	switch event.Type {
	case events.EventTypeRunStarted:
		entry.Level = LogLevelInfo
		entry.Message = fmt.Sprintf("Run started: %v from %v", d["table"], d["initial"])
	case events.EventTypeRunFinished, events.EventTypeRunFailed:
		entry.Level = LogLevelInfo
		entry.Message = fmt.Sprintf("Run %v after %v ticks", d["result"], d["ticks"])
		if msg, ok := d["error"].(string); ok && msg != "" {
			entry.Level = LogLevelError
			entry.Message += ": " + msg
		}
	case events.EventTypeTransition:
		if d["from"] == d["to"] {
			entry.Level = LogLevelDebug
		} else {
			entry.Level = LogLevelInfo
		}
		entry.Message = fmt.Sprintf("%v -> %v (tick %v)", d["from"], d["to"], d["tick"])
	case events.EventTypeStalled:
		entry.Level = LogLevelWarn
		entry.Message = fmt.Sprintf("Stuck in %v for %v", d["state"], d["elapsed"])
	case events.EventTypeAlarm:
		entry.Level = LogLevelWarn
		entry.Message = fmt.Sprintf("Alarm: %v", d["reason"])
	case events.EventTypeError:
		entry.Level = LogLevelError
		if severity := d["severity"]; severity == "low" || severity == "medium" {
			entry.Level = LogLevelWarn
		}
		entry.Message = fmt.Sprintf("%v: %v", d["error_type"], d["message"])
	default:
		return LogEntry{}, false
	}
	return entry, true
}

// LogPanel lists run events for the operator
type LogPanel struct {
	logs    []LogEntry
	logsMu  sync.RWMutex
	maxLogs int

	// Widgets
	logList         *widget.List
	autoScrollCheck *widget.Check
}

// NewLogPanel creates an empty panel keeping at most maxLogs entries
func NewLogPanel(maxLogs int) *LogPanel {
	if maxLogs <= 0 {
		maxLogs = 1000
	}
	return &LogPanel{
		logs:    make([]LogEntry, 0, maxLogs),
		maxLogs: maxLogs,
	}
}

// Attach subscribes the panel to every event type the bus carries
func (l *LogPanel) Attach(bus events.EventBus) {
	for _, eventType := range events.AllEventTypes {
		bus.Subscribe(eventType, func(event events.Event) {
			if entry, ok := entryFor(event); ok {
				l.add(entry)
			}
		})
	}
}

// Build constructs the log viewer UI
func (l *LogPanel) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Events", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	l.autoScrollCheck = widget.NewCheck("Auto-scroll", nil)
	l.autoScrollCheck.SetChecked(true)

	clearBtn := widget.NewButton("Clear", l.Clear)

	l.logList = widget.NewList(
		l.Len,
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewLabel("15:04:05"),
				widget.NewLabel("[LEVEL]"),
				widget.NewLabel("message"),
			)
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			entry, ok := l.At(id)
			if !ok {
				return
			}
			box := item.(*fyne.Container)

			box.Objects[0].(*widget.Label).SetText(entry.Timestamp.Format("15:04:05"))

			levelLabel := box.Objects[1].(*widget.Label)
			levelLabel.SetText(fmt.Sprintf("[%s]", entry.Level))
			switch entry.Level {
			case LogLevelDebug:
				levelLabel.Importance = widget.LowImportance
			case LogLevelInfo:
				levelLabel.Importance = widget.MediumImportance
			case LogLevelWarn:
				levelLabel.Importance = widget.WarningImportance
			case LogLevelError:
				levelLabel.Importance = widget.DangerImportance
			}
			levelLabel.Refresh()

			box.Objects[2].(*widget.Label).SetText(entry.Message)
		},
	)

	return container.NewBorder(
		container.NewHBox(header, l.autoScrollCheck, clearBtn),
		nil,
		nil,
		nil,
		l.logList,
	)
}

func (l *LogPanel) add(entry LogEntry) {
	l.logsMu.Lock()
	l.logs = append(l.logs, entry)
	if len(l.logs) > l.maxLogs {
		l.logs = l.logs[len(l.logs)-l.maxLogs:]
	}
	l.logsMu.Unlock()

	if l.logList != nil {
		fyne.Do(func() {
			l.logList.Refresh()
			if l.autoScrollCheck != nil && l.autoScrollCheck.Checked {
				l.logList.ScrollToBottom()
			}
		})
	}
}

// Len returns the number of entries
func (l *LogPanel) Len() int {
	l.logsMu.RLock()
	defer l.logsMu.RUnlock()
	return len(l.logs)
}

// At returns entry i
func (l *LogPanel) At(i int) (LogEntry, bool) {
	l.logsMu.RLock()
	defer l.logsMu.RUnlock()
	if i < 0 || i >= len(l.logs) {
		return LogEntry{}, false
	}
	return l.logs[i], true
}

// Clear removes all log entries
func (l *LogPanel) Clear() {
	l.logsMu.Lock()
	l.logs = make([]LogEntry, 0, l.maxLogs)
	l.logsMu.Unlock()

	if l.logList != nil {
		l.logList.Refresh()
	}
}
