package cv

import "sync/atomic"

// Display renders frames for the operator and reports the cancel gesture
type Display interface {
	// Show renders frame and returns true once the operator asked to stop
	Show(frame *Frame) (cancel bool, err error)
	Close() error
}

// NullDisplay renders nothing. Cancel can still be requested programmatically.
type NullDisplay struct {
	cancel atomic.Bool
}

// NewNullDisplay creates a headless display
func NewNullDisplay() *NullDisplay {
	return &NullDisplay{}
}

// RequestCancel makes the next Show report the cancel gesture
func (d *NullDisplay) RequestCancel() {
	d.cancel.Store(true)
}

func (d *NullDisplay) Show(*Frame) (bool, error) {
	return d.cancel.Load(), nil
}

func (d *NullDisplay) Close() error { return nil }
