// Package controller talks to the serial controller emulator that drives the console.
package controller

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"
	"jordanella.com/switch-farm-go/internal/logging"
)

// DefaultBaud is the firmware's fixed line rate
const DefaultBaud = 9600

// SerialConfig selects the serial device
type SerialConfig struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
}

// Controller writes single-byte commands to the emulator, one at a time and
// in program order
type Controller struct {
	mu     sync.Mutex
	port   io.WriteCloser
	name   string
	silent bool
	held   bool
	alarm  bool
	sent   int64
	closed bool
	logger *logging.Logger
}

// Open opens the serial device described by config
func Open(config *SerialConfig) (*Controller, error) {
	baud := config.Baud
	if baud == 0 {
		baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        config.Port,
		Baud:        baud,
		ReadTimeout: config.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", config.Port, err)
	}

	return NewController(port, config.Port), nil
}

// NewController wraps an already open port
func NewController(port io.WriteCloser, name string) *Controller {
	return &Controller{
		port:   port,
		name:   name,
		logger: logging.NewLogger("Controller"),
	}
}

// WithSilent suppresses alarm codes
func (c *Controller) WithSilent(silent bool) *Controller {
	c.silent = silent
	return c
}

// Name returns the port name
func (c *Controller) Name() string {
	return c.name
}

// Send validates and writes one command byte
func (c *Controller) Send(code Code) error {
	if _, err := Lookup(code); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(code)
}

// SendString resolves a command name or raw character and sends it
func (c *Controller) SendString(s string) error {
	code, err := Parse(s)
	if err != nil {
		return err
	}
	return c.Send(code)
}

func (c *Controller) write(code Code) error {
	if c.closed {
		return fmt.Errorf("controller %s is closed", c.name)
	}
	if c.silent && (code == AlarmOn || code == AlarmOff) {
		c.logger.Debug(fmt.Sprintf("Alarm code %s suppressed (silent)", code))
		return nil
	}

	if _, err := c.port.Write([]byte{byte(code)}); err != nil {
		return fmt.Errorf("failed to write %s to %s: %w", code, c.name, err)
	}
	c.sent++

	switch code {
	case Release:
		c.held = false
	case AlarmOn:
		c.alarm = true
	case AlarmOff:
		c.alarm = false
	default:
		c.held = true
	}
	return nil
}

// ReleaseAll releases every input and silences the alarm. It always writes
// both codes regardless of what the controller believes is active.
func (c *Controller) ReleaseAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	return errors.Join(c.write(Release), c.write(AlarmOff))
}

// Held reports whether an input is believed to be held
func (c *Controller) Held() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held
}

// AlarmActive reports whether the alarm is believed to be sounding
func (c *Controller) AlarmActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alarm
}

// Sent returns the number of bytes written
func (c *Controller) Sent() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent
}

// Close closes the port. Further sends fail.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.port.Close()
}
