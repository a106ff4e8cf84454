package bot

import (
	"fmt"
	"time"

	"jordanella.com/switch-farm-go/internal/actions"
	"jordanella.com/switch-farm-go/internal/controller"
	"jordanella.com/switch-farm-go/internal/cv"
	"jordanella.com/switch-farm-go/internal/logging"
)

// Config holds everything a run needs that is not part of a state table
type Config struct {
	// Serial link
	SerialPort string
	BaudRate   int
	Silent     bool // Suppress alarm bytes

	// Video
	CaptureDevice int
	Resolution    cv.Dims // Capture resolution, fixed before the first frame
	ReplayDir     string  // Read PNG frames from here instead of a device
	ReplayLoop    bool
	ShowWindow    bool // OpenCV preview window
	UseGUI        bool // fyne supervisor window

	// Geometry and color
	Reference cv.Dims // Resolution the tables' coordinates are written against
	Tolerance int

	// Controller timings
	PressDuration  time.Duration
	SettleInterval time.Duration
	AlarmOn        time.Duration
	AlarmOff       time.Duration

	// Recognition
	OCRLanguage   string
	TemplatesFile string

	// Paths
	TablesDir   string
	JournalPath string // Empty disables the run journal

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

// ApplyDefaults sets default values for any uninitialized configuration fields
func (c *Config) ApplyDefaults() {
	if c.SerialPort == "" {
		c.SerialPort = controller.DefaultPort()
	}
	if c.BaudRate == 0 {
		c.BaudRate = controller.DefaultBaud
	}
	if c.Resolution == (cv.Dims{}) {
		c.Resolution = cv.DimsHighRes
	}
	if c.Reference == (cv.Dims{}) {
		c.Reference = c.Resolution
	}
	if c.Tolerance <= 0 {
		c.Tolerance = cv.DefaultTolerance
	}

	timing := actions.DefaultTiming()
	if c.PressDuration == 0 {
		c.PressDuration = timing.PressDuration
	}
	if c.SettleInterval == 0 {
		c.SettleInterval = timing.SettleInterval
	}
	if c.AlarmOn == 0 {
		c.AlarmOn = timing.AlarmOn
	}
	if c.AlarmOff == 0 {
		c.AlarmOff = timing.AlarmOff
	}

	if c.OCRLanguage == "" {
		c.OCRLanguage = "eng"
	}
	if c.TablesDir == "" {
		c.TablesDir = "routines"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
}

// Validate checks the configuration for values no run can work with
func (c *Config) Validate() error {
	if err := c.Resolution.Validate(); err != nil {
		return fmt.Errorf("resolution: %w", err)
	}
	if err := c.Reference.Validate(); err != nil {
		return fmt.Errorf("reference resolution: %w", err)
	}
	if c.BaudRate < 0 {
		return fmt.Errorf("baud rate (%d) must not be negative", c.BaudRate)
	}
	if c.PressDuration < 0 || c.SettleInterval < 0 || c.AlarmOn < 0 || c.AlarmOff < 0 {
		return fmt.Errorf("controller timings must not be negative")
	}
	if c.CaptureDevice < 0 {
		return fmt.Errorf("capture device (%d) must not be negative", c.CaptureDevice)
	}
	return nil
}

// Timing returns the controller timings for actions
func (c *Config) Timing() actions.Timing {
	return actions.Timing{
		PressDuration:  c.PressDuration,
		SettleInterval: c.SettleInterval,
		AlarmOn:        c.AlarmOn,
		AlarmOff:       c.AlarmOff,
	}
}

// Serial returns the serial port settings
func (c *Config) Serial() *controller.SerialConfig {
	return &controller.SerialConfig{
		Port: c.SerialPort,
		Baud: c.BaudRate,
	}
}

// Capture returns the video capture settings
func (c *Config) Capture() *cv.CaptureConfig {
	return &cv.CaptureConfig{
		Device:     c.CaptureDevice,
		Resolution: c.Resolution,
		ReplayDir:  c.ReplayDir,
		ReplayLoop: c.ReplayLoop,
	}
}

// Logging returns the log sink settings
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Format = c.LogFormat
	cfg.File = c.LogFile
	return cfg
}
