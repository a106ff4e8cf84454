package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/ini.v1"

	"jordanella.com/switch-farm-go/internal/bot"
	"jordanella.com/switch-farm-go/internal/cv"
)

// Settings is the content of a Settings.ini file
type Settings struct {
	Bot     *bot.Config
	Restart bot.RestartPolicy
}

// NewDefaultSettings creates settings with default values
func NewDefaultSettings() *Settings {
	config := &bot.Config{}
	config.ApplyDefaults()
	return &Settings{
		Bot:     config,
		Restart: bot.DefaultRestartPolicy(),
	}
}

// LoadFromINI loads configuration from a Settings.ini file. Missing keys keep
// their defaults.
func LoadFromINI(path string) (*Settings, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	settings := NewDefaultSettings()
	config := settings.Bot

	// Serial link
	serial := cfg.Section("Serial")
	config.SerialPort = serial.Key("port").MustString(config.SerialPort)
	config.BaudRate = serial.Key("baud").MustInt(config.BaudRate)
	config.Silent = serial.Key("silent").MustBool(config.Silent)

	// Video
	video := cfg.Section("Video")
	config.CaptureDevice = video.Key("device").MustInt(config.CaptureDevice)
	config.Resolution = cv.Dims{
		Width:  video.Key("width").MustInt(config.Resolution.Width),
		Height: video.Key("height").MustInt(config.Resolution.Height),
	}
	config.ReplayDir = video.Key("replayDir").MustString("")
	config.ReplayLoop = video.Key("replayLoop").MustBool(false)
	config.ShowWindow = video.Key("showWindow").MustBool(false)
	config.UseGUI = video.Key("gui").MustBool(false)

	// Recognition
	recognition := cfg.Section("Recognition")
	config.Reference = cv.Dims{
		Width:  recognition.Key("referenceWidth").MustInt(config.Resolution.Width),
		Height: recognition.Key("referenceHeight").MustInt(config.Resolution.Height),
	}
	config.Tolerance = recognition.Key("tolerance").MustInt(config.Tolerance)
	config.OCRLanguage = recognition.Key("ocrLanguage").MustString(config.OCRLanguage)
	config.TemplatesFile = recognition.Key("templates").MustString("")

	// Controller timings
	timing := cfg.Section("Timing")
	config.PressDuration = timing.Key("press").MustDuration(config.PressDuration)
	config.SettleInterval = timing.Key("settle").MustDuration(config.SettleInterval)
	config.AlarmOn = timing.Key("alarmOn").MustDuration(config.AlarmOn)
	config.AlarmOff = timing.Key("alarmOff").MustDuration(config.AlarmOff)

	// Paths
	paths := cfg.Section("Paths")
	config.TablesDir = paths.Key("tables").MustString(config.TablesDir)
	config.JournalPath = paths.Key("journal").MustString("")

	// Logging
	logging := cfg.Section("Logging")
	config.LogLevel = logging.Key("level").MustString(config.LogLevel)
	config.LogFormat = logging.Key("format").MustString(config.LogFormat)
	config.LogFile = logging.Key("file").MustString("")

	// Restart policy
	restart := cfg.Section("Restart")
	policy := &settings.Restart
	policy.Enabled = restart.Key("enabled").MustBool(policy.Enabled)
	policy.MaxRetries = restart.Key("maxRetries").MustInt(policy.MaxRetries)
	policy.InitialDelay = restart.Key("initialDelay").MustDuration(policy.InitialDelay)
	policy.MaxDelay = restart.Key("maxDelay").MustDuration(policy.MaxDelay)
	policy.BackoffFactor = restart.Key("backoffFactor").MustFloat64(policy.BackoffFactor)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// LoadOrDefault loads path, falling back to defaults when it does not exist
func LoadOrDefault(path string) (*Settings, error) {
	if path == "" {
		return NewDefaultSettings(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return NewDefaultSettings(), nil
	}
	return LoadFromINI(path)
}

// SaveToINI saves configuration to an INI file
func SaveToINI(settings *Settings, path string) error {
	cfg := ini.Empty()
	config := settings.Bot

	serial := cfg.Section("Serial")
	serial.Key("port").SetValue(config.SerialPort)
	serial.Key("baud").SetValue(strconv.Itoa(config.BaudRate))
	serial.Key("silent").SetValue(strconv.FormatBool(config.Silent))

	video := cfg.Section("Video")
	video.Key("device").SetValue(strconv.Itoa(config.CaptureDevice))
	video.Key("width").SetValue(strconv.Itoa(config.Resolution.Width))
	video.Key("height").SetValue(strconv.Itoa(config.Resolution.Height))
	video.Key("replayDir").SetValue(config.ReplayDir)
	video.Key("replayLoop").SetValue(strconv.FormatBool(config.ReplayLoop))
	video.Key("showWindow").SetValue(strconv.FormatBool(config.ShowWindow))
	video.Key("gui").SetValue(strconv.FormatBool(config.UseGUI))

	recognition := cfg.Section("Recognition")
	recognition.Key("referenceWidth").SetValue(strconv.Itoa(config.Reference.Width))
	recognition.Key("referenceHeight").SetValue(strconv.Itoa(config.Reference.Height))
	recognition.Key("tolerance").SetValue(strconv.Itoa(config.Tolerance))
	recognition.Key("ocrLanguage").SetValue(config.OCRLanguage)
	recognition.Key("templates").SetValue(config.TemplatesFile)

	timing := cfg.Section("Timing")
	timing.Key("press").SetValue(config.PressDuration.String())
	timing.Key("settle").SetValue(config.SettleInterval.String())
	timing.Key("alarmOn").SetValue(config.AlarmOn.String())
	timing.Key("alarmOff").SetValue(config.AlarmOff.String())

	paths := cfg.Section("Paths")
	paths.Key("tables").SetValue(config.TablesDir)
	paths.Key("journal").SetValue(config.JournalPath)

	logging := cfg.Section("Logging")
	logging.Key("level").SetValue(config.LogLevel)
	logging.Key("format").SetValue(config.LogFormat)
	logging.Key("file").SetValue(config.LogFile)

	policy := settings.Restart
	restart := cfg.Section("Restart")
	restart.Key("enabled").SetValue(strconv.FormatBool(policy.Enabled))
	restart.Key("maxRetries").SetValue(strconv.Itoa(policy.MaxRetries))
	restart.Key("initialDelay").SetValue(policy.InitialDelay.String())
	restart.Key("maxDelay").SetValue(policy.MaxDelay.String())
	restart.Key("backoffFactor").SetValue(strconv.FormatFloat(policy.BackoffFactor, 'g', -1, 64))

	return cfg.SaveTo(path)
}
