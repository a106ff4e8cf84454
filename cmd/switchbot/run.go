package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"jordanella.com/switch-farm-go/internal/actions"
	"jordanella.com/switch-farm-go/internal/bot"
	"jordanella.com/switch-farm-go/internal/config"
	"jordanella.com/switch-farm-go/internal/controller"
	"jordanella.com/switch-farm-go/internal/cv"
	"jordanella.com/switch-farm-go/internal/cv/opencv"
	"jordanella.com/switch-farm-go/internal/database"
	"jordanella.com/switch-farm-go/internal/events"
	"jordanella.com/switch-farm-go/internal/gui"
	"jordanella.com/switch-farm-go/internal/logging"
	"jordanella.com/switch-farm-go/internal/ocr/tesseract"
	"jordanella.com/switch-farm-go/pkg/templates"
)

var log = logging.NewLogger("CLI")

type runFlags struct {
	params  []string
	serial  string
	replay  string
	silent  bool
	gui     bool
	window  bool
	restart bool
}

func newRunCmd(opts *options) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <table>",
		Short: "Run a state table until it exits or is stopped",
		Long: `Run a state table against the capture device and serial controller.

Press q in the preview window, close the supervisor window or send SIGINT to
stop. The exit status is 0 when the run ends normally or is stopped, 2 when
the table reaches INVALID and 1 on any other error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTable(cmd, opts, flags, args[0])
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&flags.params, "param", "p", nil, "override a table parameter (name=value), repeatable")
	f.StringVar(&flags.serial, "serial", "", "serial port of the controller")
	f.StringVar(&flags.replay, "replay", "", "read PNG frames from this directory instead of the capture device")
	f.BoolVar(&flags.silent, "silent", false, "do not send alarm commands")
	f.BoolVar(&flags.gui, "gui", false, "show the supervisor window")
	f.BoolVar(&flags.window, "window", false, "show the OpenCV preview window")
	f.BoolVar(&flags.restart, "restart", false, "restart the table after device failures")
	return cmd
}

// apply copies the flags that were set onto the loaded settings
func (f *runFlags) apply(cmd *cobra.Command, settings *config.Settings) {
	changed := cmd.Flags().Changed
	if changed("serial") {
		settings.Bot.SerialPort = f.serial
	}
	if changed("replay") {
		settings.Bot.ReplayDir = f.replay
	}
	if changed("silent") {
		settings.Bot.Silent = f.silent
	}
	if changed("gui") {
		settings.Bot.UseGUI = f.gui
	}
	if changed("window") {
		settings.Bot.ShowWindow = f.window
	}
	if changed("restart") {
		settings.Restart.Enabled = f.restart
	}
}

// parseParams turns name=value pairs into table parameter overrides
func parseParams(pairs []string) (map[string]int, error) {
	params := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %q is not an integer", name, value)
		}
		params[name] = n
	}
	return params, nil
}

// loadManager loads the template registry (when configured) and every table
func loadManager(cfg *bot.Config) (*bot.Manager, error) {
	var matcher actions.TemplateMatcher
	if cfg.TemplatesFile != "" {
		registry := templates.NewTemplateRegistry("")
		if err := registry.LoadFromFile(cfg.TemplatesFile); err != nil {
			return nil, err
		}
		matcher = registry
	}

	tables := actions.NewTableRegistry(cfg.TablesDir).WithTemplates(matcher)
	if err := tables.Load(); err != nil {
		return nil, fmt.Errorf("failed to load tables from %s: %w", cfg.TablesDir, err)
	}
	return bot.NewManager(tables, matcher), nil
}

func runTable(cmd *cobra.Command, opts *options, flags *runFlags, name string) error {
	flags.apply(cmd, opts.settings)
	cfg := opts.settings.Bot

	params, err := parseParams(flags.params)
	if err != nil {
		return err
	}

	manager, err := loadManager(cfg)
	if err != nil {
		return err
	}
	// Fail on a bad table before touching any device
	if _, err := manager.Table(name, params); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewEventBus(256)
	defer bus.Stop()
	eventLogger := logging.NewEventLogger(bus)
	defer eventLogger.Close()

	var window *gui.SupervisorWindow
	var display cv.Display
	switch {
	case cfg.UseGUI:
		window = gui.NewSupervisorWindow(fyneapp.NewWithID("com.jordanella.switch-farm-go"), "switchbot: "+name)
		window.Attach(bus)
		display = window
	case cfg.ShowWindow:
		display = opencv.NewWindow("switchbot: "+name, opencv.DefaultCancelKey)
	default:
		display = cv.NewNullDisplay()
	}

	b, closers, err := openBot(ctx, cfg, display, manager, bus)
	defer closeAll(closers)
	if err != nil {
		if window == nil {
			_ = display.Close()
		}
		return err
	}

	exec := func() (bot.Result, error) {
		defer func() {
			if err := b.Shutdown(); err != nil {
				log.Error("Shutdown failed", err)
			}
		}()
		return manager.ExecuteWithRestart(b, name, params, opts.settings.Restart)
	}

	var result bot.Result
	var runErr error
	if window != nil {
		window.Bind(b)
		done := make(chan struct{})
		go func() {
			defer close(done)
			result, runErr = exec()
		}()
		window.ShowAndRun()
		// The app can quit without going through the close intercept
		window.RequestCancel()
		<-done
	} else {
		result, runErr = exec()
	}

	printResult(cmd.OutOrStdout(), result, b.Counters())
	if code := result.ExitCode(); code != 0 || runErr != nil {
		if code == 0 {
			code = 1
		}
		return &exitError{code: code, err: runErr}
	}
	return nil
}

// openBot opens the devices and creates the bot. The returned closers cover
// the resources the bot does not own, even on error.
func openBot(ctx context.Context, cfg *bot.Config, display cv.Display, manager *bot.Manager, bus events.EventBus) (*bot.Bot, []io.Closer, error) {
	var closers []io.Closer

	capturer, err := openCapturer(cfg)
	if err != nil {
		return nil, closers, err
	}

	ctrl, err := controller.Open(cfg.Serial())
	if err != nil {
		_ = capturer.Close()
		return nil, closers, err
	}

	devices := bot.Devices{
		Sampler:    cv.NewSampler(capturer, display),
		Controller: ctrl,
		Templates:  manager.Templates(),
		Events:     bus,
	}

	if client, err := tesseract.New(cfg.OCRLanguage); err != nil {
		log.WarnWithContext("OCR unavailable, text conditions will fail", map[string]interface{}{
			"language": cfg.OCRLanguage,
			"error":    err.Error(),
		})
	} else {
		devices.OCR = client
		closers = append(closers, client)
	}

	if cfg.JournalPath != "" {
		journal, err := database.OpenJournal(cfg.JournalPath)
		if err != nil {
			_ = ctrl.Close()
			_ = capturer.Close()
			return nil, closers, err
		}
		devices.Journal = journal
		closers = append(closers, journal)
	}

	b, err := bot.New(ctx, cfg, devices)
	if err != nil {
		_ = ctrl.Close()
		_ = capturer.Close()
		return nil, closers, err
	}
	return b, closers, nil
}

func openCapturer(cfg *bot.Config) (cv.Capturer, error) {
	if cfg.ReplayDir != "" {
		return cv.NewReplayCapturer(cfg.ReplayDir, cfg.ReplayLoop)
	}
	return opencv.OpenVideoCapture(cfg.Capture())
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			log.Error("Close failed", err)
		}
	}
}

func printResult(w io.Writer, result bot.Result, counters *actions.Counters) {
	fmt.Fprintf(w, "%s: %s in %s after %d ticks (%d transitions, %d alarms, %s)\n",
		result.Table, result.Status, result.FinalState, result.Ticks,
		result.Stats.Transitions, result.Stats.Alarms, result.Duration.Round(time.Millisecond))

	snapshot := counters.Snapshot()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s = %v\n", name, snapshot[name])
	}
}
