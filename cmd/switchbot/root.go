package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"jordanella.com/switch-farm-go/internal/config"
	"jordanella.com/switch-farm-go/internal/logging"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

// exitError carries a non-zero process status out of a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// options are shared by every subcommand
type options struct {
	configPath string
	settings   *config.Settings
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "switchbot",
		Short:         "Vision-gated state machine bot for a console driven over a serial controller",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadOrDefault(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			opts.settings = settings
			logging.InitializeLogger(settings.Bot.Logging())
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "Settings.ini", "settings file")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newRunCmd(opts),
		newValidateCmd(opts),
		newHistoryCmd(opts),
		newButtonsCmd(),
		newInitConfigCmd(opts),
	)
	return root
}

// execute runs the command line and returns the process exit status
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	defer logging.Sync()
	if err == nil {
		return 0
	}

	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintln(stderr, "Error:", exit.err)
		}
		return exit.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
