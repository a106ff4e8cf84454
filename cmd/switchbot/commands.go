package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"jordanella.com/switch-farm-go/internal/config"
	"jordanella.com/switch-farm-go/internal/controller"
	"jordanella.com/switch-farm-go/internal/database"
)

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [table...]",
		Short: "Check that state tables load and build",
		Long:  "Validate every table under the tables directory, or only the named ones.",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := loadManager(opts.settings.Bot)
			if err != nil {
				return err
			}
			tables := manager.Tables()
			out := cmd.OutOrStdout()

			names := args
			if len(names) == 0 {
				names = append(tables.ListValid(), tables.ListInvalid()...)
			}
			if len(names) == 0 {
				fmt.Fprintf(out, "no tables found in %s\n", opts.settings.Bot.TablesDir)
				return nil
			}

			failed := 0
			for _, name := range names {
				if _, err := tables.Get(name); err != nil {
					failed++
					fmt.Fprintf(out, "FAIL  %s: %v\n", name, err)
					continue
				}
				line := "ok    " + name
				if md, ok := tables.Metadata(name); ok && md.Description != "" {
					line += " - " + md.Description
				}
				fmt.Fprintln(out, line)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d tables failed validation", failed, len(names))
			}
			return nil
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int
	var prune time.Duration

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List journaled runs, or show one run's transitions and alarms",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.settings.Bot.JournalPath
			if path == "" {
				return fmt.Errorf("no journal configured, set [Paths] journal in the settings file")
			}
			db, err := database.OpenJournal(path)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if prune > 0 {
				deleted, err := db.DeleteRunsBefore(time.Now().Add(-prune))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted %d runs older than %s\n", deleted, prune)
			}

			if len(args) == 1 {
				return showRun(cmd, db, args[0])
			}
			return listRuns(cmd, db, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")
	cmd.Flags().DurationVar(&prune, "prune", 0, "delete runs started longer ago than this first")
	return cmd
}

func listRuns(cmd *cobra.Command, db *database.DB, limit int) error {
	runs, err := db.ListRuns(limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTABLE\tRESULT\tFINAL\tTICKS\tSTARTED\tDURATION")
	for _, run := range runs {
		final := "-"
		if run.FinalState != nil {
			final = *run.FinalState
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			run.ID, run.TableName, run.Result, final, run.Ticks,
			run.StartedAt.Local().Format(time.DateTime), run.Duration().Round(time.Second))
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, db *database.DB, runID string) error {
	run, err := db.GetRun(runID)
	if err != nil {
		return err
	}
	transitions, err := db.GetTransitions(runID)
	if err != nil {
		return err
	}
	alarms, err := db.GetAlarms(runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %s from %s, %s after %d ticks\n",
		run.ID, run.TableName, run.InitialState, run.Result, run.Ticks)
	if run.ErrorMessage != nil {
		fmt.Fprintf(out, "error: %s\n", *run.ErrorMessage)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TICK\tFROM\tTO\tRULE")
	for _, t := range transitions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.Tick, t.FromState, t.ToState, t.Rule)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, a := range alarms {
		fmt.Fprintf(out, "alarm in %s at %s: %s\n", a.State, a.OccurredAt.Local().Format(time.TimeOnly), a.Reason)
	}
	return nil
}

func newButtonsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buttons",
		Short: "List the controller commands tables can press",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBYTE\tDESCRIPTION")
			for _, c := range controller.Commands {
				fmt.Fprintf(w, "%s\t%q\t%s\n", c.Name, rune(c.Code), c.Description)
			}
			return w.Flush()
		},
	}
}

func newInitConfigCmd(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write the current settings, defaults included, to the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := config.SaveToINI(opts.settings, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
