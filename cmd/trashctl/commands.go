package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ypg-dashboard/internal/logger"
	"ypg-dashboard/internal/model"
	"ypg-dashboard/internal/trash"
)

type session struct {
	dashboard *trash.Dashboard
	notes     *trash.Recorder
	out       io.Writer
}

func newSession(out io.Writer) *session {
	log, _ := logger.New(logger.Options{Level: logLevel, Console: os.Stderr})
	slog.SetDefault(log)

	notes := &trash.Recorder{}
	client := trash.NewHTTPClient(apiBaseURL, timeout, trash.WithActor(actor))
	return &session{
		dashboard: trash.NewDashboard(client, notes, trash.Options{}),
		notes:     notes,
		out:       out,
	}
}

// flush prints notifications raised since the last call.
func (s *session) flush() {
	for _, note := range s.notes.Drain() {
		mark := "✓"
		if note.Level == model.NotificationError {
			mark = "✗"
		}
		fmt.Fprintf(s.out, "%s %s\n", mark, note.Message)
	}
}

func (s *session) refresh(ctx context.Context) error {
	_, err := s.dashboard.Refresh(ctx)
	s.flush()
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

func listCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deleted items across all categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			s := newSession(cmd.OutOrStdout())
			if err := s.dashboard.SetFilter(filter); err != nil {
				return err
			}
			if err := s.refresh(ctx); err != nil {
				return err
			}
			return printSnapshot(s.out, s.dashboard.Snapshot())
		},
	}
	cmd.Flags().StringVarP(&filter, "category", "c", model.FilterAll, "category to show, or \"all\"")
	return cmd
}

func printSnapshot(out io.Writer, snap trash.Snapshot) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tCATEGORY\tLABEL\tDELETED")
	for _, item := range snap.Items {
		deleted := "-"
		if !item.DeletedAt.IsZero() {
			deleted = item.DeletedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.Key, item.CategoryLabel, item.Label, deleted)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d item(s) shown, %d in trash\n", len(snap.Items), snap.Total)
	return nil
}

func actionCmd(name string, short string, irreversible bool) *cobra.Command {
	var yes bool
	action := model.ActionRestore
	if irreversible {
		action = model.ActionDelete
	}

	cmd := &cobra.Command{
		Use:   name + " KEY...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, keys []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			s := newSession(cmd.OutOrStdout())
			if err := s.refresh(ctx); err != nil {
				return err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			if len(keys) == 1 {
				return runSingle(ctx, s, in, action, keys[0], yes)
			}
			return runBulk(ctx, s, in, action, keys, yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runSingle(ctx context.Context, s *session, in *bufio.Reader, action model.Action, key string, yes bool) error {
	intent, err := s.dashboard.OpenIntent(action, key)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "%s\n%s\n", intent.Title, intent.Message)
	if intent.Warning != "" {
		fmt.Fprintf(s.out, "Warning: %s\n", intent.Warning)
	}

	if !yes && !confirm(in, s.out) {
		_ = s.dashboard.CancelIntent(intent.ID)
		fmt.Fprintln(s.out, "Cancelled.")
		return nil
	}

	outcome, err := s.dashboard.ConfirmIntent(ctx, intent.ID)
	s.flush()
	if err != nil {
		return err
	}
	if !outcome.Succeeded {
		return errors.New(outcome.Error)
	}
	return nil
}

func runBulk(ctx context.Context, s *session, in *bufio.Reader, action model.Action, keys []string, yes bool) error {
	verb := "Restore"
	if action == model.ActionDelete {
		verb = "Permanently delete"
	}
	fmt.Fprintf(s.out, "%s %d items?\n", verb, len(keys))
	if action == model.ActionDelete {
		fmt.Fprintln(s.out, "Warning: This action cannot be undone.")
	}

	if !yes && !confirm(in, s.out) {
		fmt.Fprintln(s.out, "Cancelled.")
		return nil
	}

	outcome, err := s.dashboard.Bulk(ctx, action, keys)
	s.flush()
	if err != nil {
		return err
	}
	for _, failed := range outcome.Failed {
		fmt.Fprintf(s.out, "  %s: %s\n", failed.Key, failed.Error)
	}
	if len(outcome.Failed) > 0 {
		return fmt.Errorf("%d of %d items failed", len(outcome.Failed), outcome.Requested)
	}
	return nil
}

func confirm(in *bufio.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Continue? [y/N] ")
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
