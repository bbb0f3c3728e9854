package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ownerchain/internal/lifecycle"
	"github.com/roach88/ownerchain/internal/record"
)

// NewActivityCommand creates the activity command group.
func NewActivityCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Record and summarize activity events",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Summarize logins, dashboard visits and app usage",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			s, err := a.m.ActivitySummary(ctx)
			if err != nil {
				return failure("activity summary", err)
			}
			return a.out.Render(s, func(w io.Writer) { writeSummary(w, s) })
		}),
	})

	var data string
	rec := &cobra.Command{
		Use:   "record <login|dashboard|app>",
		Short: "Record an activity event",
		Long: `Record an activity event. Login events drop the IP address or user agent
when the owner's privacy settings disable tracking them.

Example:
  ownerchain activity record login --data '{"login_method":"passkey","session_id":"s1"}'`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"login", "dashboard", "app"},
		RunE: withApp(opts, func(ctx context.Context, a *app, args []string) error {
			h, err := recordActivity(ctx, a, args[0], data)
			if err != nil {
				return err
			}
			return a.renderHead(h)
		}),
	}
	rec.Flags().StringVar(&data, "data", "", "JSON event payload, - for stdin, or @file")
	cmd.AddCommand(rec)

	return cmd
}

func recordActivity(ctx context.Context, a *app, event, data string) (lifecycle.Head, error) {
	var (
		h   lifecycle.Head
		err error
	)
	switch event {
	case "login":
		var v record.LoginActivity
		if err := readDataInto(a.cmd, data, &v); err != nil {
			return h, err
		}
		h, err = a.m.RecordLogin(ctx, v)
	case "dashboard":
		var v record.DashboardActivity
		if err := readDataInto(a.cmd, data, &v); err != nil {
			return h, err
		}
		h, err = a.m.RecordDashboardVisit(ctx, v)
	case "app":
		var v record.AppActivity
		if err := readDataInto(a.cmd, data, &v); err != nil {
			return h, err
		}
		h, err = a.m.RecordAppEvent(ctx, v)
	default:
		return h, NewExitError(ExitCommandError, fmt.Sprintf("unknown activity %q: must be login, dashboard or app", event))
	}
	if err != nil {
		return h, failure("activity record "+event, err)
	}
	return h, nil
}

func writeSummary(w io.Writer, s lifecycle.Summary) {
	fmt.Fprintf(w, "total logins:        %d\n", s.TotalLogins)
	fmt.Fprintf(w, "logins last 30 days: %d\n", s.LoginsInWindow)
	fmt.Fprintf(w, "unique apps used:    %d\n", s.UniqueApps)
	fmt.Fprintf(w, "dashboard visits:    %d\n", s.DashboardVisits)
	if s.LastLogin != nil {
		fmt.Fprintf(w, "last login:          %s\n", time.UnixMicro(*s.LastLogin).UTC().Format(time.RFC3339))
	}
}
