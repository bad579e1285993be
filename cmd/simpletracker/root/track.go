package root

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/qrcode"
	"github.com/rezmoss/simpletracker/internal/session"
	"github.com/rezmoss/simpletracker/internal/timeutil"
	"github.com/rezmoss/simpletracker/internal/tracker"
)

func newTrackCmd() *cobra.Command {
	var (
		code   string
		name   string
		qr     string
		create bool
	)
	cmd := &cobra.Command{
		Use:   "track [task]",
		Short: "Start tracking a task, stopping the running one",
		Long: "Start tracking the task given by id, alt code or name. " +
			"--code and --name create the task on the backend when nothing matches; " +
			"--qr takes the JSON payload scanned from a task QR code.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				switch {
				case create:
					if name == "" {
						return model.Invalid("--new needs --name")
					}
					if _, err := sess.Tracker.TrackNew(ctx, name, code); err != nil {
						return err
					}
				case len(args) == 1:
					task, err := findTask(sess, args[0])
					if err != nil {
						return err
					}
					if err := sess.Tracker.Track(ctx, &task); err != nil {
						return err
					}
				default:
					params := model.TrackParams{AltCode: code, Name: name}
					if qr != "" {
						p, err := qrcode.Parse(qr)
						if err != nil {
							return err
						}
						params = p
					}
					if err := sess.Tracker.TrackWith(ctx, params); err != nil {
						return err
					}
				}
				printStatus(cmd, sess.Tracker.Snapshot(), time.Now())
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&code, "code", "c", "", "alt code of the task")
	cmd.Flags().StringVarP(&name, "name", "n", "", "task name")
	cmd.Flags().StringVar(&qr, "qr", "", "QR code payload, e.g. '{\"altCode\":\"A1\"}'")
	cmd.Flags().BoolVar(&create, "new", false, "create a new task from --name and --code")
	cmd.MarkFlagsMutuallyExclusive("qr", "new")
	return cmd
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				st := sess.Tracker.Snapshot()
				if err := sess.Tracker.Stop(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s stopped %s after %s\n", idleStyle.Render("■"),
					st.Task.Name, timeutil.DurationString(st.Elapsed(time.Now())))
				return nil
			})
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				printStatus(cmd, sess.Tracker.Snapshot(), time.Now())
				return nil
			})
		},
	}
}

func printStatus(cmd *cobra.Command, st tracker.State, now time.Time) {
	out := cmd.OutOrStdout()
	if st.Phase != tracker.Tracking || st.Task == nil {
		fmt.Fprintln(out, idleStyle.Render("● not tracking"))
		return
	}
	fmt.Fprintf(out, "%s %s\n", okStyle.Render("● "+st.Task.Name), timeutil.DurationString(st.Elapsed(now)))
	fmt.Fprintln(out, mutedStyle.Render("since "+st.Entry.StartTime.Local().Format("Jan 2 15:04")))
}
