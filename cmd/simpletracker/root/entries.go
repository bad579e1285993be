package root

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/session"
	"github.com/rezmoss/simpletracker/internal/timeutil"
)

const entryTimeLayout = "2006-01-02 15:04"

func newEntriesCmd() *cobra.Command {
	var (
		pages   int
		verbose bool
	)
	cmd := &cobra.Command{
		Use:     "entries",
		Aliases: []string{"log"},
		Short:   "List finished time entries grouped by day",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				for i := 1; i < pages && sess.Timeline.HasMore(); i++ {
					if err := sess.Timeline.FetchEntries(ctx); err != nil {
						return err
					}
				}
				out := cmd.OutOrStdout()
				days := sess.Timeline.Days()
				if len(days) == 0 {
					fmt.Fprintln(out, mutedStyle.Render("no entries yet"))
					return nil
				}
				now := time.Now()
				for _, day := range days {
					fmt.Fprintf(out, "%s  %s\n", headStyle.Render(timeutil.EntriesDateString(day.Date, now)),
						timeutil.DurationStringMs(day.TotalTime))
					for _, g := range day.Tasks() {
						fmt.Fprintf(out, "  %s  %s\n", timeutil.DurationStringMs(g.TotalTime), g.Name)
						if !verbose {
							continue
						}
						for _, e := range g.Entries {
							fmt.Fprintf(out, "      %s-%s  %s\n",
								e.StartTime.Local().Format("15:04"), e.EndTime.Local().Format("15:04"),
								mutedStyle.Render(e.ID))
						}
					}
				}
				if sess.Timeline.HasMore() {
					fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("more entries available, use --pages %d", pages+1)))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&pages, "pages", "p", 1, "number of pages to load")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list every entry with its id")
	cmd.AddCommand(newEntryEditCmd(), newEntryRmCmd())
	return cmd
}

func newEntryEditCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "edit <entry-id>",
		Short: "Change the start or end time of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				entry, ok := sess.EntryStore.Get(args[0])
				if !ok {
					return fmt.Errorf("entry %q: %w", args[0], model.ErrNotFound)
				}
				if start != "" {
					t, err := time.ParseInLocation(entryTimeLayout, start, time.Local)
					if err != nil {
						return model.Invalid("--start: %v", err)
					}
					entry.StartTime = t
				}
				if end != "" {
					t, err := time.ParseInLocation(entryTimeLayout, end, time.Local)
					if err != nil {
						return model.Invalid("--end: %v", err)
					}
					entry.EndTime = &t
				}
				if err := sess.Timeline.Update(ctx, entry); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ entry updated"))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "new start time ("+entryTimeLayout+")")
	cmd.Flags().StringVar(&end, "end", "", "new end time ("+entryTimeLayout+")")
	cmd.MarkFlagsOneRequired("start", "end")
	return cmd
}

func newEntryRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <entry-id>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				if err := sess.Timeline.Remove(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ entry deleted"))
				return nil
			})
		},
	}
}
