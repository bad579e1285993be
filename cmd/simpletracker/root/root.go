// Package root holds the simpletracker command tree.
package root

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/rezmoss/simpletracker/internal/config"
	"github.com/rezmoss/simpletracker/internal/logging"
	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/session"
)

const Version = "0.2.0"

var (
	cfgPath string
	cfg     *config.Config
	logger  *slog.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "simpletracker",
		Short:         "Simple Tracker - track time on tasks from the terminal",
		Long:          "Simple Tracker records time entries against tasks, groups them by day and charts where the time went.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			l, err := logging.New(c.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg, logger = c, l
			return nil
		},
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	cmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "path to the config file")

	cmd.AddCommand(
		newTrackCmd(),
		newStopCmd(),
		newStatusCmd(),
		newEntriesCmd(),
		newTasksCmd(),
		newTagsCmd(),
		newFavCmd(),
		newChartCmd(),
		newReportCmd(),
		newDashboardCmd(),
		newConfigCmd(),
		newLoginCmd(),
		newLogoutCmd(),
	)
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, errStyle.Render("✗ "+err.Error()))
		os.Exit(1)
	}
}

// openSession opens the configured backend and loads everything the
// commands read from.
func openSession(ctx context.Context) (*session.Session, error) {
	sess, err := session.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := sess.Bootstrap(ctx); err != nil {
		_ = sess.Close()
		return nil, err
	}
	return sess, nil
}

// withSession runs fn on a loaded session and closes it afterwards.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, sess *session.Session) error) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("close session", "err", err)
		}
	}()
	return fn(ctx, sess)
}

// findTask resolves ref against task ids, then alt codes, then names.
func findTask(sess *session.Session, ref string) (model.Task, error) {
	if t, ok := sess.TaskStore.Get(ref); ok {
		return t, nil
	}
	if t, ok := sess.TaskStore.Find(func(t model.Task) bool { return t.AltCode != "" && t.AltCode == ref }); ok {
		return t, nil
	}
	if t, ok := sess.TaskStore.Find(func(t model.Task) bool { return t.Name == ref }); ok {
		return t, nil
	}
	return model.Task{}, fmt.Errorf("task %q: %w", ref, model.ErrNotFound)
}
