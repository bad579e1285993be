package root

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/qrcode"
	"github.com/rezmoss/simpletracker/internal/session"
)

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and manage tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				list := sess.Tasks.List()
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("no tasks yet"))
					return nil
				}
				for _, t := range list {
					printTask(cmd, t)
				}
				return nil
			})
		},
	}
	cmd.AddCommand(newTaskAddCmd(), newTaskRenameCmd(), newTaskTagCmd(true), newTaskTagCmd(false), newTaskQRCmd())
	return cmd
}

func printTask(cmd *cobra.Command, t model.Task) {
	star := " "
	if t.IsFavorite {
		star = "★"
	}
	line := fmt.Sprintf("%s %s", star, t.Name)
	if t.AltCode != "" {
		line += mutedStyle.Render(" [" + t.AltCode + "]")
	}
	if len(t.Tags) > 0 {
		names := make([]string, len(t.Tags))
		for i, tag := range t.Tags {
			names[i] = "#" + tag.Name
		}
		line += " " + strings.Join(names, " ")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", line, mutedStyle.Render(t.ID))
}

func newTaskAddCmd() *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				t, err := sess.Tasks.Create(ctx, args[0], code)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ created "+t.Name))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&code, "code", "c", "", "alt code of the task")
	return cmd
}

func newTaskRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <task> <name>",
		Short: "Rename a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				t, err := findTask(sess, args[0])
				if err != nil {
					return err
				}
				t.Name = strings.TrimSpace(args[1])
				if t.Name == "" {
					return model.Invalid("task name is required")
				}
				if err := sess.Tasks.Update(ctx, t); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ renamed to "+t.Name))
				return nil
			})
		},
	}
}

// newTaskTagCmd builds "tag" when attach is set and "untag" otherwise.
func newTaskTagCmd(attach bool) *cobra.Command {
	use, short := "untag <task> <tag>", "Remove a tag from a task"
	if attach {
		use, short = "tag <task> <tag>", "Add a tag to a task"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				t, err := findTask(sess, args[0])
				if err != nil {
					return err
				}
				tag, ok := sess.Tags.ByName(args[1])
				if !ok {
					return fmt.Errorf("tag %q: %w", args[1], model.ErrNotFound)
				}
				if attach {
					err = sess.Tasks.AddTag(ctx, t.ID, tag.ID)
				} else {
					err = sess.Tasks.RemoveTag(ctx, t.ID, tag.ID)
				}
				if err != nil {
					return err
				}
				t, _ = sess.Tasks.Get(t.ID)
				printTask(cmd, t)
				return nil
			})
		},
	}
}

func newTaskQRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "qr <task>",
		Short: "Print the QR code payload that starts a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				t, err := findTask(sess, args[0])
				if err != nil {
					return err
				}
				payload, err := qrcode.Payload(t)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), payload)
				return nil
			})
		},
	}
}
