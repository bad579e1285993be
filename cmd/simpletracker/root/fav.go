package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezmoss/simpletracker/internal/session"
)

func newFavCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fav",
		Aliases: []string{"favorites"},
		Short:   "List favorite tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				list := sess.Favorites.List()
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("no favorites yet"))
					return nil
				}
				for _, t := range list {
					printTask(cmd, t)
				}
				return nil
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <task>",
		Short: "Add a task to the favorites or remove it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				t, err := findTask(sess, args[0])
				if err != nil {
					return err
				}
				if err := sess.Favorites.Toggle(ctx, t); err != nil {
					return err
				}
				state := "removed from"
				if sess.Favorites.Contains(t.ID) {
					state = "added to"
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("✓ %s %s favorites", t.Name, state)))
				return nil
			})
		},
	})
	return cmd
}
