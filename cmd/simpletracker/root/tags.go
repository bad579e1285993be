package root

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/session"
)

func newTagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List and manage tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				list := sess.Tags.List()
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("no tags yet"))
					return nil
				}
				for _, t := range list {
					printTag(cmd, t)
				}
				return nil
			})
		},
	}
	cmd.AddCommand(newTagAddCmd(), newTagEditCmd(), newTagRmCmd())
	return cmd
}

func printTag(cmd *cobra.Command, t model.Tag) {
	dot := lipgloss.NewStyle().Foreground(lipgloss.Color(t.HexColor)).Render("●")
	fmt.Fprintf(cmd.OutOrStdout(), "%s #%s %s\n", dot, t.Name, mutedStyle.Render(t.HexColor))
}

func newTagAddCmd() *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				t, err := sess.Tags.Add(ctx, args[0], color)
				if err != nil {
					return err
				}
				printTag(cmd, t)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "hex color, random when empty")
	return cmd
}

func newTagEditCmd() *cobra.Command {
	var name, color string
	cmd := &cobra.Command{
		Use:   "edit <tag>",
		Short: "Rename or recolor a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				t, ok := sess.Tags.ByName(args[0])
				if !ok {
					return fmt.Errorf("tag %q: %w", args[0], model.ErrNotFound)
				}
				if name != "" {
					t.Name = name
				}
				if color != "" {
					t.HexColor = color
				}
				if err := sess.Tags.Update(ctx, t); err != nil {
					return err
				}
				t, _ = sess.Tags.Get(t.ID)
				printTag(cmd, t)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&color, "color", "", "new hex color")
	cmd.MarkFlagsOneRequired("name", "color")
	return cmd
}

func newTagRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <tag>",
		Short: "Delete a tag and detach it from every task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				t, ok := sess.Tags.ByName(args[0])
				if !ok {
					return fmt.Errorf("tag %q: %w", args[0], model.ErrNotFound)
				}
				if err := sess.Tags.Remove(ctx, t.ID); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ deleted #"+t.Name))
				return nil
			})
		},
	}
}
