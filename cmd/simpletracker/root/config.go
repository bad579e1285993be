package root

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rezmoss/simpletracker/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				shown := *cfg
				if shown.Supabase.Password != "" {
					shown.Supabase.Password = "********"
				}
				b, err := yaml.Marshal(&shown)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			},
		},
		&cobra.Command{
			Use:   "set key=value...",
			Short: "Change settings, e.g. dailygoal=07:30 or workdays=Mon-Fri",
			Long:  "Change settings and save them to the config file. Keys: " + strings.Join(config.Keys, ", "),
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				for _, arg := range args {
					key, value, err := config.ParseAssignment(arg)
					if err != nil {
						return err
					}
					if err := cfg.Set(key, value); err != nil {
						return err
					}
				}
				if err := config.Save(cfgPath, cfg); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ saved to "+cfgPath))
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), cfgPath)
			},
		},
	)
	return cmd
}
