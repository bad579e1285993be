package root

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rezmoss/simpletracker/internal/chart"
	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/session"
	"github.com/rezmoss/simpletracker/internal/ui"
)

const chartBarWidth = 40

type chartFlags struct {
	title   string
	period  string
	groupBy []string
	x, y    string
}

func (f *chartFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "Time per task", "chart title")
	cmd.Flags().StringVarP(&f.period, "period", "p", string(model.PeriodThisWeek), "period: today, yesterday, this_week, last_week, this_month, last_month, this_year, last_year")
	cmd.Flags().StringSliceVarP(&f.groupBy, "group", "g", []string{string(model.GroupTask)}, "group by: task_id, tag_id, weekday, month, year, time_entry_id")
	cmd.Flags().StringVarP(&f.x, "x", "x", string(model.FieldTaskName), "x axis field")
	cmd.Flags().StringVarP(&f.y, "y", "y", string(model.FieldDuration), "y axis field")
}

func (f *chartFlags) config() (model.ChartConfig, error) {
	period, err := chart.ParsePeriod(f.period)
	if err != nil {
		return model.ChartConfig{}, err
	}
	cfg := model.ChartConfig{
		Title:      f.title,
		PeriodType: period,
		XAxisField: model.Field(f.x),
		YAxisField: model.Field(f.y),
	}
	for _, g := range f.groupBy {
		cfg.GroupBy = append(cfg.GroupBy, model.GroupKey(g))
	}
	return cfg, chart.Validate(cfg)
}

func newChartCmd() *cobra.Command {
	var flags chartFlags
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Chart tracked time for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				return renderChart(ctx, cmd, sess, cfg)
			})
		},
	}
	flags.register(cmd)
	cmd.AddCommand(newChartSaveCmd(), newChartListCmd(), newChartShowCmd(), newChartRmCmd())
	return cmd
}

func newChartSaveCmd() *cobra.Command {
	var (
		flags chartFlags
		id    string
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a chart configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				var rec model.ChartRecord = model.UnsavedChart{Config: cfg}
				if id != "" {
					prev, ok := sess.Charts.Get(id)
					if !ok {
						return fmt.Errorf("chart %q: %w", id, model.ErrNotFound)
					}
					prev.Config = cfg
					rec = prev
				}
				saved, err := sess.Charts.Save(ctx, rec)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okStyle.Render("✓ saved "+saved.Config.Title), mutedStyle.Render(saved.ID))
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&id, "id", "", "overwrite the saved chart with this id")
	return cmd
}

func newChartListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved charts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				list := sess.Charts.List()
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("no saved charts"))
				}
				for _, c := range list {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s by %v  %s\n", c.Config.Title,
						c.Config.PeriodType, c.Config.GroupBy, mutedStyle.Render(c.ID))
				}
				return nil
			})
		},
	}
}

func newChartShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <chart-id>",
		Short: "Render a saved chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				saved, ok := sess.Charts.Get(args[0])
				if !ok {
					return fmt.Errorf("chart %q: %w", args[0], model.ErrNotFound)
				}
				return renderChart(ctx, cmd, sess, saved.Config)
			})
		},
	}
}

func newChartRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <chart-id>",
		Short: "Delete a saved chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, sess *session.Session) error {
				if err := sess.Charts.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ chart deleted"))
				return nil
			})
		},
	}
}

func renderChart(ctx context.Context, cmd *cobra.Command, sess *session.Session, cfg model.ChartConfig) error {
	data, err := sess.Charts.Render(ctx, cfg, time.Now())
	if err != nil {
		return err
	}
	printChart(cmd, data)
	return nil
}

func printChart(cmd *cobra.Command, data chart.Data) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", headStyle.Render(data.Config.Title), data.Config.PeriodType)
	if len(data.Series) == 0 || len(data.X) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("no data for this period"))
		return
	}
	series := data.Series[0]

	var top int64
	labelWidth := 0
	for i, l := range data.X {
		top = max(top, toInt64(series.Data[i]))
		labelWidth = max(labelWidth, lipgloss.Width(l))
	}
	for i, l := range data.X {
		v := series.Data[i]
		fmt.Fprintf(out, "%-*s %s %s\n", labelWidth, l,
			ui.Bar(toInt64(v), top, chartBarWidth, series.BackgroundColor[i]),
			chart.FormatValue(data.Config.YAxisField, v))
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}
