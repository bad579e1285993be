package root

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezmoss/simpletracker/internal/report"
	"github.com/rezmoss/simpletracker/internal/session"
)

func newReportCmd() *cobra.Command {
	var rng string
	names := make([]string, len(report.Ranges))
	for i, r := range report.Ranges {
		names[i] = string(r)
	}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print tracked time against the daily goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := report.ParseRange(rng)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			gw, err := session.OpenGateway(ctx, cfg, logger)
			if err != nil {
				return err
			}
			if c, ok := gw.(io.Closer); ok {
				defer c.Close()
			}
			rep, err := report.Generate(ctx, gw, r, cfg, time.Now())
			if err != nil {
				return err
			}
			return rep.Write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&rng, "range", "r", string(report.RangeToday), fmt.Sprintf("report range: %s", strings.Join(names, "|")))
	return cmd
}
