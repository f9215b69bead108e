package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tile-timelapse/internal/common"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [target]",
		Short: "Show recent run outcomes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) == 1 {
				target = args[0]
			}
			return ctx.withApp(func(app *App) error {
				runs, err := app.History(cmd.Context(), target, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						common.FormatDisplay(run.StartedAt.In(app.cfg.Location())),
						run.Region,
						string(run.Outcome),
						run.Snapshot,
						fmt.Sprintf("%d/%d", run.TilesTotal-run.TilesMissing, run.TilesTotal),
						strconv.Itoa(run.Frames),
						run.Duration().Round(10 * time.Millisecond).String(),
						run.Error,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Started", "Target", "Outcome", "Snapshot", "Tiles", "Frames", "Took", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}
