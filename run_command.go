package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tile-timelapse/internal/common"
	"tile-timelapse/internal/timelapse"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var failOnError bool

	cmd := &cobra.Command{
		Use:   "run [target...]",
		Short: "Capture a snapshot of every enabled target and update its animation",
		Long: `Fetch the tiles of each enabled target, store a new snapshot when the
canvas changed since the last one, and rebuild the target's animation.
Targets are processed one after another; a failing target does not stop the batch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *App) error {
				results, err := app.RunTargets(cmd.Context(), args)
				if len(results) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), renderResults(results))
				}
				if err != nil {
					return err
				}

				failed := 0
				for _, res := range results {
					if res.Outcome == common.OutcomeFailed {
						failed++
					}
				}
				if failed > 0 && failOnError {
					return fmt.Errorf("%d of %d target(s) failed", failed, len(results))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "Exit non-zero when any target failed")
	return cmd
}

func renderResults(results []timelapse.Result) string {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		tiles := ""
		if res.TilesTotal > 0 {
			tiles = fmt.Sprintf("%d/%d", res.TilesTotal-res.TilesMissing, res.TilesTotal)
		}
		frames := ""
		if res.Frames > 0 {
			frames = strconv.Itoa(res.Frames)
		}
		detail := ""
		if res.Err != nil {
			detail = fmt.Sprintf("%s: %v", res.FailedIn, res.Err)
		}
		rows = append(rows, []string{
			res.Region,
			string(res.Outcome),
			res.Snapshot,
			tiles,
			frames,
			detail,
		})
	}
	return renderTable(
		[]string{"Target", "Outcome", "Snapshot", "Tiles", "Frames", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}
