package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tile-timelapse/internal/common"
)

func newRebuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild <target>",
		Short: "Re-encode a target's animation from its stored snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *App) error {
				path, frames, err := app.Rebuild(args[0])
				if err != nil {
					return fmt.Errorf("rebuild %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d frames)\n", path, frames)
				return nil
			})
		},
	}
}

func newSnapshotsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots <target>",
		Short: "List a target's stored snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *App) error {
				snaps, err := app.Snapshots(args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(snaps) == 0 {
					fmt.Fprintf(out, "No snapshots stored for %s\n", args[0])
					return nil
				}
				rows := make([][]string, 0, len(snaps))
				for i, snap := range snaps {
					taken := ""
					if !snap.Taken.IsZero() {
						taken = common.FormatDisplay(snap.Taken)
					}
					rows = append(rows, []string{strconv.Itoa(i + 1), snap.Name, taken, snap.Path})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Snapshot", "Taken", "Path"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}
}

func newTargetsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List configured targets with their tile grid and crop size",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			targets, err := cfg.AllTargets()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(targets) == 0 {
				fmt.Fprintln(out, "No targets configured")
				return nil
			}

			rows := make([][]string, 0, len(targets))
			for _, t := range targets {
				grid, crop := "", ""
				reg, err := regionFor(cfg, t)
				if err != nil {
					crop = "invalid: " + err.Error()
				} else {
					grid = fmt.Sprintf("%dx%d", reg.GridWidth(), reg.GridHeight())
					crop = fmt.Sprintf("%dx%d px", reg.CropRect().Dx(), reg.CropRect().Dy())
				}
				rows = append(rows, []string{t.Name, yesNo(t.IsEnabled()), t.Start, t.End, grid, crop})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Target", "Enabled", "Start", "End", "Tiles", "Crop"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}
