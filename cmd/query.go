package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/okian/stagerank/internal/domain/model"
	"github.com/okian/stagerank/internal/domain/scout"
	"github.com/okian/stagerank/internal/domain/types"
	"github.com/okian/stagerank/pkg/logger"
	"github.com/spf13/cobra"
)

func leaderboardCmd() *cobra.Command {
	var (
		venue      string
		scope      string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print a venue's leaderboard from the backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sc, err := model.ParseScope(scope)
			if err != nil {
				return err
			}
			cfg, err := setup(ctx)
			if err != nil {
				return err
			}
			svc, err := newService(cfg, logger.Get())
			if err != nil {
				return err
			}
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = svc.Stop(ctx) }()

			entries, err := svc.Leaderboard(ctx, venue, sc, limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			return writeLeaderboard(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().StringVar(&venue, "venue", "", "venue name")
	cmd.Flags().StringVar(&scope, "scope", "today", "today or all-time")
	cmd.Flags().IntVar(&limit, "limit", 0, "max rows (default: configured maximum)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	_ = cmd.MarkFlagRequired("venue")
	return cmd
}

func scoutCmd() *cobra.Command {
	var (
		email      string
		sp         int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "scout",
		Short: "Show a rater's scout level, or the level a points total reaches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := setup(ctx)
			if err != nil {
				return err
			}
			svc, err := newService(cfg, logger.Get())
			if err != nil {
				return err
			}
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = svc.Stop(ctx) }()

			var st scout.Status
			var out any
			if email != "" {
				rs, err := svc.ScoutStatus(ctx, email)
				if err != nil {
					return err
				}
				st, out = rs.Scout, rs
			} else {
				st = svc.PreviewScout(ctx, sp)
				out = st
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return writeScout(cmd.OutOrStdout(), st)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "rater email; looks up their points")
	cmd.Flags().IntVar(&sp, "sp", 0, "points total to preview when no email is given")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeLeaderboard(w io.Writer, entries []types.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTIER\tNAME\tAVG\tRATINGS\tHYPE\tTREND")
	for _, e := range entries {
		avg := "-"
		if e.RatingCount > 0 {
			avg = strconv.FormatFloat(e.AverageRating, 'f', 2, 64)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n", e.Rank, e.Tier, e.Name, avg, e.RatingCount, e.Hype, e.RatingTrend)
	}
	return tw.Flush()
}

func writeScout(w io.Writer, st scout.Status) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Level\t%s\n", st.LevelName)
	if st.NextLevelName != "" {
		fmt.Fprintf(tw, "Next\t%s (%d SP to go)\n", st.NextLevelName, st.PointsToNext)
	}
	fmt.Fprintf(tw, "Progress\t%.0f%%\n", st.ProgressPercent)
	return tw.Flush()
}
