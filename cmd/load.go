package main

import (
	"runtime"
	"time"

	"github.com/okian/stagerank/internal/loadgen"
	"github.com/okian/stagerank/internal/twin"
	"github.com/okian/stagerank/pkg/logger"
	"github.com/spf13/cobra"
)

func loadCmd() *cobra.Command {
	var (
		cfg         loadgen.Config
		venueCount  int
		ratersCount int
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Drive a running server with generated ratings and verify the boards",
		Long: `Logs in with each token, submits one batch of ratings per rater for every
performer on their venue's roster, waits for the batches to settle and checks
tonight's leaderboards against the ratings that were accepted.

Against "stagerank twin --raters N", pass --venues and --raters to use the
generated rater-<venue>-<n> tokens.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return err
			}
			for vi := 0; vi < venueCount; vi++ {
				for n := 1; n <= ratersCount; n++ {
					cfg.Tokens = append(cfg.Tokens, twin.RaterToken(vi, n))
				}
			}
			_, err := loadgen.Run(cmd.Context(), cfg)
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	cmd.Flags().StringSliceVar(&cfg.Tokens, "token", nil, "login token (repeatable)")
	cmd.Flags().IntVar(&venueCount, "venues", 0, "number of generated twin venues")
	cmd.Flags().IntVar(&ratersCount, "raters", 0, "generated twin raters per venue")
	cmd.Flags().IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "number of concurrent submitters")
	cmd.Flags().Float64Var(&cfg.RPS, "rps", 0, "request rate limit (0: unlimited)")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "HTTP request timeout")
	cmd.Flags().DurationVar(&cfg.SettleTimeout, "settle", 30*time.Second, "how long to wait for queued submissions")
	cmd.Flags().StringVar(&cfg.OutputFile, "output", "", "save generated submissions to this JSON file")
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "log every rejected submission")
	return cmd
}
