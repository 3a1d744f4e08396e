package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/okian/stagerank/internal/config"
	"github.com/okian/stagerank/internal/twin"
	"github.com/okian/stagerank/pkg/logger"
	"github.com/spf13/cobra"
)

type twinOptions struct {
	addr       string
	seedFile   string
	venues     []string
	performers int
	raters     int
}

func twinCmd() *cobra.Command {
	var opts twinOptions

	cmd := &cobra.Command{
		Use:   "twin",
		Short: "Serve an in-memory venue backend for local runs and load tests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cfg, err := setup(ctx)
			if err != nil {
				return err
			}
			return runTwin(ctx, cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":9081", "listen address")
	cmd.Flags().StringVar(&opts.seedFile, "seed", "", "YAML seed file (default: built-in demo seed)")
	cmd.Flags().StringSliceVar(&opts.venues, "venue", nil, "generate a roster for these venues instead of seeding")
	cmd.Flags().IntVar(&opts.performers, "performers", 8, "generated performers per venue")
	cmd.Flags().IntVar(&opts.raters, "raters", 0, "login tokens to add per venue (rater-<venue>-<n>)")
	return cmd
}

func buildSeed(opts twinOptions) (twin.Seed, error) {
	var seed twin.Seed
	switch {
	case opts.seedFile != "":
		s, err := twin.LoadSeed(opts.seedFile)
		if err != nil {
			return twin.Seed{}, err
		}
		seed = s
	case len(opts.venues) > 0:
		seed = twin.Generate(opts.venues, opts.performers)
	default:
		seed = twin.DefaultSeed()
	}
	if opts.raters > 0 {
		seed.AddRaters(opts.raters)
	}
	return seed, nil
}

func runTwin(ctx context.Context, cfg *config.Config, opts twinOptions) error {
	log := logger.Get()
	seed, err := buildSeed(opts)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	tw := twin.New(seed,
		twin.WithLocation(loc),
		twin.WithWeekDays(cfg.XPWeekDays),
		twin.WithLogger(log.Named("twin")),
	)

	venues := make([]string, 0, len(seed.Venues))
	for _, v := range seed.Venues {
		venues = append(venues, v.Name)
	}
	log.Info(ctx, "twin backend seeded", logger.Any("venues", venues), logger.Int("tokens", len(seed.Tokens)))

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           tw,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return serveUntilDone(ctx, srv, log)
}
