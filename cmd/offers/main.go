package main

//go:generate qtc -dir=templates

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

const (
	pollIntervalKey = "poll-interval"
	fetchTimeoutKey = "fetch-timeout"
	latencyKey      = "latency"
	seedKey         = "seed"
	logLevelKey     = "log-level"
	metricsAddrKey  = "metrics-addr"
	airportKey      = "airport"
	offeredKey      = "offered"
	requestedKey    = "requested"
	forKey          = "for"
	churnKey        = "churn"
)

func main() {
	cmd := &cli.Command{
		Name:  "offers",
		Usage: "Browse currency exchange offers through shared polling caches",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    pollIntervalKey,
				Usage:   "How often observed offers are refetched",
				Value:   4 * time.Second,
				Sources: cli.EnvVars("SCREWLESS_POLL_INTERVAL"),
			},
			&cli.DurationFlag{
				Name:    fetchTimeoutKey,
				Usage:   "Upper bound for a single fetch, 0 disables it",
				Sources: cli.EnvVars("SCREWLESS_FETCH_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    latencyKey,
				Usage:   "Simulated round trip of every backend call",
				Value:   50 * time.Millisecond,
				Sources: cli.EnvVars("SCREWLESS_LATENCY"),
			},
			&cli.UintFlag{
				Name:    seedKey,
				Usage:   "Number of random offers created at startup",
				Value:   12,
				Sources: cli.EnvVars("SCREWLESS_SEED"),
			},
			&cli.StringFlag{
				Name:    logLevelKey,
				Usage:   "trace, debug, info, warn or error",
				Value:   "info",
				Sources: cli.EnvVars("SCREWLESS_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    metricsAddrKey,
				Usage:   "Serve Prometheus metrics on this address, e.g. :9090",
				Sources: cli.EnvVars("SCREWLESS_METRICS_ADDR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Print every live offer, or the offers of one pair",
				Flags:  pairFlags(),
				Action: list,
			},
			{
				Name:      "show",
				Usage:     "Print a single offer",
				ArgsUsage: "[action hash]",
				Action:    show,
			},
			{
				Name:  "watch",
				Usage: "Keep the offer table on screen while offers change underneath",
				Flags: append(pairFlags(),
					&cli.DurationFlag{
						Name:  forKey,
						Usage: "Stop watching after this long",
						Value: time.Minute,
					},
					&cli.DurationFlag{
						Name:  churnKey,
						Usage: "How often a random offer is created, updated or deleted",
						Value: 3 * time.Second,
					},
				),
				Action: watch,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
		log.Fatal().Err(err).Msg("offers failed")
	}
}

func pairFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: airportKey, Usage: "Airport code of the pair"},
		&cli.StringFlag{Name: offeredKey, Usage: "Offered currency of the pair"},
		&cli.StringFlag{Name: requestedKey, Usage: "Requested currency of the pair"},
	}
}
