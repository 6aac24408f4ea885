package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/screwless/lazy"
)

const (
	profileKey = "cpuprofile"
	itersKey   = "iters"
)

var (
	keyCounts        = []int{1, 10, 100, 1_000, 10_000}
	subscriberCounts = []int{1, 10, 100, 1_000}
	goroutineCounts  = []int{1, 4, 16}
)

type key uint64

func (k key) Sum64() uint64 {
	var b [8]byte
	for i := range b {
		b[i] = byte(k >> (8 * i))
	}
	return xxhash.Sum64(b[:])
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure cache lookups, fan-out and poller round trips",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this file",
				Value: "default.pgo",
			},
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Samples per row",
				Value: 100,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if path := cmd.String(profileKey); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := pprof.StartCPUProfile(f); err != nil {
					return err
				}
				defer pprof.StopCPUProfile()
			}

			iters := int(cmd.Uint(itersKey))
			log.Info().Int("iters", iters).Msg("warming up")
			benchmarkCache(iters, false)

			start := time.Now()
			benchmarkCache(iters, true)
			benchmarkFanout(iters, true)
			benchmarkPoller(iters, true)
			log.Info().Dur("took", time.Since(start)).Msg("finished")
			return nil
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("benchmark failed")
	}
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendCalc(tbl table.Writer, name string, tach *tachymeter.Tachymeter) {
	calc := tach.Calc()
	tbl.AppendRow(table.Row{
		name,
		calc.Time.Avg,
		calc.Time.Min,
		calc.Time.P75,
		calc.Time.P99,
		calc.Time.Max,
	})
}

// benchmarkCache times a full pass over every key from several goroutines at
// once, starting from an empty map.
func benchmarkCache(iters int, shouldRender bool) {
	tbl := newTable("Sharded cache")

	for _, keys := range keyCounts {
		for _, g := range goroutineCounts {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			for i := 0; i < iters; i++ {
				m := lazy.NewHashMap(func(k key) *lazy.Value[int] {
					return lazy.NewValue[int]()
				})

				var wg sync.WaitGroup
				start := time.Now()
				for j := 0; j < g; j++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						for k := 0; k < keys; k++ {
							m.Get(key(k))
						}
					}()
				}
				wg.Wait()
				tach.AddTime(time.Since(start))

				if m.Len() != keys {
					panic(fmt.Sprintf("built %d values for %d keys", m.Len(), keys))
				}
			}

			appendCalc(tbl, fmt.Sprintf("get: %d keys * %d goroutines", keys, g), tach)
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkFanout times a Set reaching every subscriber of one value.
func benchmarkFanout(iters int, shouldRender bool) {
	tbl := newTable("Value fan-out")

	for _, n := range subscriberCounts {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})

		v := lazy.NewValue[int]()
		subs := make([]*lazy.Subscription[int], 0, n)
		for i := 0; i < n; i++ {
			subs = append(subs, v.Subscribe(func(lazy.Status[int]) {}))
		}

		for i := 0; i < iters; i++ {
			start := time.Now()
			v.Set(lazy.Complete(i))
			tach.AddTime(time.Since(start))
		}
		for _, sub := range subs {
			sub.Cancel()
		}

		appendCalc(tbl, fmt.Sprintf("set: %d subscribers", n), tach)
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkPoller times Refresh until the fresh value reached every
// subscriber.
func benchmarkPoller(iters int, shouldRender bool) {
	tbl := newTable("Poller round trip")

	for _, n := range subscriberCounts {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})

		var fetched atomic.Int64
		p := lazy.NewPoller(func(ctx context.Context) (int64, error) {
			return fetched.Add(1), nil
		}, lazy.WithName("benchmark"), lazy.WithInterval(time.Hour))

		var want, hits atomic.Int64
		bindings := make([]*lazy.Binding, 0, n)
		for i := 0; i < n; i++ {
			bindings = append(bindings, lazy.Attach[int64](p, func(s lazy.Status[int64]) {
				if v, ok := s.Value(); ok && v == want.Load() {
					hits.Add(1)
				}
			}))
		}
		for p.Fetching() {
			runtime.Gosched()
		}

		for i := 0; i < iters; i++ {
			want.Store(fetched.Load() + 1)
			hits.Store(0)
			start := time.Now()
			if !p.Refresh() {
				panic("refresh without subscribers")
			}
			for hits.Load() < int64(n) {
				runtime.Gosched()
			}
			tach.AddTime(time.Since(start))
			for p.Fetching() {
				runtime.Gosched()
			}
		}
		for _, b := range bindings {
			b.Close()
		}

		appendCalc(tbl, fmt.Sprintf("refresh: %d subscribers", n), tach)
	}

	if shouldRender {
		tbl.Render()
	}
}
