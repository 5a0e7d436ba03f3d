package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ib-77/ringrail/pkg/rail/chain"
	"github.com/ib-77/ringrail/pkg/rail/core"
	"github.com/ib-77/ringrail/pkg/rail/ring"
	"github.com/ib-77/ringrail/pkg/rail/solo"
	"github.com/ib-77/ringrail/pkg/rail/stage"
)

type benchOptions struct {
	items       int
	handlers    int
	writers     int
	discipline  ring.Discipline
	minCapacity int
}

type benchReport struct {
	Items      int
	Received   int64
	Duplicates int
	Missing    int
	Took       time.Duration
}

func (r benchReport) String() string {
	perSec := 0.0
	if r.Took > 0 {
		perSec = float64(r.Received) / r.Took.Seconds()
	}
	return fmt.Sprintf("items=%d received=%d duplicates=%d missing=%d took=%s rate=%.0f/s",
		r.Items, r.Received, r.Duplicates, r.Missing, r.Took, perSec)
}

func newBenchCmd(a *app) *cobra.Command {
	var (
		items      int
		handlers   int
		writers    int
		discipline string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Push integers through a handler pool and check every one arrives exactly once",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("handlers") {
				handlers = a.cfg.Pipeline.Handlers
			}
			d := a.cfg.Discipline()
			if cmd.Flags().Changed("discipline") {
				parsed, err := ring.ParseDiscipline(discipline)
				if err != nil {
					return err
				}
				d = parsed
			}

			report, err := runBench(cmd.Context(), benchOptions{
				items:       items,
				handlers:    handlers,
				writers:     writers,
				discipline:  d,
				minCapacity: a.cfg.Pipeline.MinCapacity,
			}, a.settings())
			if err != nil {
				return err
			}

			a.log.Info("bench finished",
				zap.Int("items", report.Items),
				zap.Int64("received", report.Received),
				zap.Duration("took", report.Took))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), report)
			return err
		}),
	}

	flags := cmd.Flags()
	flags.IntVar(&items, "items", 100000, "number of items to publish")
	flags.IntVar(&handlers, "handlers", 4, "handlers of the bench stage")
	flags.IntVar(&writers, "writers", 1, "concurrent publishers")
	flags.StringVar(&discipline, "discipline", "exclusive", "exclusive or roundrobin")
	return cmd
}

func runBench(ctx context.Context, o benchOptions, settings core.Settings) (benchReport, error) {
	if o.items < 0 {
		return benchReport{}, fmt.Errorf("items must not be negative, got %d", o.items)
	}

	counts := make([]atomic.Int32, o.items)
	var received atomic.Int64

	work := stage.New[int, int]("bench", solo.Map(func(_ context.Context, v int) int { return v }),
		stage.WithContext(ctx),
		stage.WithHandlers(o.handlers),
		stage.WithDiscipline(o.discipline),
		stage.WithMinCapacity(o.minCapacity))
	check := stage.New[int, int]("bench-check", stage.ProcessorFunc[int, int](func(_ context.Context, v int, _ func(int)) error {
		counts[v].Add(1)
		received.Add(1)
		return nil
	}), stage.WithContext(ctx), stage.WithMinCapacity(o.minCapacity))

	c := chain.New(chain.WithSettings(settings))
	if err := c.Link(work, check); err != nil {
		return benchReport{}, err
	}

	payload := make([]any, o.items)
	for i := range payload {
		payload[i] = i
	}

	start := time.Now()
	err := c.SubmitParallel(ctx, o.writers, payload...)
	c.Shutdown()
	report := benchReport{Items: o.items, Received: received.Load(), Took: time.Since(start)}
	if err != nil {
		return report, err
	}

	for i := range counts {
		switch n := counts[i].Load(); {
		case n == 0:
			report.Missing++
		case n > 1:
			report.Duplicates++
		}
	}
	return report, nil
}
