package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ib-77/ringrail/internal/config"
	"github.com/ib-77/ringrail/pkg/rail/chain"
	"github.com/ib-77/ringrail/pkg/rail/core"
	"github.com/ib-77/ringrail/pkg/rail/solo"
	"github.com/ib-77/ringrail/pkg/rail/stage"
)

func newSumCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sum [file]",
		Short: "Sum the squares of the integers in file, one per line (stdin without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			total, err := sumSquares(cmd.Context(), in, a.cfg.Pipeline, a.settings())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), total)
			return err
		}),
	}
}

// sumSquares runs the parse-int -> square -> sum chain over the lines of r.
// Lines that do not parse are logged and skipped.
func sumSquares(ctx context.Context, r io.Reader, pc config.PipelineConfig, settings core.Settings) (int, error) {
	common := []stage.Option{
		stage.WithContext(ctx),
		stage.WithMinCapacity(pc.MinCapacity),
	}

	parse := stage.New[string, int]("parse-int", solo.Try(func(_ context.Context, line string) (int, error) {
		return strconv.Atoi(line)
	}), common...)
	square := stage.New[int, int]("square", solo.Map(func(_ context.Context, v int) int {
		return v * v
	}), append(common, stage.WithHandlers(pc.Handlers))...)
	sum := stage.New[int, int]("sum", solo.Sum[int](), common...)
	result := solo.Collect[int]()
	tail := stage.New[int, int]("result", result, common...)

	c := chain.New(chain.WithSettings(settings))
	if err := c.Link(parse, square, sum, tail); err != nil {
		return 0, err
	}

	scanErr := scanLines(ctx, r, func(line string) error { return c.Submit(line) })
	c.Shutdown()
	if scanErr != nil {
		return 0, scanErr
	}

	items := result.Items()
	if len(items) == 0 {
		return 0, nil
	}
	return items[0], nil
}

func scanLines(ctx context.Context, r io.Reader, submit func(line string) error) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := submit(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
