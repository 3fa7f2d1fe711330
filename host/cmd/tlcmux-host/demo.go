package main

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"tlcmux/host/tlcmux"
)

type demoStep struct {
	name string
	run  func() error
}

// runDemo walks through every protocol command, pausing after each step
// so the effect can be seen on the matrix
func runDemo(ctx context.Context, c *tlcmux.Client, pause time.Duration) error {
	shape := c.Shape()
	row := func(r int) int { return min(r, shape.Rows-1) }
	fill := func(n, v int) []int {
		return slices.Repeat([]int{v}, n)
	}
	fillBytes := func(n int, v byte) []byte {
		return slices.Repeat([]byte{v}, n)
	}

	steps := []demoStep{
		{"clear", c.Clear},
		{"set(0, 0, 4095)", func() error { return c.Set(0, 0, 4095) }},
		{"setRow(1, 2048)", func() error { return c.SetRow(row(1), fill(shape.Channels(), 2048)) }},
		{"clearRow(0)", func() error { return c.ClearRow(0) }},
		{"setAll(1000)", func() error { return c.SetAll(1000) }},
		{"clearRow(1)", func() error { return c.ClearRow(row(1)) }},
		{"setRowAll(7, 1)", func() error { return c.SetRowAll(row(7), 1) }},
		{"setRow(5, 20)", func() error { return c.SetRow(row(5), fill(shape.Channels(), 20)) }},
		{"get(0, 0)", func() error {
			v, err := c.Get(0, 0)
			if err == nil {
				fmt.Printf("channel 0 of row 0 = %d\n", v)
			}
			return err
		}},
		{"getRow(5)", func() error {
			values, err := c.GetRow(row(5))
			if err == nil {
				fmt.Printf("row %d = %v\n", row(5), values)
			}
			return err
		}},
		{"modifyRow(4, 0x0a)", func() error { return c.ModifyRow(row(4), fillBytes(shape.RowBytes(), 10)) }},
		{"modifyArray(0, 0x05)", func() error { return c.ModifyArray(0, fillBytes(shape.RowBytes(), 5)) }},
	}

	for _, step := range steps {
		log.Info().Str("step", step.name).Msg("demo")
		if err := step.run(); err != nil {
			return fmt.Errorf("demo %s: %w", step.name, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
	return nil
}
