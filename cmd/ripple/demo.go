package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ripple-dev/ripple/pkg/ripple"
)

func demoCmd() *cobra.Command {
	var temps []float64

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the thermostat pipeline locally",
		Long: `Run the temperature-conversion pipeline without a server.

A value cell holds degrees Celsius, an expression derives Fahrenheit,
and an observer prints the display line. Each write is followed by a
flush; the engine recomputes the conversion exactly once per change and
skips writes that do not change the input.

Examples:
  ripple demo
  ripple demo --temp=0 --temp=37 --temp=100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(temps)
		},
	}

	cmd.Flags().Float64SliceVarP(&temps, "temp", "t", []float64{10, 10, -3, 21.5}, "Temperatures (°C) to write, in order")

	return cmd
}

func runDemo(temps []float64) error {
	printBanner()
	fmt.Println("  demo")
	fmt.Println()

	g := ripple.New()

	tempC := ripple.NewValue(g, 20.0)
	tempF := ripple.NewExpr(g, func() (float64, error) {
		c := tempC.Get()
		return c*9/5 + 32, nil
	})
	ripple.NewObserver(g, func() error {
		f, err := tempF.Get()
		if err != nil {
			return err
		}
		info("%.1f°C = %.1f°F", tempC.Peek(), f)
		return nil
	})

	for _, c := range temps {
		fmt.Println()
		fmt.Println("  set temp_c = " + strconv.FormatFloat(c, 'f', -1, 64))
		tempC.Set(c)
		if !g.HasPending() {
			info("no change, nothing to flush")
			continue
		}
		g.Flush()
	}

	stats := g.Stats()
	fmt.Println()
	success("Done")
	info("invalidations: %d", stats.Invalidations)
	info("recomputes:    %d", stats.Recomputes)
	info("observer runs: %d", stats.ObserverRuns)
	fmt.Println()

	return nil
}
