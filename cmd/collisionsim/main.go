// Package main runs a collision scene for a number of steps and prints what collided.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"

	"go.viam.com/collide/config"
	"go.viam.com/collide/logging"
	"go.viam.com/collide/simulation"
)

const (
	flagConfig = "config"
	flagScene  = "scene"
	flagTicks  = "ticks"
	flagDt     = "dt"
	flagDebug  = "debug"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var logger logging.Logger
	return &cli.App{
		Name:  "collisionsim",
		Usage: "run a collision scene and report its events",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("collisionsim")
			} else {
				logger = logging.NewLogger("collisionsim")
			}
			logging.ReplaceGlobal(logger)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "step a scene and print a report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load engine constants from `FILE`; defaults are used when unset",
					},
					&cli.StringFlag{
						Name:     flagScene,
						Aliases:  []string{"s"},
						Usage:    "load the scene from `FILE`",
						Required: true,
					},
					&cli.IntFlag{
						Name:  flagTicks,
						Usage: "number of steps to run",
						Value: 100,
					},
					&cli.Float64Flag{
						Name:  flagDt,
						Usage: "simulated seconds per step",
						Value: 1.0 / 60,
					},
				},
				Action: func(c *cli.Context) error {
					return runScene(c, logger)
				},
			},
		},
	}
}

func runScene(c *cli.Context, logger logging.Logger) error {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		read, err := config.Read(path, logger)
		if err != nil {
			return err
		}
		cfg = *read
	}
	scene, err := simulation.ReadScene(c.String(flagScene))
	if err != nil {
		return err
	}
	runner, err := simulation.NewRunner(cfg, scene, c.Float64(flagDt), clock.New(), logger)
	if err != nil {
		return err
	}
	if err := runner.Run(c.Context, c.Int(flagTicks)); err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, runner.Report().String())
	return nil
}
