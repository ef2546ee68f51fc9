package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/carepulse/carepulse/analyzer/internal/config"
	"github.com/carepulse/carepulse/analyzer/internal/shipper"
	"github.com/carepulse/carepulse/internal/pipeline"
)

func watchCmd(g *globals) *cobra.Command {
	o := &inputOpts{}
	var bufferSize int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-analyze whenever the input sheets change",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.resolve(g.cfg); err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return watch(ctx, g, o, bufferSize)
		},
	}
	o.register(cmd)
	cmd.Flags().IntVar(&bufferSize, "buffer-size", shipper.DefaultBufferSize, "batches held while the server is unreachable")
	return cmd
}

func watch(ctx context.Context, g *globals, o *inputOpts, bufferSize int) error {
	pl, err := pipeline.New(g.cfg.Fields)
	if err != nil {
		return err
	}
	var current atomic.Pointer[pipeline.Pipeline]
	current.Store(pl)

	var ship *shipper.Shipper
	if target := g.cfg.Analyzer.Server; target.Endpoint != "" && !o.noShip {
		ship = shipper.New(target, o.source, bufferSize)
		go ship.Run(ctx)
	}

	trigger := make(chan struct{}, 1)
	poke := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	go func() {
		if err := config.WatchFiles(ctx, []string{o.patients, o.hospital}, func(path string) {
			log.Debug().Str("path", path).Msg("analyzer: input changed")
			poke()
		}); err != nil {
			log.Error().Err(err).Msg("analyzer: input watcher stopped")
		}
	}()

	if g.configPath != "" {
		go func() {
			if err := config.Watch(ctx, g.configPath, func(updated *config.Config) {
				next, err := pipeline.New(updated.Fields)
				if err != nil {
					log.Error().Err(err).Msg("analyzer: field table rejected, keeping previous")
					return
				}
				current.Store(next)
				poke()
			}); err != nil {
				log.Error().Err(err).Msg("analyzer: config watcher stopped")
			}
		}()
	}

	debounce := g.cfg.Analyzer.WatchDebounce
	var timer <-chan time.Time
	poke()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("analyzer: watch stopped")
			return nil
		case <-trigger:
			timer = time.After(debounce)
		case now := <-timer:
			timer = nil
			res, err := job{opts: o, pl: current.Load()}.run(now)
			if err != nil {
				log.Warn().Err(err).Msg("analyzer: analysis failed, waiting for next change")
				continue
			}
			shipAsync(ship, res)
		}
	}
}
