package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/wraithsoul/tinythis/internal/assets"
	"github.com/wraithsoul/tinythis/internal/compress"
	"github.com/wraithsoul/tinythis/internal/config"
	"github.com/wraithsoul/tinythis/internal/options"
	"github.com/wraithsoul/tinythis/internal/platform"
	"github.com/wraithsoul/tinythis/internal/update"
)

// cmdCompress is the default command: compress each input file with the
// managed ffmpeg. A release check runs in the background and only reports
// at the end, so it never delays the actual work.
func (a *app) cmdCompress(args []string) error {
	fs := flag.NewFlagSet("tinythis", flag.ContinueOnError)
	fs.Usage = usage
	mode := fs.String("mode", "balanced", "compression preset: quality, balanced or speed")
	gpu := fs.Bool("gpu", false, "use hardware encoding (remembered for future runs)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		usage()
		return fmt.Errorf("no input files given")
	}
	if err := platform.Ensure(); err != nil {
		return err
	}

	preset, err := compress.ParsePreset(*mode)
	if err != nil {
		return err
	}

	opts, err := options.Load(a.layout.AppRoot)
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to load options")
	}
	useGPU := opts.GPU
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "gpu" {
			useGPU = *gpu
			if err := options.SetGPU(a.layout.AppRoot, *gpu); err != nil {
				a.log.Warn().Err(err).Msg("failed to save gpu preference")
			}
		}
	})

	ctx := context.Background()
	update.CleanupStaleFiles(a.layout)
	updateCh := a.probeForUpdate()

	ins := assets.New(a.layout, &a.log.Logger, a.cfg.Assets.ArchiveURL)
	ins.SetProgress(printProgress)
	bins, err := ins.EnsureInstalled(ctx, false)
	if err != nil {
		return err
	}

	var failed int
	for _, input := range fs.Args() {
		output, err := compress.Run(ctx, bins.FFmpeg, input, preset, useGPU)
		if err != nil {
			failed++
			fmt.Printf("failed: %s: %v\n", input, err)
			a.log.Error().Err(err).Str("input", input).Msg("compression failed")
			continue
		}
		fmt.Printf("done: %s\n", output)
	}

	select {
	case info := <-updateCh:
		if info != nil {
			fmt.Printf("tinythis %s is available (you have %s); run \"tinythis update\"\n",
				info.Latest, info.Current)
		}
	default:
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, fs.NArg())
	}
	return nil
}

// probeForUpdate checks the release feed without blocking the compression
// run. The channel yields nil when no update exists or the check fails.
func (a *app) probeForUpdate() <-chan *update.Info {
	ch := make(chan *update.Info, 1)
	go func() {
		checker := update.NewChecker(config.Version, &a.log.Logger)
		info, err := checker.CheckLatest(a.repo())
		if err != nil {
			ch <- nil
			return
		}
		ch <- info
	}()
	return ch
}
