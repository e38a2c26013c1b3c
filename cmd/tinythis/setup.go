package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/wraithsoul/tinythis/internal/assets"
	"github.com/wraithsoul/tinythis/internal/options"
	"github.com/wraithsoul/tinythis/internal/pathenv"
	"github.com/wraithsoul/tinythis/internal/platform"
	"github.com/wraithsoul/tinythis/internal/selfinstall"
	"github.com/wraithsoul/tinythis/internal/update"
)

// cmdSetup installs the encoder binaries, copies tinythis into its bin
// directory, and offers to register that directory on the user PATH.
func (a *app) cmdSetup(args []string) error {
	if len(args) > 0 && args[0] == "path" {
		return a.cmdSetupPath(args[1:])
	}

	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	force := fs.Bool("force", false, "reinstall even when already present")
	yes := fs.Bool("yes", false, "assume yes for all prompts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := platform.Ensure(); err != nil {
		return err
	}

	update.CleanupStaleFiles(a.layout)

	ins := assets.New(a.layout, &a.log.Logger, a.cfg.Assets.ArchiveURL)
	ins.SetProgress(printProgress)
	if _, err := ins.EnsureInstalled(context.Background(), *force); err != nil {
		return err
	}
	fmt.Println("ffmpeg is ready")

	exe, err := selfinstall.InstallExe(a.layout, *force)
	if err != nil {
		return err
	}
	fmt.Printf("installed %s\n", exe.InstalledExe)

	return a.offerPathRegistration(*yes)
}

// cmdSetupPath re-registers the bin directory on the user PATH and clears
// a previous opt-out.
func (a *app) cmdSetupPath(args []string) error {
	fs := flag.NewFlagSet("setup path", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := platform.Ensure(); err != nil {
		return err
	}

	if _, err := selfinstall.InstallExe(a.layout, false); err != nil {
		return err
	}
	changed, err := pathenv.EnsureContains(a.layout.BinDir)
	if err != nil {
		return err
	}
	if err := options.SetPathOptout(a.layout.AppRoot, false); err != nil {
		a.log.Warn().Err(err).Msg("failed to clear path opt-out")
	}
	if changed {
		fmt.Println("added tinythis to your PATH; restart open terminals to pick it up")
	} else {
		fmt.Println("tinythis is already on your PATH")
	}
	return nil
}

func (a *app) offerPathRegistration(yes bool) error {
	present, err := pathenv.Contains(a.layout.BinDir)
	if err != nil {
		return err
	}
	if present {
		fmt.Println("tinythis is already on your PATH")
		return nil
	}

	if !yes {
		opts, err := options.Load(a.layout.AppRoot)
		if err != nil {
			a.log.Warn().Err(err).Msg("failed to load options")
		} else if opts.Path.Optout {
			fmt.Println("skipping PATH registration (run \"tinythis setup path\" to enable it)")
			return nil
		}
		if !confirm("add tinythis to your user PATH?") {
			if err := options.SetPathOptout(a.layout.AppRoot, true); err != nil {
				a.log.Warn().Err(err).Msg("failed to record path opt-out")
			}
			fmt.Println("skipped; run \"tinythis setup path\" any time to enable it")
			return nil
		}
	}

	if _, err := pathenv.EnsureContains(a.layout.BinDir); err != nil {
		return err
	}
	if err := options.SetPathOptout(a.layout.AppRoot, false); err != nil {
		a.log.Warn().Err(err).Msg("failed to clear path opt-out")
	}
	fmt.Println("added tinythis to your PATH; restart open terminals to pick it up")
	return nil
}

// printProgress renders a single-line byte counter; total is -1 when the
// server sends no Content-Length.
func printProgress(done, total int64) {
	if total > 0 {
		fmt.Fprintf(os.Stderr, "\rdownloading ffmpeg: %d%% (%d/%d MiB)",
			done*100/total, done>>20, total>>20)
	} else {
		fmt.Fprintf(os.Stderr, "\rdownloading ffmpeg: %d MiB", done>>20)
	}
	if done == total {
		fmt.Fprintln(os.Stderr)
	}
}
