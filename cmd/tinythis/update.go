package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/wraithsoul/tinythis/internal/config"
	"github.com/wraithsoul/tinythis/internal/platform"
	"github.com/wraithsoul/tinythis/internal/update"
)

// cmdUpdate checks the release feed and, on confirmation, stages the new
// executable and hands off to the replace helper. On success the process
// must exit so the helper can swap the binary.
func (a *app) cmdUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "apply without confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := platform.Ensure(); err != nil {
		return err
	}

	update.CleanupStaleFiles(a.layout)

	checker := update.NewChecker(config.Version, &a.log.Logger)
	info, err := checker.CheckLatest(a.repo())
	if errors.Is(err, update.ErrNoUpdateAvailable) {
		fmt.Printf("tinythis %s is up to date\n", config.Version)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("update available: %s -> %s\n", info.Current, info.Latest)
	if !*yes && !confirm("download and install?") {
		return nil
	}

	applier := update.NewApplier(a.layout, &a.log.Logger)
	applier.SetStatusFunc(printUpdateStatus)
	if err := applier.Apply(context.Background(), info, false); err != nil {
		return err
	}
	fmt.Printf("tinythis %s will be installed once this process exits\n", info.Latest)
	return nil
}

// cmdSelfReplace is the hidden helper mode spawned by the applier.
func (a *app) cmdSelfReplace(args []string) error {
	fs := flag.NewFlagSet("self-replace", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	pid := fs.Int("pid", 0, "parent process id to wait for")
	src := fs.String("src", "", "staged executable")
	dest := fs.String("dest", "", "installed executable")
	relaunch := fs.Bool("relaunch", false, "relaunch the installed executable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *src == "" || *dest == "" {
		return fmt.Errorf("self-replace requires --src and --dest")
	}
	return update.RunSelfReplace(update.SelfReplaceArgs{
		PID:      *pid,
		Src:      *src,
		Dest:     *dest,
		Relaunch: *relaunch,
	}, &a.log.Logger)
}

func printUpdateStatus(st update.Status) {
	switch st.State {
	case update.StateDownloading:
		if st.Total > 0 {
			fmt.Fprintf(os.Stderr, "\rdownloading update: %d%%", st.Downloaded*100/st.Total)
		}
	case update.StateVerifying:
		fmt.Fprintln(os.Stderr, "\nverifying checksum")
	case update.StateReplacing:
		fmt.Fprintln(os.Stderr, "staging replace helper")
	}
}
