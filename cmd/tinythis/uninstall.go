package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wraithsoul/tinythis/internal/assets"
	"github.com/wraithsoul/tinythis/internal/fsx"
	"github.com/wraithsoul/tinythis/internal/options"
	"github.com/wraithsoul/tinythis/internal/platform"
	"github.com/wraithsoul/tinythis/internal/selfinstall"
)

// cmdUninstall removes the PATH entry and encoder assets. When the
// running executable lives inside the install tree the final deletion is
// delegated to a detached helper, because Windows will not delete the
// backing file of a running process.
func (a *app) cmdUninstall(args []string) error {
	fs := flag.NewFlagSet("uninstall", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "uninstall without confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := platform.Ensure(); err != nil {
		return err
	}

	if !*yes && !confirm("remove tinythis and its ffmpeg install?") {
		return nil
	}

	if _, err := selfinstall.Uninstall(a.layout); err != nil {
		a.log.Warn().Err(err).Msg("failed to remove PATH entry")
	}

	ins := assets.New(a.layout, &a.log.Logger, a.cfg.Assets.ArchiveURL)
	if err := ins.UninstallAssets(); err != nil {
		a.log.Warn().Err(err).Msg("failed to remove encoder assets")
	}

	if err := options.SetPathOptout(a.layout.AppRoot, false); err != nil {
		a.log.Warn().Err(err).Msg("failed to reset options")
	}

	exe, err := os.Executable()
	if err == nil && fsx.WithinDir(a.layout.BinDir, exe) {
		if err := selfinstall.SpawnSelfRemove(a.layout); err != nil {
			return err
		}
		fmt.Println("tinythis will finish removing itself shortly")
		return nil
	}

	if err := selfinstall.RemoveBinDir(a.layout); err != nil {
		return err
	}
	if err := selfinstall.RemoveAppRootIfEmpty(a.layout); err != nil {
		a.log.Warn().Err(err).Msg("failed to remove app directory")
	}
	fmt.Println("tinythis removed")
	return nil
}

// cmdSelfRemove is the hidden helper mode spawned by cmdUninstall.
func (a *app) cmdSelfRemove(args []string) error {
	fs := flag.NewFlagSet("self-remove", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	pid := fs.Int("pid", 0, "parent process id to wait for")
	binDir := fs.String("bin-dir", "", "bin directory to delete")
	appRootDir := fs.String("app-root-dir", "", "app root to delete when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *binDir == "" {
		return fmt.Errorf("self-remove requires --bin-dir")
	}
	return selfinstall.RunSelfRemove(selfinstall.SelfRemoveArgs{
		PID:        *pid,
		BinDir:     *binDir,
		AppRootDir: *appRootDir,
	}, &a.log.Logger)
}
