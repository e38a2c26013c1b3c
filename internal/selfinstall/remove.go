package selfinstall

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/wraithsoul/tinythis/internal/fsx"
	"github.com/wraithsoul/tinythis/internal/paths"
	"github.com/wraithsoul/tinythis/internal/procwait"
)

// parentExitTimeout bounds how long a detached helper waits for the
// spawning process to exit before proceeding anyway.
const parentExitTimeout = 60 * time.Second

// SelfRemoveArgs identify the uninstall helper's work: the parent to wait
// for and the directories to delete once it is gone.
type SelfRemoveArgs struct {
	PID        int
	BinDir     string
	AppRootDir string
}

// SpawnSelfRemove copies the running executable into the system temp
// directory and launches it detached in self-remove mode. The caller must
// exit promptly afterwards so the OS releases its file handles.
//
// The helper runs from outside the install tree, so deleting the bin
// directory never deletes the helper's own backing file.
func SpawnSelfRemove(layout paths.Layout) error {
	src, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve current executable: %w", err)
	}

	helper := filepath.Join(os.TempDir(), fmt.Sprintf("tinythis-self-remove-%d.exe", os.Getpid()))
	if err := fsx.CopyFileStaged(src, helper); err != nil {
		return fmt.Errorf("failed to stage self-remove helper: %w", err)
	}

	cmd := exec.Command(helper,
		"self-remove",
		"--pid", strconv.Itoa(os.Getpid()),
		"--bin-dir", layout.BinDir,
		"--app-root-dir", layout.AppRoot,
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch self-remove helper: %w", err)
	}
	return nil
}

// RunSelfRemove is the helper side: wait for the parent to exit, then
// delete the install tree. Removal is best-effort; the helper has no
// caller to report to.
func RunSelfRemove(args SelfRemoveArgs, logger *zerolog.Logger) error {
	log := logger.With().Str("service", "self-remove").Logger()

	log.Info().Int("pid", args.PID).Msg("waiting for parent to exit")
	procwait.WaitForExit(args.PID, parentExitTimeout)

	if err := fsx.RemoveTree(args.BinDir); err != nil {
		log.Warn().Err(err).Str("dir", args.BinDir).Msg("failed to remove bin directory")
	}
	if err := fsx.RemoveDirIfEmpty(args.AppRootDir); err != nil {
		log.Warn().Err(err).Str("dir", args.AppRootDir).Msg("failed to remove app root")
	}

	log.Info().Msg("self-remove finished")
	return nil
}
