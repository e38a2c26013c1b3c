package update

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/wraithsoul/tinythis/internal/procwait"
)

const (
	// parentExitTimeout bounds the wait for the spawning process to exit.
	parentExitTimeout = 60 * time.Second

	// The just-exited parent's executable can stay transiently locked by
	// the OS after process exit, so the swap retries on a fixed interval
	// until a deadline.
	replaceRetryInterval = 250 * time.Millisecond
	replaceDeadline      = 30 * time.Second
)

// Swappable for tests, which simulate the OS holding the old executable
// locked for a while after process exit.
var (
	removeFunc = os.Remove
	renameFunc = os.Rename
)

// SelfReplaceArgs identify the replace helper's work.
type SelfReplaceArgs struct {
	PID      int
	Src      string // staged new executable
	Dest     string // installed executable to swap
	Relaunch bool
}

// RunSelfReplace is the helper side of the update protocol: wait for the
// parent to exit, swap the installed executable, optionally relaunch it,
// and clean up after itself.
func RunSelfReplace(args SelfReplaceArgs, logger *zerolog.Logger) error {
	log := logger.With().Str("service", "self-replace").Logger()

	log.Info().Int("pid", args.PID).Msg("waiting for parent to exit")
	procwait.WaitForExit(args.PID, parentExitTimeout)

	if err := replaceWithRetry(context.Background(), args.Src, args.Dest, replaceRetryInterval, replaceDeadline); err != nil {
		log.Error().Err(err).Str("dest", args.Dest).Msg("failed to replace installed executable")
		// The staged download is still sitting in bin on failure; sweep
		// it so the next update does not trip over it.
		_ = os.Remove(args.Src)
		return err
	}
	log.Info().Str("dest", args.Dest).Msg("installed executable replaced")

	// The helper cannot delete its own backing file while running on
	// Windows, so this removal is best-effort and the next invocation
	// sweeps up what is left.
	if self, err := os.Executable(); err == nil {
		_ = os.Remove(self)
	}

	if args.Relaunch {
		cmd := exec.Command(args.Dest)
		if err := cmd.Start(); err != nil {
			log.Error().Err(err).Msg("failed to relaunch updated executable")
			return fmt.Errorf("failed to relaunch %s: %w", args.Dest, err)
		}
		log.Info().Int("pid", cmd.Process.Pid).Msg("updated executable relaunched")
	}
	return nil
}

// replaceWithRetry removes dest and renames src into its place, retrying
// on transient lock conditions at a fixed interval until the deadline.
// Exceeding the deadline surfaces the last failure.
func replaceWithRetry(ctx context.Context, src, dest string, interval, deadline time.Duration) error {
	backoff := retry.WithMaxDuration(deadline, retry.NewConstant(interval))

	err := retry.Do(ctx, backoff, func(_ context.Context) error {
		if err := replaceOnce(src, dest); err != nil {
			if isTransientLock(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace %s within %s: %w", dest, deadline, err)
	}
	return nil
}

func replaceOnce(src, dest string) error {
	if err := removeFunc(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return renameFunc(src, dest)
}

// isTransientLock matches the failure modes seen while the old
// executable's file is still held by the OS.
func isTransientLock(err error) bool {
	return errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrExist)
}
