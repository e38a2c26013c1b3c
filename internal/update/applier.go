package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wraithsoul/tinythis/internal/fsx"
	"github.com/wraithsoul/tinythis/internal/paths"
	"github.com/wraithsoul/tinythis/internal/selfinstall"
)

// State is the update applier's position in the apply sequence.
type State string

const (
	StateIdle        State = "idle"
	StateDownloading State = "downloading"
	StateVerifying   State = "verifying"
	StateStaging     State = "staging"
	StateReplacing   State = "replacing"
	StateRelaunched  State = "relaunched"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

const (
	// updateFileName is the staged new executable inside the bin dir.
	updateFileName = "tinythis-update.exe"
	// replaceHelperName is the binary-identical helper copy that performs
	// the swap after this process exits.
	replaceHelperName = "tinythis-replace.exe"

	downloadBufferSize = 64 * 1024
)

// Status is a snapshot of apply progress.
type Status struct {
	State      State
	Downloaded int64
	Total      int64
	Error      string
}

// Applier downloads, verifies and stages a new executable, then hands the
// swap to a detached helper process.
type Applier struct {
	layout paths.Layout
	logger zerolog.Logger

	// metaClient fetches small assets; downloadClient streams the new
	// executable and carries a timeout sized for a full binary download.
	metaClient     *http.Client
	downloadClient *http.Client

	onStatus func(Status)

	// spawnFunc launches the staged helper; tests substitute it to
	// inspect the handoff without forking a process.
	spawnFunc func(helperPath string, args []string) error

	mu     sync.Mutex
	status Status
}

// NewApplier creates an Applier over the install layout.
func NewApplier(layout paths.Layout, logger *zerolog.Logger) *Applier {
	return &Applier{
		layout: layout,
		logger: logger.With().Str("service", "update").Logger(),
		metaClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		downloadClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		spawnFunc: launchDetached,
		status:    Status{State: StateIdle},
	}
}

// SetStatusFunc installs a callback receiving every status change.
func (a *Applier) SetStatusFunc(fn func(Status)) {
	a.onStatus = fn
}

// GetStatus returns the current status snapshot.
func (a *Applier) GetStatus() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Apply runs the sequence: install the running binary if needed, download
// the new executable, verify its checksum, stage a helper copy of the
// current binary, and spawn the helper that performs the swap once this
// process exits. The caller must exit promptly after a nil return.
func (a *Applier) Apply(ctx context.Context, info *Info, relaunch bool) error {
	if err := a.apply(ctx, info, relaunch); err != nil {
		a.setState(StateFailed, err)
		return err
	}
	return nil
}

func (a *Applier) apply(ctx context.Context, info *Info, relaunch bool) error {
	exe, err := selfinstall.InstallExe(a.layout, false)
	if err != nil {
		return err
	}

	updatePath := filepath.Join(exe.BinDir, updateFileName)

	a.setState(StateDownloading, nil)
	if err := a.downloadExe(ctx, info.ExeURL, updatePath); err != nil {
		return err
	}

	a.setState(StateVerifying, nil)
	if err := a.verifyDownload(ctx, info.ChecksumURL, updatePath); err != nil {
		os.Remove(updatePath)
		return err
	}

	a.setState(StateStaging, nil)
	helperPath := filepath.Join(exe.BinDir, replaceHelperName)
	currentExe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve current executable: %w", err)
	}
	if err := fsx.CopyFileStaged(currentExe, helperPath); err != nil {
		return fmt.Errorf("failed to stage replace helper: %w", err)
	}

	a.setState(StateReplacing, nil)
	if err := a.spawnReplaceHelper(helperPath, updatePath, exe.InstalledExe, relaunch); err != nil {
		return err
	}
	if relaunch {
		a.setState(StateRelaunched, nil)
	} else {
		a.setState(StateDone, nil)
	}

	a.logger.Info().
		Str("from", info.Current.String()).
		Str("to", info.Latest.String()).
		Msg("replace helper launched; exiting to release the executable")
	return nil
}

// spawnReplaceHelper launches the staged helper detached. The helper is a
// copy of this binary, never the live file being swapped.
func (a *Applier) spawnReplaceHelper(helperPath, src, dest string, relaunch bool) error {
	args := []string{
		"self-replace",
		"--pid", strconv.Itoa(os.Getpid()),
		"--src", src,
		"--dest", dest,
	}
	if relaunch {
		args = append(args, "--relaunch")
	}

	if err := a.spawnFunc(helperPath, args); err != nil {
		return fmt.Errorf("failed to launch replace helper: %w", err)
	}
	return nil
}

// launchDetached starts the helper as an independent child that is never
// awaited; the parent exits right after so the OS releases its handles.
func launchDetached(helperPath string, args []string) error {
	cmd := exec.Command(helperPath, args...)
	cmd.Dir = filepath.Dir(helperPath)
	return cmd.Start()
}

func (a *Applier) downloadExe(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := a.downloadClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download update: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("update download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if err := a.downloadLoop(f, resp.Body, resp.ContentLength); err != nil {
		f.Close()
		os.Remove(dest)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to sync update download: %w", err)
	}
	return f.Close()
}

func (a *Applier) downloadLoop(dst io.Writer, src io.Reader, total int64) error {
	buf := make([]byte, downloadBufferSize)
	var downloaded int64
	lastUpdate := time.Now()

	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return fmt.Errorf("failed to write update download: %w", werr)
			}
			downloaded += int64(n)
			if time.Since(lastUpdate) > 100*time.Millisecond {
				a.setProgress(downloaded, total)
				lastUpdate = time.Now()
			}
		}
		if errors.Is(err, io.EOF) {
			a.setProgress(downloaded, total)
			return nil
		}
		if err != nil {
			return fmt.Errorf("update download read error: %w", err)
		}
	}
}

// verifyDownload fetches the checksum asset and compares the staged
// download's digest against it. This is the sole integrity gate before
// anything touches the installed binary.
func (a *Applier) verifyDownload(ctx context.Context, checksumURL, downloadPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checksumURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create checksum request: %w", err)
	}

	resp, err := a.metaClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download checksum asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("checksum download returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("failed to read checksum asset: %w", err)
	}

	expected, err := ExtractChecksum(string(body))
	if err != nil {
		return err
	}
	return VerifyFileChecksum(downloadPath, expected)
}

// CleanupStaleFiles removes update and helper executables left behind by
// a previous apply; on Windows the running helper cannot delete its own
// backing file, so the next invocation sweeps it up.
func CleanupStaleFiles(layout paths.Layout) {
	_ = fsx.RemoveFileIfExists(filepath.Join(layout.BinDir, updateFileName))
	_ = fsx.RemoveFileIfExists(filepath.Join(layout.BinDir, replaceHelperName))
}

func (a *Applier) setState(state State, err error) {
	a.mu.Lock()
	a.status.State = state
	if err != nil {
		a.status.Error = err.Error()
	} else {
		a.status.Error = ""
	}
	status := a.status
	a.mu.Unlock()

	a.broadcast(status)
}

func (a *Applier) setProgress(downloaded, total int64) {
	a.mu.Lock()
	a.status.Downloaded = downloaded
	a.status.Total = total
	status := a.status
	a.mu.Unlock()

	a.broadcast(status)
}

func (a *Applier) broadcast(status Status) {
	if a.onStatus != nil {
		a.onStatus(status)
	}
}
