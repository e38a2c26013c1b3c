package procwait

import (
	"os/exec"
	"runtime"
	"testing"
	"time"
)

func TestWaitForExitExitedProcess(t *testing.T) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", "exit 0")
	} else {
		cmd = exec.Command("true")
	}
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Wait(); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	WaitForExit(pid, 5*time.Second)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("WaitForExit took %v for an already-exited process", elapsed)
	}
}

func TestWaitForExitTimesOut(t *testing.T) {
	// PID 1 outlives the wait, so the timeout bounds the call.
	start := time.Now()
	WaitForExit(1, 300*time.Millisecond)
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("WaitForExit overran its timeout: %v", elapsed)
	}
}
