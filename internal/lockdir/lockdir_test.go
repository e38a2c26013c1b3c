package lockdir

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestAcquireCreatesDirAndLockFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ffmpeg")

	guard, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer guard.Release()

	if _, err := os.Stat(filepath.Join(dir, LockFileName)); err != nil {
		t.Errorf("lock file missing: %v", err)
	}
}

func TestAcquireSerializes(t *testing.T) {
	dir := t.TempDir()

	guard, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		g2, err := Acquire(dir)
		if err != nil {
			t.Errorf("second Acquire: %v", err)
			return
		}
		close(acquired)
		g2.Release()
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire succeeded while the lock was held")
	case <-time.After(100 * time.Millisecond):
	}

	guard.Release()

	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("second Acquire did not proceed after release")
	}
	wg.Wait()
}

func TestReleaseIdempotent(t *testing.T) {
	guard, err := Acquire(t.TempDir())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	guard.Release()
	guard.Release()

	var nilGuard *Guard
	nilGuard.Release()
}
