// Package daemonctl inspects and stops a running quilld through its lock and
// pid files. The daemon exposes no control socket.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"quill/internal/config"
)

const pollInterval = 200 * time.Millisecond

// ProcessInfo describes the daemon as seen from its state directory.
type ProcessInfo struct {
	Running  bool
	PID      int
	LockPath string
	PIDPath  string
}

// StopResult reports what Stop did.
type StopResult struct {
	PID        int
	WasRunning bool
	ForcedKill bool
}

// Inspect reports whether a daemon holds the lock for cfg and, when it does,
// its process id.
func Inspect(cfg *config.Config) (ProcessInfo, error) {
	info := ProcessInfo{LockPath: cfg.LockPath(), PIDPath: cfg.PIDPath()}

	held, err := lockHeld(info.LockPath)
	if err != nil {
		return info, err
	}
	pid, err := readPID(info.PIDPath)
	if err != nil {
		return info, err
	}
	if pid > 0 && !processAlive(pid) {
		pid = 0
	}
	info.PID = pid
	info.Running = held || pid > 0
	return info, nil
}

// Stop sends SIGTERM to the daemon and waits up to grace for it to exit. A
// daemon still alive after grace is killed and its pid file removed.
func Stop(ctx context.Context, cfg *config.Config, grace time.Duration) (StopResult, error) {
	info, err := Inspect(cfg)
	if err != nil {
		return StopResult{}, err
	}
	result := StopResult{PID: info.PID, WasRunning: info.Running}
	if !info.Running {
		return result, nil
	}
	if info.PID <= 0 {
		return result, fmt.Errorf("daemon holds %s but pid file %s is missing", info.LockPath, info.PIDPath)
	}
	if info.PID == os.Getpid() {
		return result, fmt.Errorf("refusing to signal current process (pid %d)", info.PID)
	}

	if err := unix.Kill(info.PID, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return result, fmt.Errorf("signal daemon process %d: %w", info.PID, err)
	}
	if waitForExit(ctx, info.PID, info.LockPath, grace) {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if err := unix.Kill(info.PID, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return result, fmt.Errorf("kill daemon process %d: %w", info.PID, err)
	}
	result.ForcedKill = true
	if err := os.Remove(info.PIDPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("remove pid file %q: %w", info.PIDPath, err)
	}
	return result, nil
}

func waitForExit(ctx context.Context, pid int, lockPath string, grace time.Duration) bool {
	deadline := time.Now().Add(grace)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if !processAlive(pid) {
			return true
		}
		if held, err := lockHeld(lockPath); err == nil && !held {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// lockHeld probes the daemon lock without keeping it.
func lockHeld(path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe daemon lock %s: %w", path, err)
	}
	if ok {
		_ = lock.Unlock()
		return false, nil
	}
	return true, nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read daemon pid file %q: %w", path, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return 0, nil
	}
	pid, err := strconv.Atoi(value)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("daemon pid file %q holds %q", path, value)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
