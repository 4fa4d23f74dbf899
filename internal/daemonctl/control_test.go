package daemonctl_test

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"quill/internal/config"
	"quill/internal/daemonctl"
	"quill/internal/testsupport"
)

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return cfg
}

func holdLock(t *testing.T, cfg *config.Config) {
	t.Helper()
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("acquire lock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = lock.Unlock() })
}

func writePID(t *testing.T, cfg *config.Config, pid int) {
	t.Helper()
	if err := os.WriteFile(cfg.PIDPath(), []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}
}

func TestInspectWithoutDaemon(t *testing.T) {
	cfg := newConfig(t)
	info, err := daemonctl.Inspect(cfg)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if info.Running || info.PID != 0 {
		t.Fatalf("expected no daemon, got %+v", info)
	}

	res, err := daemonctl.Stop(context.Background(), cfg, time.Second)
	if err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if res.WasRunning {
		t.Fatalf("unexpected stop result %+v", res)
	}
}

func TestInspectIgnoresStalePIDFile(t *testing.T) {
	cfg := newConfig(t)
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("true unavailable: %v", err)
	}
	writePID(t, cfg, cmd.ProcessState.Pid())

	info, err := daemonctl.Inspect(cfg)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if info.Running {
		t.Fatalf("stale pid file should not count as running: %+v", info)
	}
}

func TestStopTerminatesDaemonProcess(t *testing.T) {
	cfg := newConfig(t)
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("sleep unavailable: %v", err)
	}
	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	t.Cleanup(func() { _ = cmd.Process.Kill() })

	holdLock(t, cfg)
	writePID(t, cfg, cmd.Process.Pid)

	info, err := daemonctl.Inspect(cfg)
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if !info.Running || info.PID != cmd.Process.Pid {
		t.Fatalf("expected running daemon, got %+v", info)
	}

	res, err := daemonctl.Stop(context.Background(), cfg, 5*time.Second)
	if err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if !res.WasRunning || res.ForcedKill || res.PID != cmd.Process.Pid {
		t.Fatalf("unexpected stop result %+v", res)
	}
	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
}

func TestStopWithoutPIDFileFails(t *testing.T) {
	cfg := newConfig(t)
	holdLock(t, cfg)

	if _, err := daemonctl.Stop(context.Background(), cfg, time.Second); err == nil {
		t.Fatal("expected error when the pid file is missing")
	}
}
