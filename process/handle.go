// Package process owns the launched server child process and its
// teardown.
package process

import (
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

const defaultGracePeriod = 5 * time.Second

// Handle owns at most one live child process. All access goes through
// its mutex so the bootstrap goroutine and the host shutdown hook never
// race over the same *exec.Cmd.
type Handle struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	done   chan struct{}
	logger *slog.Logger
	grace  time.Duration
}

// NewHandle creates an empty handle. grace bounds how long Terminate
// waits for a graceful exit before escalating to SIGKILL.
func NewHandle(logger *slog.Logger, grace time.Duration) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	if grace <= 0 {
		grace = defaultGracePeriod
	}
	return &Handle{
		logger: logger.With("component", "ProcessHandle"),
		grace:  grace,
	}
}

// Adopt takes ownership of a started command and begins reaping it in
// the background so an early exit does not leave a zombie.
func (h *Handle) Adopt(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		err := cmd.Wait()
		if err != nil {
			h.logger.Info("Child process exited", "pid", cmd.Process.Pid, "error", err)
		} else {
			h.logger.Info("Child process exited", "pid", cmd.Process.Pid)
		}
		close(done)
	}()

	h.mu.Lock()
	if h.cmd != nil {
		h.logger.Warn("Replacing an existing child process handle", "oldPid", h.cmd.Process.Pid, "newPid", cmd.Process.Pid)
	}
	h.cmd = cmd
	h.done = done
	h.mu.Unlock()
}

// PID returns the owned process's id, or 0 if the handle is empty.
func (h *Handle) PID() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Alive reports whether the handle owns a process that has not exited.
func (h *Handle) Alive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cmd == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Terminate stops the owned process: interrupt first, SIGKILL after the
// grace period. It is idempotent, safe on an already-exited process,
// and never blocks longer than the grace period plus a short kill wait.
func (h *Handle) Terminate() {
	h.mu.Lock()
	cmd := h.cmd
	done := h.done
	h.cmd = nil
	h.done = nil
	h.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}

	select {
	case <-done:
		// Already exited; nothing to do.
		return
	default:
	}

	pid := cmd.Process.Pid
	h.logger.Info("Stopping child process", "pid", pid)
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		h.logger.Warn("Failed to signal child process", "pid", pid, "error", err)
	}

	graceTimer := time.NewTimer(h.grace)
	defer graceTimer.Stop()

	select {
	case <-done:
		h.logger.Info("Child process exited after interrupt", "pid", pid)
	case <-graceTimer.C:
		h.logger.Warn("Child process did not exit gracefully, sending SIGKILL", "pid", pid)
		if err := cmd.Process.Kill(); err != nil {
			h.logger.Warn("Failed to kill child process", "pid", pid, "error", err)
			return
		}
		select {
		case <-done:
		case <-time.After(time.Second):
			// Give up rather than hang host shutdown.
			h.logger.Warn("Timed out waiting for killed child to be reaped", "pid", pid)
		}
	}
}
