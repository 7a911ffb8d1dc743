// Package supervisor orchestrates the local server bootstrap: detect an
// already-running server, launch one otherwise, poll until it accepts
// connections, signal the host window, and tear the child down when the
// host exits.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/tomyedwab/appshell/audit"
	"github.com/tomyedwab/appshell/launch"
	"github.com/tomyedwab/appshell/probe"
	"github.com/tomyedwab/appshell/process"
	"github.com/tomyedwab/appshell/window"
)

const (
	defaultProbeTimeout = 1 * time.Second
	defaultPollInterval = 500 * time.Millisecond
	defaultMaxAttempts  = 120
)

// ProbeFunc checks whether the server is accepting connections.
type ProbeFunc func(host string, port int, timeout time.Duration) bool

// Launcher abstracts the launch strategy chain.
type Launcher interface {
	Launch() (launch.Method, *exec.Cmd)
}

// Config holds configuration options for the Supervisor.
type Config struct {
	Host         string        // Optional, defaults to 127.0.0.1
	Port         int           // Optional, defaults to 3000
	ProbeTimeout time.Duration // Optional, defaults to 1s
	PollInterval time.Duration // Optional, defaults to 500ms
	MaxAttempts  int           // Optional, defaults to 120
	GracePeriod  time.Duration // Optional teardown grace, see process.NewHandle

	Launcher Launcher         // Required
	Window   window.Navigator // Optional, nil disables the redirect
	Probe    ProbeFunc        // Optional, defaults to probe.Probe
	Logger   *slog.Logger     // Optional, defaults to slog.Default()
	Audit    *audit.Logger    // Optional, nil disables the audit trail
}

// Supervisor runs the bootstrap sequence once on a background goroutine
// and owns the launched child process through its Handle.
type Supervisor struct {
	host         string
	port         int
	probeTimeout time.Duration
	pollInterval time.Duration
	maxAttempts  int

	launcher Launcher
	win      window.Navigator
	probeFn  ProbeFunc
	logger   *slog.Logger
	audit    *audit.Logger
	handle   *process.Handle

	readiness readiness // write-once flag shared with UI queries
}

// New creates a Supervisor. The launcher is the only required
// collaborator.
func New(cfg Config) (*Supervisor, error) {
	if cfg.Launcher == nil {
		return nil, fmt.Errorf("launcher is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 3000
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout == 0 {
		probeTimeout = defaultProbeTimeout
	}
	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = defaultPollInterval
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = defaultMaxAttempts
	}
	probeFn := cfg.Probe
	if probeFn == nil {
		probeFn = probe.Probe
	}

	return &Supervisor{
		host:         host,
		port:         port,
		probeTimeout: probeTimeout,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		launcher:     cfg.Launcher,
		win:          cfg.Window,
		probeFn:      probeFn,
		logger:       logger.With("component", "Supervisor"),
		audit:        cfg.Audit,
		handle:       process.NewHandle(logger, cfg.GracePeriod),
	}, nil
}

// Ready reports whether the server has been confirmed reachable. It
// never blocks and is safe from any goroutine, including UI queries.
func (s *Supervisor) Ready() bool {
	return s.readiness.get()
}

// State returns the current bootstrap state.
func (s *Supervisor) State() State {
	return s.readiness.state()
}

// TargetURL returns the address the window is redirected to.
func (s *Supervisor) TargetURL() string {
	return probe.URL(s.host, s.port)
}

// Run executes the bootstrap sequence once. It blocks the calling
// goroutine for the duration of the sequence; hosts start it on a
// dedicated background goroutine. A second call is a logged no-op.
func (s *Supervisor) Run(ctx context.Context) {
	if !s.readiness.transition(StateIdle, StateProbingExisting) {
		s.logger.Warn("Bootstrap already started, ignoring duplicate Run")
		return
	}

	s.audit.LogSessionStart()
	s.logger.Info("Bootstrap starting", "target", s.TargetURL(), "session", s.audit.SessionID())

	// A server may already be listening (e.g. a dev server started by
	// hand). Never spawn a duplicate.
	if s.probeOnce() {
		s.logger.Info("Server already running, skipping launch")
		s.audit.LogShortCircuit()
		s.becomeReady()
		return
	}

	s.readiness.set(StateLaunching)
	method, cmd := s.launcher.Launch()
	if cmd == nil {
		s.logger.Error("Could not start server: all launch strategies failed")
		s.audit.LogFailed("all launch strategies failed")
		s.readiness.set(StateFailed)
		return
	}
	s.handle.Adopt(cmd)
	s.logger.Info("Server process launched, polling for readiness", "method", method, "pid", cmd.Process.Pid)

	s.readiness.set(StatePolling)
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if s.probeOnce() {
			s.logger.Info("Server is ready", "attempts", attempt)
			s.audit.LogReady(attempt)
			s.becomeReady()
			return
		}
		s.logger.Debug("Server not ready yet", "attempt", attempt)

		select {
		case <-ctx.Done():
			s.logger.Info("Bootstrap cancelled while polling")
			return
		case <-time.After(s.pollInterval):
		}
	}

	// The process is left running; it may still come up later, but the
	// UI will not be redirected automatically.
	s.logger.Error("Server startup timed out",
		"attempts", s.maxAttempts,
		"waited", time.Duration(s.maxAttempts)*s.pollInterval)
	s.audit.LogFailed("startup timed out")
	s.readiness.set(StateFailed)
}

// Shutdown terminates the launched server process, if any. It is safe
// to call from the host's exit hook at any point, concurrently with
// Run, and more than once.
func (s *Supervisor) Shutdown() {
	s.logger.Info("Shutting down")
	s.handle.Terminate()
}

func (s *Supervisor) probeOnce() bool {
	return s.probeFn(s.host, s.port, s.probeTimeout)
}

// becomeReady flips the readiness flag and redirects the window. The
// flag is written before Navigate is invoked, and the redirect happens
// at most once per process lifetime.
func (s *Supervisor) becomeReady() {
	if !s.readiness.mark() {
		return
	}
	if s.win == nil {
		return
	}
	url := s.TargetURL()
	if err := s.win.Navigate(url); err != nil {
		s.logger.Warn("Window navigation failed", "url", url, "error", err)
	}
}
