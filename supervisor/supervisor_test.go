package supervisor

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/tomyedwab/appshell/launch"
)

// fakeLauncher records whether Launch was called and hands out a
// pre-started command (or nil to simulate exhaustion).
type fakeLauncher struct {
	mu     sync.Mutex
	called bool
	cmd    *exec.Cmd
}

func (f *fakeLauncher) Launch() (launch.Method, *exec.Cmd) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called = true
	if f.cmd == nil {
		return "", nil
	}
	return launch.MethodBundledRuntime, f.cmd
}

func (f *fakeLauncher) wasCalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.called
}

// countingNavigator records every Navigate call.
type countingNavigator struct {
	mu   sync.Mutex
	urls []string
}

func (n *countingNavigator) Navigate(url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
	return nil
}

func (n *countingNavigator) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string{}, n.urls...)
}

// probeAfter returns a ProbeFunc that fails for the first n calls and
// succeeds afterwards.
func probeAfter(n int) ProbeFunc {
	var mu sync.Mutex
	calls := 0
	return func(string, int, time.Duration) bool {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return calls > n
	}
}

func startSleeper(t *testing.T) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start test process: %v", err)
	}
	return cmd
}

func newTestSupervisor(t *testing.T, cfg Config) *Supervisor {
	t.Helper()
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Millisecond
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 10
	}
	sup, err := New(cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(sup.Shutdown)
	return sup
}

func TestNewRequiresLauncher(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected an error when no launcher is configured")
	}
}

func TestShortCircuitSkipsLaunch(t *testing.T) {
	launcher := &fakeLauncher{}
	nav := &countingNavigator{}
	sup := newTestSupervisor(t, Config{
		Launcher: launcher,
		Window:   nav,
		Probe:    probeAfter(0), // listener already present
	})

	if sup.Ready() {
		t.Fatal("must not be ready before Run")
	}
	if sup.State() != StateIdle {
		t.Fatalf("expected Idle before Run, got %v", sup.State())
	}

	sup.Run(context.Background())

	if launcher.wasCalled() {
		t.Error("launch chain must not run when a server is already listening")
	}
	if !sup.Ready() {
		t.Error("expected readiness after short circuit")
	}
	if sup.State() != StateReady {
		t.Errorf("expected Ready state, got %v", sup.State())
	}
	if calls := nav.calls(); len(calls) != 1 || calls[0] != "http://127.0.0.1:3000" {
		t.Errorf("expected exactly one redirect to the server URL, got %v", calls)
	}
}

func TestDuplicateRunIsIgnored(t *testing.T) {
	nav := &countingNavigator{}
	sup := newTestSupervisor(t, Config{
		Launcher: &fakeLauncher{},
		Window:   nav,
		Probe:    probeAfter(0),
	})

	sup.Run(context.Background())
	sup.Run(context.Background())

	if !sup.Ready() {
		t.Error("readiness must not revert")
	}
	if len(nav.calls()) != 1 {
		t.Errorf("expected a single redirect across duplicate runs, got %v", nav.calls())
	}
}

func TestAllStrategiesFailReachesFailed(t *testing.T) {
	nav := &countingNavigator{}
	sup := newTestSupervisor(t, Config{
		Launcher: &fakeLauncher{cmd: nil},
		Window:   nav,
		Probe: func(string, int, time.Duration) bool {
			return false
		},
	})

	sup.Run(context.Background())

	if sup.State() != StateFailed {
		t.Errorf("expected Failed state, got %v", sup.State())
	}
	if sup.Ready() {
		t.Error("readiness must stay false on launch failure")
	}
	if len(nav.calls()) != 0 {
		t.Errorf("expected no redirect on failure, got %v", nav.calls())
	}
}

func TestPollingSucceeds(t *testing.T) {
	cmd := startSleeper(t)
	launcher := &fakeLauncher{cmd: cmd}
	nav := &countingNavigator{}
	// Initial probe fails, then three polls fail, then success.
	sup := newTestSupervisor(t, Config{
		Launcher: launcher,
		Window:   nav,
		Probe:    probeAfter(4),
	})

	sup.Run(context.Background())

	if !launcher.wasCalled() {
		t.Fatal("expected launch chain to run")
	}
	if !sup.Ready() || sup.State() != StateReady {
		t.Errorf("expected Ready, got ready=%v state=%v", sup.Ready(), sup.State())
	}
	if len(nav.calls()) != 1 {
		t.Errorf("expected exactly one redirect, got %v", nav.calls())
	}

	sup.Shutdown()
}

func TestPollingCeilingReachesFailed(t *testing.T) {
	cmd := startSleeper(t)
	sup := newTestSupervisor(t, Config{
		Launcher:    &fakeLauncher{cmd: cmd},
		MaxAttempts: 3,
		Probe: func(string, int, time.Duration) bool {
			return false
		},
	})

	start := time.Now()
	sup.Run(context.Background())
	elapsed := time.Since(start)

	if sup.State() != StateFailed {
		t.Errorf("expected Failed after polling ceiling, got %v", sup.State())
	}
	if sup.Ready() {
		t.Error("readiness must stay false after polling ceiling")
	}
	// Bounded: roughly maxAttempts * pollInterval, generous upper bound.
	if elapsed > 2*time.Second {
		t.Errorf("polling did not terminate in bounded time: %v", elapsed)
	}

	// The child is left running after a polling timeout.
	if cmd.ProcessState != nil {
		t.Error("child process should be left running after polling timeout")
	}
	sup.Shutdown()
}

func TestRunCancelledWhilePolling(t *testing.T) {
	cmd := startSleeper(t)
	sup := newTestSupervisor(t, Config{
		Launcher:     &fakeLauncher{cmd: cmd},
		MaxAttempts:  1000,
		PollInterval: 10 * time.Millisecond,
		Probe: func(string, int, time.Duration) bool {
			return false
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if sup.Ready() {
		t.Error("cancelled bootstrap must not become ready")
	}
	sup.Shutdown()
}

func TestShutdownWithoutProcess(t *testing.T) {
	sup := newTestSupervisor(t, Config{Launcher: &fakeLauncher{}})
	// No process was ever launched; Shutdown must be a quiet no-op.
	sup.Shutdown()
	sup.Shutdown()
}

func TestTargetURL(t *testing.T) {
	sup := newTestSupervisor(t, Config{
		Launcher: &fakeLauncher{},
		Host:     "localhost",
		Port:     4000,
	})
	if got := sup.TargetURL(); got != "http://localhost:4000" {
		t.Errorf("expected http://localhost:4000, got %q", got)
	}
}
