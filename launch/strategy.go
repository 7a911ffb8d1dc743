// Package launch starts the local server by trying an ordered table of
// launch strategies until one spawns a process.
package launch

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// Method identifies one way of starting the server.
type Method string

const (
	MethodBundledRuntime Method = "bundled_runtime"
	MethodSystemRuntime  Method = "system_runtime"
	MethodBunDev         Method = "bun_dev"
	MethodNpmDev         Method = "npm_dev"
)

// Strategy is one fully resolved launch attempt: a command line, the
// directory it runs from, and the extra environment for the child.
// Strategies are data; the chain evaluates them in order.
type Strategy struct {
	Method Method
	Path   string
	Args   []string
	Dir    string
	Env    []string // KEY=value pairs appended to the parent environment
}

// Config describes how to build the strategy table.
type Config struct {
	RuntimePath    string // located bundled runtime binary, "" if none
	ScriptPath     string // located server entry script, "" if none
	RuntimeCommand string // well-known system runtime command, defaults to "node"
	WorkDir        string // directory checked for package.json, used by dev strategies
	Port           int
	BindHost       string // HOSTNAME passed to the child on the bundled path

	Logger *slog.Logger

	// OnAttempt, if set, is invoked once per spawn attempt with the
	// spawn error (nil on success).
	OnAttempt func(method Method, err error)
}

// Build produces the ordered strategy table for the given config.
// Strategies whose preconditions are not met (no located script, no
// package.json) are omitted entirely.
func Build(cfg Config) []Strategy {
	runtimeCommand := cfg.RuntimeCommand
	if runtimeCommand == "" {
		runtimeCommand = "node"
	}

	portEnv := fmt.Sprintf("PORT=%d", cfg.Port)

	var strategies []Strategy
	if cfg.RuntimePath != "" && cfg.ScriptPath != "" {
		strategies = append(strategies, Strategy{
			Method: MethodBundledRuntime,
			Path:   cfg.RuntimePath,
			Args:   []string{cfg.ScriptPath},
			Dir:    filepath.Dir(cfg.ScriptPath),
			Env: []string{
				portEnv,
				fmt.Sprintf("HOSTNAME=%s", cfg.BindHost),
				"NODE_ENV=production",
			},
		})
	}
	if cfg.ScriptPath != "" {
		strategies = append(strategies, Strategy{
			Method: MethodSystemRuntime,
			Path:   runtimeCommand,
			Args:   []string{cfg.ScriptPath},
			Dir:    filepath.Dir(cfg.ScriptPath),
			Env:    []string{portEnv},
		})
	}
	if HasManifest(cfg.WorkDir) {
		strategies = append(strategies,
			Strategy{Method: MethodBunDev, Path: "bun", Args: []string{"run", "dev"}, Dir: cfg.WorkDir},
			Strategy{Method: MethodNpmDev, Path: "npm", Args: []string{"run", "dev"}, Dir: cfg.WorkDir},
		)
	}
	return strategies
}

// HasManifest reports whether dir contains a package.json, which
// enables the package-manager dev strategies.
func HasManifest(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, "package.json"))
	return err == nil && !info.IsDir()
}

// Chain tries launch strategies in strict priority order.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
	onAttempt  func(Method, error)
}

// NewChain builds a chain from the config's strategy table.
func NewChain(cfg Config) *Chain {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		strategies: Build(cfg),
		logger:     logger.With("component", "LaunchChain"),
		onAttempt:  cfg.OnAttempt,
	}
}

// Strategies returns the chain's ordered strategy table.
func (c *Chain) Strategies() []Strategy {
	return c.strategies
}

// Launch tries each strategy until one spawns. Spawn failures are
// logged and swallowed; the chain advances to the next strategy. If
// every strategy fails, the returned command is nil.
func (c *Chain) Launch() (Method, *exec.Cmd) {
	for _, s := range c.strategies {
		cmd := exec.Command(s.Path, s.Args...)
		cmd.Dir = s.Dir
		cmd.Env = append(os.Environ(), s.Env...)
		cmd.Stdout = newLogWriter(c.logger, slog.LevelInfo, "stdout")
		cmd.Stderr = newLogWriter(c.logger, slog.LevelError, "stderr")

		err := cmd.Start()
		if c.onAttempt != nil {
			c.onAttempt(s.Method, err)
		}
		if err != nil {
			c.logger.Warn("Launch strategy failed to spawn", "method", s.Method, "path", s.Path, "error", err)
			continue
		}

		c.logger.Info("Server process spawned", "method", s.Method, "pid", cmd.Process.Pid, "dir", s.Dir)
		return s.Method, cmd
	}
	c.logger.Error("All launch strategies exhausted, could not start server")
	return "", nil
}
