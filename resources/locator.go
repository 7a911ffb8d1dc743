// Package resources locates the bundled runtime binary and server entry
// script across the candidate directories a packaged application may
// have been installed into.
package resources

import (
	"os"
	"path/filepath"
	"runtime"
)

// RuntimeRelPath returns the relative location of the bundled runtime
// binary under a base directory for the given GOOS.
func RuntimeRelPath(goos string) string {
	name := "node"
	if goos == "windows" {
		name = "node.exe"
	}
	return filepath.Join("bundled", "node", name)
}

// ScriptRelPath returns the relative location of the server entry
// script under a base directory. It is the same on every platform.
func ScriptRelPath() string {
	return filepath.Join("bundled", "server", "server.js")
}

// Bases returns the candidate base directories in priority order: the
// bundled resource directory (if configured), the directory containing
// the running executable, and the current working directory. Bases that
// cannot be resolved are silently skipped.
func Bases(resourceDir string) []string {
	bases := make([]string, 0, 3)
	if resourceDir != "" {
		bases = append(bases, resourceDir)
	}
	if exe, err := os.Executable(); err == nil {
		bases = append(bases, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		bases = append(bases, wd)
	}
	return bases
}

// LocateRuntime returns the first existing runtime binary under the
// given bases, in priority order.
func LocateRuntime(bases []string) (string, bool) {
	return locate(bases, RuntimeRelPath(runtime.GOOS))
}

// LocateScript returns the first existing server script under the given
// bases, in priority order.
func LocateScript(bases []string) (string, bool) {
	return locate(bases, ScriptRelPath())
}

func locate(bases []string, rel string) (string, bool) {
	for _, base := range bases {
		p := filepath.Join(base, rel)
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			// Missing or inaccessible candidates are not errors,
			// just non-matches.
			continue
		}
		return p, true
	}
	return "", false
}
