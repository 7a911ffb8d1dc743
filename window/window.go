// Package window is the boundary between the bootstrap supervisor and
// the host UI. The supervisor only needs one capability from the
// window system: point it at the now-live local server.
package window

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
)

// Navigator navigates the host window to a URL. Implementations are
// injected so the supervisor can be exercised without a real window
// system.
type Navigator interface {
	Navigate(url string) error
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(url string) error

// Navigate calls f(url).
func (f NavigatorFunc) Navigate(url string) error {
	return f(url)
}

// BrowserNavigator opens URLs with the platform's default opener. It is
// the host binding used when the shell runs without an embedded
// webview.
type BrowserNavigator struct {
	Logger *slog.Logger
}

// Navigate opens the URL in the default browser. The opener process is
// released immediately; its outcome is not tracked.
func (b *BrowserNavigator) Navigate(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	if b.Logger != nil {
		b.Logger.Info("Opened browser", "url", url)
	}
	go cmd.Wait()
	return nil
}
