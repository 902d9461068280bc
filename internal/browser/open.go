// Package browser hands banner links to the system browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Opener launches a URL. It is a variable so tests can stub it out.
var Opener = start

// Open validates link as an absolute http(s) URL and opens it.
func Open(link string) error {
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("browser.Open: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("browser.Open: refusing %q: not an http(s) link", link)
	}
	if err := Opener(u.String()); err != nil {
		return fmt.Errorf("browser.Open: %w", err)
	}
	return nil
}

func start(link string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", link).Start()
	case "linux":
		return exec.Command("xdg-open", link).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", link).Start()
	default:
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}
