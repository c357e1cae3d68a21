// internal/browser/allocator.go
package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/terminwatch/internal/config"
)

// flag is a single Chrome command line switch. A false bool value removes a
// switch that chromedp enables by default.
type flag struct {
	Name  string
	Value interface{}
}

// launchFlags translates the browser configuration into Chrome switches, in
// the order they are applied. Later entries win.
func launchFlags(cfg config.BrowserConfig) []flag {
	flags := []flag{
		{"headless", cfg.Headless},
		// The booking portal serves a bot wall to obviously automated browsers.
		{"enable-automation", false},
		{"disable-blink-features", "AutomationControlled"},
		{"disable-extensions", true},
		{"disable-gpu", cfg.Headless},
	}

	if cfg.NoSandbox {
		flags = append(flags, flag{"no-sandbox", true}, flag{"disable-setuid-sandbox", true})
	}
	if cfg.DisableDevShmUsage {
		flags = append(flags, flag{"disable-dev-shm-usage", true})
	}
	if cfg.IgnoreTLSErrors {
		flags = append(flags, flag{"ignore-certificate-errors", true})
	}
	if cfg.UserAgent != "" {
		flags = append(flags, flag{"user-agent", cfg.UserAgent})
	}
	if cfg.Viewport.IsSet() {
		flags = append(flags, flag{"window-size", fmt.Sprintf("%d,%d", cfg.Viewport.Width, cfg.Viewport.Height)})
	}

	// Custom arguments from the config file, "--name=value" or "--name".
	for _, arg := range cfg.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if name == "" {
			continue
		}
		if len(parts) == 2 {
			flags = append(flags, flag{name, parts[1]})
		} else {
			flags = append(flags, flag{name, true})
		}
	}
	return flags
}

// AllocatorOptions assembles the exec allocator options for one browser process.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range launchFlags(cfg) {
		opts = append(opts, chromedp.Flag(f.Name, f.Value))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}
