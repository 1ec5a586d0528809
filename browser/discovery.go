package browser

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-rod/rod/lib/launcher"
)

// ErrConfiguration means no usable browser binary could be found. It is not
// worth retrying.
var ErrConfiguration = errors.New("browser configuration error")

const (
	EnvLocal      = "local"
	EnvServerless = "serverless"
)

// localSearchPaths are probed in order when running outside serverless.
var localSearchPaths = []string{
	"/usr/bin/google-chrome-stable",
	"/usr/bin/google-chrome",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

type finder struct {
	exists   func(path string) bool
	lookPath func() (string, bool)
	download func() (string, error)
}

var systemFinder = finder{
	exists: func(path string) bool {
		info, err := os.Stat(path)
		return err == nil && !info.IsDir()
	},
	lookPath: launcher.LookPath,
	download: func() (string, error) { return launcher.NewBrowser().Get() },
}

func (f finder) find(cfg Config) (string, error) {
	switch cfg.Env {
	case EnvServerless:
		if cfg.BundledPath != "" {
			if f.exists(cfg.BundledPath) {
				return cfg.BundledPath, nil
			}
			return "", fmt.Errorf("%w: bundled browser %q not found", ErrConfiguration, cfg.BundledPath)
		}
		path, err := f.download()
		if err != nil {
			return "", fmt.Errorf("%w: fetch bundled browser: %v", ErrConfiguration, err)
		}
		return path, nil
	case EnvLocal, "":
		candidates := make([]string, 0, len(localSearchPaths)+2)
		if cfg.ChromePath != "" {
			candidates = append(candidates, cfg.ChromePath)
		}
		candidates = append(candidates, localSearchPaths...)
		for _, p := range candidates {
			if f.exists(p) {
				return p, nil
			}
		}
		if p, ok := f.lookPath(); ok {
			return p, nil
		}
		if cfg.BundledPath != "" && f.exists(cfg.BundledPath) {
			return cfg.BundledPath, nil
		}
		return "", fmt.Errorf("%w: no chrome found in search paths", ErrConfiguration)
	default:
		return "", fmt.Errorf("%w: unknown browser env %q", ErrConfiguration, cfg.Env)
	}
}

type discovery struct {
	once sync.Once
	path string
	err  error
}

var (
	discoveriesMu sync.Mutex
	discoveries   = map[string]*discovery{}
)

// Discover resolves the browser binary for cfg. The answer, success or
// failure, is cached for the life of the process.
func Discover(cfg Config) (string, error) {
	key := cfg.Env + "|" + cfg.ChromePath + "|" + cfg.BundledPath
	discoveriesMu.Lock()
	d, ok := discoveries[key]
	if !ok {
		d = &discovery{}
		discoveries[key] = d
	}
	discoveriesMu.Unlock()

	d.once.Do(func() {
		d.path, d.err = systemFinder.find(cfg)
	})
	return d.path, d.err
}
