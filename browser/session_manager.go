// Package browser launches headless Chrome for scraping. Every caller gets its
// own browser process and page; nothing is pooled or shared between calls.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"

	"upsolve/logger"
)

// ErrTimeout means a navigation or selector wait exceeded its bound.
var ErrTimeout = errors.New("timed out waiting for page")

type Config struct {
	Env               string
	Evasion           string
	ChromePath        string
	BundledPath       string
	UserAgent         string
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Env:               EnvLocal,
		Evasion:           "plain",
		UserAgent:         DefaultUserAgent,
		NavigationTimeout: 45 * time.Second,
		SelectorTimeout:   20 * time.Second,
	}
}

func (c Config) navigationTimeout() time.Duration {
	if c.NavigationTimeout <= 0 {
		return 45 * time.Second
	}
	return c.NavigationTimeout
}

func (c Config) selectorTimeout() time.Duration {
	if c.SelectorTimeout <= 0 {
		return 20 * time.Second
	}
	return c.SelectorTimeout
}

// Manager hands out sessions.
type Manager struct {
	cfg     Config
	evasion Evasion
	logger  *logger.Logger
}

func NewManager(cfg Config, log *logger.Logger) (*Manager, error) {
	ev, err := EvasionByName(cfg.Evasion)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{cfg: cfg, evasion: ev, logger: log}, nil
}

// Session owns one browser process and one page.
type Session struct {
	ID       string
	page     *rod.Page
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      Config
	logger   *logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// Acquire launches a browser and opens a dressed page. The caller must Close
// the session; WithSession does that automatically.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	traceID := uuid.New().String()
	bin, err := Discover(m.cfg)
	if err != nil {
		m.logger.Log(zapcore.ErrorLevel, traceID, "No browser binary available", map[string]any{
			"method":    "Acquire",
			"env":       m.cfg.Env,
			"errorType": "CONFIGURATION_ERROR",
		}, "BROWSER", err)
		return nil, err
	}

	l := launcher.New().
		Bin(bin).
		Headless(true).
		NoSandbox(true).
		Set(flags.Flag("disable-setuid-sandbox")).
		Set(flags.Flag("disable-dev-shm-usage")).
		Set(flags.Flag("disable-blink-features"), "AutomationControlled").
		Context(ctx)
	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("launch chrome %s: %w", bin, err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := m.evasion.NewPage(b, m.cfg.UserAgent)
	if err != nil {
		_ = b.Close()
		l.Kill()
		l.Cleanup()
		return nil, err
	}

	s := &Session{
		ID:       traceID,
		page:     page,
		browser:  b,
		launcher: l,
		cfg:      m.cfg,
		logger:   m.logger,
	}
	m.logger.Log(zapcore.DebugLevel, traceID, "Browser session acquired", map[string]any{
		"method":  "Acquire",
		"bin":     bin,
		"evasion": m.evasion.Name(),
	}, "BROWSER", nil)
	return s, nil
}

// WithSession runs fn with a fresh session and closes it on every exit path,
// including panics and context expiry.
func (m *Manager) WithSession(ctx context.Context, fn func(ctx context.Context, s *Session) error) (err error) {
	s, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			s.logger.Log(zapcore.WarnLevel, s.ID, "Browser session close failed", map[string]any{
				"method": "WithSession",
			}, "BROWSER", cerr)
		}
	}()
	return fn(ctx, s)
}

// Close releases the page, the browser connection and the process. It is
// safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.page != nil {
			_ = s.page.Close()
		}
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
		if s.launcher != nil {
			s.launcher.Kill()
			s.launcher.Cleanup()
		}
		s.logger.Log(zapcore.DebugLevel, s.ID, "Browser session closed", map[string]any{
			"method": "Close",
		}, "BROWSER", nil)
	})
	return s.closeErr
}

// Page exposes the underlying page for callers that need rod directly.
func (s *Session) Page() *rod.Page { return s.page }

// Navigate loads url and waits for the load event, bounded by the navigation
// timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx).Timeout(s.cfg.navigationTimeout())
	if err := p.Navigate(url); err != nil {
		return wrapWait(fmt.Sprintf("navigate %s", url), err)
	}
	if err := p.WaitLoad(); err != nil {
		return wrapWait(fmt.Sprintf("load %s", url), err)
	}
	return nil
}

// WaitFor blocks until selector matches, bounded by the selector timeout.
func (s *Session) WaitFor(ctx context.Context, selector string) error {
	if _, err := s.page.Context(ctx).Timeout(s.cfg.selectorTimeout()).Element(selector); err != nil {
		return wrapWait(fmt.Sprintf("wait for %s", selector), err)
	}
	return nil
}

// DisableScripts stops page scripts from running on later navigations.
// Evaluations issued through the session still work.
func (s *Session) DisableScripts(ctx context.Context) error {
	if err := (proto.EmulationSetScriptExecutionDisabled{Value: true}).Call(s.page.Context(ctx)); err != nil {
		return fmt.Errorf("disable scripts: %w", err)
	}
	return nil
}

// Has reports whether selector currently matches without waiting.
func (s *Session) Has(ctx context.Context, selector string) (bool, error) {
	has, _, err := s.page.Context(ctx).Has(selector)
	return has, err
}

// EvalString runs a JS function expression and returns its string result.
func (s *Session) EvalString(ctx context.Context, js string, args ...interface{}) (string, error) {
	res, err := s.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return "", fmt.Errorf("evaluate script: %w", err)
	}
	return res.Value.Str(), nil
}

func wrapWait(what string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrTimeout, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}
