package browser

import (
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// DefaultUserAgent is a current desktop Chrome on Windows.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36"

// webdriverPatch runs before any page script.
const webdriverPatch = `Object.defineProperty(navigator, 'webdriver', { get: () => false });`

// Evasion opens pages dressed up to look less automated. Tactics change as
// the target site changes, so extraction code only sees this interface.
type Evasion interface {
	Name() string
	NewPage(b *rod.Browser, userAgent string) (*rod.Page, error)
}

// PlainEvasion spoofs the user agent and hides navigator.webdriver.
type PlainEvasion struct{}

func (PlainEvasion) Name() string { return "plain" }

func (PlainEvasion) NewPage(b *rod.Browser, userAgent string) (*rod.Page, error) {
	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if err := dress(page, userAgent); err != nil {
		_ = page.Close()
		return nil, err
	}
	return page, nil
}

// StealthEvasion adds the go-rod/stealth patch set on top of PlainEvasion.
type StealthEvasion struct{}

func (StealthEvasion) Name() string { return "stealth" }

func (StealthEvasion) NewPage(b *rod.Browser, userAgent string) (*rod.Page, error) {
	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("create stealth page: %w", err)
	}
	if err := dress(page, userAgent); err != nil {
		_ = page.Close()
		return nil, err
	}
	return page, nil
}

func dress(page *rod.Page, userAgent string) error {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent}); err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}
	if _, err := page.EvalOnNewDocument(webdriverPatch); err != nil {
		return fmt.Errorf("install webdriver patch: %w", err)
	}
	return nil
}

// EvasionByName maps a config value to a strategy.
func EvasionByName(name string) (Evasion, error) {
	switch name {
	case "", "plain":
		return PlainEvasion{}, nil
	case "stealth":
		return StealthEvasion{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown evasion %q", ErrConfiguration, name)
	}
}
