// Package scraper holds the two browser-backed pipelines: the upsolve resolver
// and the problem statement extractor.
package scraper

import (
	"errors"

	"upsolve/browser"
	"upsolve/codeforces"
)

var (
	// ErrConfiguration means no browser could be launched. Not retried.
	ErrConfiguration = browser.ErrConfiguration
	// ErrScrapeTimeout means an expected element never appeared in time.
	ErrScrapeTimeout = browser.ErrTimeout
	// ErrScrapeStructure means the page layout no longer matches what the
	// extractor expects. Usually the scraper needs updating.
	ErrScrapeStructure = errors.New("unexpected page structure")
	// ErrInvalidURL means the problem URL has neither accepted shape.
	ErrInvalidURL = codeforces.ErrInvalidURL
	// ErrInvalidHandle means the handle is blank.
	ErrInvalidHandle = errors.New("invalid handle")
)

// ErrorType classifies err for the errorType log field.
func ErrorType(err error) string {
	var apiErr *codeforces.UpstreamAPIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "CONFIGURATION_ERROR"
	case errors.Is(err, ErrScrapeTimeout):
		return "SCRAPE_TIMEOUT"
	case errors.Is(err, ErrScrapeStructure):
		return "SCRAPE_STRUCTURE"
	case errors.Is(err, ErrInvalidURL):
		return "INVALID_URL"
	case errors.Is(err, ErrInvalidHandle):
		return "INVALID_HANDLE"
	case errors.As(err, &apiErr):
		return "UPSTREAM_API_ERROR"
	default:
		return "SCRAPE_ERROR"
	}
}
