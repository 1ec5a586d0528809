package service

import (
	"errors"
	"net/http"

	"upsolve/codeforces"
	"upsolve/model"
	"upsolve/repository"
	"upsolve/scraper"
)

var ErrInvalidInput = errors.New("invalid input")

// StatusFromError maps service errors onto HTTP status codes. The NATS
// replies carry the same codes.
func StatusFromError(err error) int {
	var apiErr *codeforces.UpstreamAPIError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, scraper.ErrInvalidURL),
		errors.Is(err, scraper.ErrInvalidHandle),
		errors.Is(err, codeforces.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, scraper.ErrScrapeTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, scraper.ErrScrapeStructure), errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, scraper.ErrConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorTypeOf names err for responses and logs.
func ErrorTypeOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, codeforces.ErrInvalidKey):
		return "VALIDATION_ERROR"
	case errors.Is(err, repository.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, repository.ErrConflict):
		return "CONFLICT"
	default:
		return scraper.ErrorType(err)
	}
}

// ErrorInfo builds the error body shared by HTTP and NATS replies.
func ErrorInfo(err error) *model.ErrorInfo {
	code := StatusFromError(err)
	return &model.ErrorInfo{
		ErrorType: ErrorTypeOf(err),
		Code:      code,
		Message:   http.StatusText(code),
		Details:   err.Error(),
	}
}
