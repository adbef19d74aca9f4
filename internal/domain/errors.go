package domain

import "errors"

// Pipeline sentinel errors. Only ErrInvalidURL and ErrRendererUnavailable
// ever reach a caller; navigation errors are absorbed by the retry loop.
var (
	// ErrInvalidURL: the URL does not match any modeled site's host and
	// detail-page shape. Rejected before any render is attempted.
	ErrInvalidURL = errors.New("url is not a supported product detail page")

	// ErrNavigationTimeout: navigation timed out and nothing usable
	// loaded. Timeouts with a partial DOM are absorbed by the renderer.
	ErrNavigationTimeout = errors.New("page navigation timed out")

	// ErrNavigationError: navigation failed outright.
	ErrNavigationError = errors.New("page navigation failed")

	// ErrRendererUnavailable: the browser binary cannot be launched.
	// This is a fatal configuration failure, not a retryable one.
	ErrRendererUnavailable = errors.New("browser renderer is unavailable")
)
