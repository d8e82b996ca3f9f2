package domain

import "errors"

var (
	// ErrNoDetection is returned when a scan yields no catalog match.
	ErrNoDetection = errors.New("no item detected")

	// ErrCaptureFailed is returned when the screen grab produced no pixels.
	ErrCaptureFailed = errors.New("screen capture failed")

	// ErrEngineUnavailable is returned when an optional engine (OCR,
	// templates, input hooks) was not available at startup.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrBlacklisted is returned when extracted text matches known UI chrome.
	ErrBlacklisted = errors.New("text is blacklisted UI chrome")

	// ErrInvalidRequest is returned when request parameters are invalid.
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when a key is absent or expired in a cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrPriceUnavailable is returned when a remote price source fails.
	ErrPriceUnavailable = errors.New("price source unavailable")

	// ErrRefreshInProgress is returned when a refresh is already running.
	ErrRefreshInProgress = errors.New("refresh already in progress")

	// ErrItemNotFound is returned when a key is not in the catalog.
	ErrItemNotFound = errors.New("item not found in catalog")
)
