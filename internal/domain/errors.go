package domain

import "errors"

var (
	// ErrInvalidImage is returned when the uploaded bytes cannot be decoded into a raster
	ErrInvalidImage = errors.New("invalid image")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrProductNotFound is returned by a single provider that has no record for the barcode
	ErrProductNotFound = errors.New("product not found")

	// ErrProviderFailure is returned when a provider request fails (transport, status, decoding)
	ErrProviderFailure = errors.New("provider request failed")

	// ErrProviderNotConfigured is returned by a provider whose credentials are unset
	ErrProviderNotConfigured = errors.New("provider not configured")

	// ErrNotFoundAnywhere is returned when every provider has been exhausted
	ErrNotFoundAnywhere = errors.New("product not found in any provider")

	// ErrScanNotFound is returned when a scan token is unknown or expired
	ErrScanNotFound = errors.New("scan not found or expired")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)

// NotFoundAnywhereError carries the barcode that no provider could resolve.
// It matches ErrNotFoundAnywhere under errors.Is.
type NotFoundAnywhereError struct {
	Barcode string
}

func (e *NotFoundAnywhereError) Error() string {
	return ErrNotFoundAnywhere.Error() + ": " + e.Barcode
}

// Is reports whether target is ErrNotFoundAnywhere
func (e *NotFoundAnywhereError) Is(target error) bool {
	return target == ErrNotFoundAnywhere
}
