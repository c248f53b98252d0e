package domain

import (
	"context"
	"image"
	"time"
)

// CacheRepository defines the interface for short-lived keyed storage
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ProductProvider looks a barcode up in one external product database.
// Implementations return ErrProductNotFound, ErrProviderNotConfigured or
// ErrProviderFailure (wrapped) when they cannot produce a record.
type ProductProvider interface {
	Name() string
	LookupProduct(ctx context.Context, barcode string) (*ProductInfo, error)
}

// ImageDecoder turns an uploaded base64 payload into a raster
type ImageDecoder interface {
	DecodeBase64(payload string) (image.Image, error)
}

// BarcodeLocator finds barcode symbols on a raster
type BarcodeLocator interface {
	Locate(img image.Image) []BarcodeDetection
}
