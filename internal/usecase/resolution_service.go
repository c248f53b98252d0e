package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nutriscan/backend/internal/domain"
	"github.com/nutriscan/backend/internal/infrastructure/metrics"
)

// ResolutionService resolves a barcode against an ordered list of product
// providers. It holds no per-request state and caches nothing.
type ResolutionService struct {
	providers []domain.ProductProvider
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
}

// NewResolutionService creates a resolution service. Providers are tried in
// the given order. m may be nil.
func NewResolutionService(providers []domain.ProductProvider, m *metrics.Metrics, log logrus.FieldLogger) *ResolutionService {
	return &ResolutionService{
		providers: providers,
		metrics:   m,
		log:       log,
	}
}

// Resolve looks barcode up in each provider until one returns a record.
// A provider that errors or panics is treated as not having the product.
func (s *ResolutionService) Resolve(ctx context.Context, barcode string) (*domain.ResolvedProduct, error) {
	barcode = NormalizeBarcode(barcode)
	if barcode == "" {
		return nil, domain.ErrInvalidRequest
	}

	log := s.log.WithField("barcode", barcode)

	for _, provider := range s.providers {
		info, err := s.lookup(ctx, provider, barcode)
		if err != nil {
			entry := log.WithField("provider", provider.Name()).WithError(err)
			switch {
			case errors.Is(err, domain.ErrProductNotFound):
				entry.Info("product not found, trying next provider")
			case errors.Is(err, domain.ErrProviderNotConfigured):
				entry.Debug("provider not configured, skipping")
			default:
				entry.Warn("provider lookup failed, trying next provider")
			}
			continue
		}

		log.WithField("provider", provider.Name()).Info("product resolved")
		return newResolvedProduct(barcode, info), nil
	}

	return nil, &domain.NotFoundAnywhereError{Barcode: barcode}
}

// lookup calls a single provider, converting a panic into an error and
// recording the outcome.
func (s *ResolutionService) lookup(ctx context.Context, provider domain.ProductProvider, barcode string) (info *domain.ProductInfo, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			info = nil
			err = fmt.Errorf("%w: panic: %v", domain.ErrProviderFailure, r)
		}
		s.metrics.RecordProviderLookup(provider.Name(), outcome(err), time.Since(start))
	}()

	info, err = provider.LookupProduct(ctx, barcode)
	if err == nil && info == nil {
		err = domain.ErrProductNotFound
	}
	return info, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeFound
	case errors.Is(err, domain.ErrProductNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, domain.ErrProviderNotConfigured):
		return metrics.OutcomeNotConfigured
	default:
		return metrics.OutcomeError
	}
}

func newResolvedProduct(barcode string, info *domain.ProductInfo) *domain.ResolvedProduct {
	return &domain.ResolvedProduct{
		Barcode:            barcode,
		ProductInfo:        *info,
		SugarPercentage:    DailyValuePercentage(info.Nutrition.AddedSugar, domain.AddedSugarDailyValue),
		TransFatPercentage: DailyValuePercentage(info.Nutrition.TransFat, domain.TransFatDailyValue),
	}
}

// DailyValuePercentage returns amount as a percentage of dailyValue, clamped to [0, 100]
func DailyValuePercentage(amount, dailyValue float64) float64 {
	if dailyValue <= 0 {
		return 0
	}
	return min(max(amount/dailyValue*100, 0), 100)
}

// NormalizeBarcode trims surrounding whitespace. The payload is otherwise opaque.
func NormalizeBarcode(barcode string) string {
	return strings.TrimSpace(barcode)
}
