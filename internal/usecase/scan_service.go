package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/nutriscan/backend/internal/domain"
	"github.com/nutriscan/backend/internal/infrastructure/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultScanTTL is how long a scan token stays resolvable
const DefaultScanTTL = 15 * time.Minute

const scanKeyPrefix = "scan:"

// Resolver resolves a barcode into a product
type Resolver interface {
	Resolve(ctx context.Context, barcode string) (*domain.ResolvedProduct, error)
}

// ScanServiceConfig holds configuration for the scan service
type ScanServiceConfig struct {
	ScanTTL time.Duration
}

// ScanService detects barcodes on uploaded images and hands the first payload
// to the resolver through a short-lived scan token.
type ScanService struct {
	decoder  domain.ImageDecoder
	locator  domain.BarcodeLocator
	store    domain.CacheRepository
	resolver Resolver
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	scanTTL  time.Duration
	now      func() time.Time
}

// NewScanService creates a scan service with dependencies. m may be nil.
func NewScanService(
	decoder domain.ImageDecoder,
	locator domain.BarcodeLocator,
	store domain.CacheRepository,
	resolver Resolver,
	m *metrics.Metrics,
	log logrus.FieldLogger,
	config ScanServiceConfig,
) *ScanService {
	scanTTL := config.ScanTTL
	if scanTTL <= 0 {
		scanTTL = DefaultScanTTL
	}

	return &ScanService{
		decoder:  decoder,
		locator:  locator,
		store:    store,
		resolver: resolver,
		metrics:  m,
		log:      log,
		scanTTL:  scanTTL,
		now:      time.Now,
	}
}

// Detect decodes a base64 image and locates barcodes on it. When anything is
// found the first payload is stored and its scan token returned as ScanID.
func (s *ScanService) Detect(ctx context.Context, image string) (*domain.DetectionResult, error) {
	img, err := s.decoder.DecodeBase64(image)
	if err != nil {
		return nil, err
	}

	detections := s.locator.Locate(img)
	if detections == nil {
		detections = []domain.BarcodeDetection{}
	}

	result := &domain.DetectionResult{
		Detected: len(detections) > 0,
		Results:  detections,
	}

	for _, d := range detections {
		s.metrics.RecordDetection(d.Type)
	}

	if !result.Detected {
		s.log.Debug("no barcode found on image")
		return result, nil
	}

	first := detections[0]
	scanID, err := s.saveScan(ctx, domain.ScanRecord{
		Barcode:   first.Data,
		Type:      first.Type,
		ScannedAt: s.now().UTC(),
	})
	if err != nil {
		s.log.WithError(err).WithField("barcode", first.Data).Warn("failed to store scan, returning detections without scan id")
		return result, nil
	}
	result.ScanID = scanID

	s.log.WithFields(logrus.Fields{
		"scan_id": scanID,
		"barcode": first.Data,
		"type":    first.Type,
		"count":   len(detections),
	}).Info("barcode detected")

	return result, nil
}

// ResolveScan resolves the barcode stored under scanID
func (s *ScanService) ResolveScan(ctx context.Context, scanID string) (*domain.ResolvedProduct, error) {
	record, err := s.loadScan(ctx, scanID)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, record.Barcode)
}

func (s *ScanService) saveScan(ctx context.Context, record domain.ScanRecord) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode scan record: %w", err)
	}

	scanID := uuid.NewString()
	if err := s.store.Set(ctx, scanKeyPrefix+scanID, data, s.scanTTL); err != nil {
		return "", fmt.Errorf("failed to store scan: %w", err)
	}
	return scanID, nil
}

func (s *ScanService) loadScan(ctx context.Context, scanID string) (*domain.ScanRecord, error) {
	if _, err := uuid.Parse(scanID); err != nil {
		return nil, domain.ErrScanNotFound
	}

	data, err := s.store.Get(ctx, scanKeyPrefix+scanID)
	if errors.Is(err, domain.ErrCacheMiss) {
		return nil, domain.ErrScanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scan: %w", err)
	}

	var record domain.ScanRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode scan record: %w", err)
	}
	return &record, nil
}
