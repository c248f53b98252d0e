package usecase

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/nutriscan/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	ttls      map[string]time.Duration
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

// MockProvider is a mock implementation of domain.ProductProvider
type MockProvider struct {
	name     string
	info     *domain.ProductInfo
	err      error
	panicMsg string
	calls    []string
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) LookupProduct(ctx context.Context, barcode string) (*domain.ProductInfo, error) {
	m.calls = append(m.calls, barcode)
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

// MockDecoder is a mock implementation of domain.ImageDecoder
type MockDecoder struct {
	img image.Image
	err error
}

func (m *MockDecoder) DecodeBase64(payload string) (image.Image, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.img, nil
}

// MockLocator is a mock implementation of domain.BarcodeLocator
type MockLocator struct {
	detections []domain.BarcodeDetection
}

func (m *MockLocator) Locate(img image.Image) []domain.BarcodeDetection {
	return m.detections
}

// MockResolver is a mock implementation of Resolver
type MockResolver struct {
	product  *domain.ResolvedProduct
	err      error
	barcodes []string
}

func (m *MockResolver) Resolve(ctx context.Context, barcode string) (*domain.ResolvedProduct, error) {
	m.barcodes = append(m.barcodes, barcode)
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func sampleProduct(source string) *domain.ProductInfo {
	return &domain.ProductInfo{
		Name:            "Nutella",
		Brand:           "Ferrero",
		ProcessingLevel: domain.ProcessingUltra,
		AdditivesCount:  1,
		Nutrition: domain.NutritionFacts{
			ServingSize: "15 g",
			Sugar:       56.3,
			AddedSugar:  10,
			TransFat:    0.5,
		},
		NutritionScore: domain.NewNutritionScore(26, domain.GradeE),
		Source:          source,
	}
}
