package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriscan/backend/config"
	"github.com/nutriscan/backend/internal/domain"
	"github.com/nutriscan/backend/internal/infrastructure/barcode"
	"github.com/nutriscan/backend/internal/infrastructure/cache"
	"github.com/nutriscan/backend/internal/infrastructure/imaging"
	"github.com/nutriscan/backend/internal/infrastructure/metrics"
	"github.com/nutriscan/backend/internal/infrastructure/nutritionix"
	"github.com/nutriscan/backend/internal/infrastructure/openfoodfacts"
	"github.com/nutriscan/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const (
	offBarcode         = "3017620422003"
	nutritionixBarcode = "0049000028911"
	unknownBarcode     = "4006381333931"
)

// fakeOpenFoodFacts knows a single product
func fakeOpenFoodFacts(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/product/"+offBarcode+".json" {
			w.Write([]byte(`{"status": 0, "status_verbose": "product not found"}`))
			return
		}
		w.Write([]byte(`{
			"status": 1,
			"product": {
				"product_name": "Nutella",
				"brands": "Ferrero",
				"serving_size": "15 g",
				"nova_group": 4,
				"additives_tags": ["en:e322", "en:e322i"],
				"nutriscore_grade": "A",
				"nutriscore_score": 26,
				"nutriments": {
					"energy-kcal_100g": 539,
					"sugars_100g": 56.3,
					"trans-fat_100g": 3,
					"sodium_100g": 0.0428
				}
			}
		}`))
	}))
	t.Cleanup(server.Close)
	return server
}

// fakeNutritionix knows a single product
func fakeNutritionix(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), nutritionixBarcode) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"foods": [{
			"food_name": "Plain Skyr",
			"brand_name": "Siggi's",
			"serving_qty": 1,
			"serving_unit": "container",
			"nf_sugars": 3,
			"nf_saturated_fat": 1,
			"nf_sodium": 200,
			"nf_dietary_fiber": 5,
			"nf_protein": 8,
			"nf_ingredient_statement": "Pasteurized Skim Milk, Live Active Cultures"
		}]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

type testServer struct {
	router  *gin.Engine
	metrics *metrics.Metrics
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	log, _ := test.NewNullLogger()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxBodyBytes:   1 << 20,
		},
		OpenFoodFacts: config.OpenFoodFactsConfig{
			BaseURL:       fakeOpenFoodFacts(t).URL,
			Timeout:       2 * time.Second,
			RatePerMinute: 6000,
		},
		Nutritionix: config.NutritionixConfig{
			AppID:         "test-id",
			AppKey:        "test-key",
			BaseURL:       fakeNutritionix(t).URL,
			Timeout:       2 * time.Second,
			RatePerMinute: 6000,
		},
	}

	m := metrics.New()
	store := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { store.Close() })

	resolver := usecase.NewResolutionService([]domain.ProductProvider{
		openfoodfacts.NewClient(cfg.OpenFoodFacts, log),
		nutritionix.NewClient(cfg.Nutritionix, log),
	}, m, log)
	scanner := usecase.NewScanService(
		imaging.NewDecoder(),
		barcode.NewLocator(log),
		store,
		resolver,
		m,
		log,
		usecase.ScanServiceConfig{ScanTTL: time.Minute},
	)

	handler := NewHandler(resolver, scanner, log)
	return &testServer{router: SetupRouter(cfg, handler, log, m), metrics: m}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func ean13PNG(t *testing.T, contents string) string {
	t.Helper()
	matrix, err := oned.NewEAN13Writer().Encode(contents, gozxing.BarcodeFormat_EAN_13, 400, 150, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, matrix))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHealthCheckEndpoint(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "nutriscan-backend", response["service"])
	assert.Equal(t, Version, response["version"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		assert.Equal(t, http.StatusNotFound, s.do(method, "/health", "").Code, method)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)
	s.do(http.MethodGet, "/health", "")

	w := s.do(http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nutriscan_http_requests_total")
}

func TestDetectEndpoint(t *testing.T) {
	s := setupTestServer(t)

	t.Run("detects barcode and issues scan token", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/barcodes/detect", `{"image":"`+ean13PNG(t, offBarcode)+`"}`)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var result domain.DetectionResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.Detected)
		require.NotEmpty(t, result.Results)
		assert.Equal(t, offBarcode, result.Results[0].Data)
		assert.Equal(t, "EAN_13", result.Results[0].Type)
		assert.NotEmpty(t, result.ScanID)
	})

	t.Run("accepts data URL", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/barcodes/detect", `{"image":"data:image/png;base64,`+ean13PNG(t, offBarcode)+`"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeBody(t, w)["detected"])
	})

	t.Run("image without barcode", func(t *testing.T) {
		blank := image.NewGray(image.Rect(0, 0, 200, 200))
		draw.Draw(blank, blank.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, blank))

		w := s.do(http.MethodPost, "/api/v1/barcodes/detect", `{"image":"`+base64.StdEncoding.EncodeToString(buf.Bytes())+`"}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"detected":false,"results":[]}`, w.Body.String())
	})

	t.Run("missing image", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/barcodes/detect", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "image is required", decodeBody(t, w)["error"])
	})

	t.Run("invalid image", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/barcodes/detect", `{"image":"bm90IGFuIGltYWdl"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid image", decodeBody(t, w)["error"])
	})

	t.Run("body too large", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/barcodes/detect", `{"image":"`+strings.Repeat("A", 2<<20)+`"}`)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestProductEndpoint(t *testing.T) {
	s := setupTestServer(t)

	t.Run("found in primary provider", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/v1/products/"+offBarcode, "")

		require.Equal(t, http.StatusOK, w.Code)
		var product domain.ResolvedProduct
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
		assert.Equal(t, offBarcode, product.Barcode)
		assert.Equal(t, "Nutella", product.Name)
		assert.Equal(t, openfoodfacts.ProviderName, product.Source)
		assert.Equal(t, domain.GradeA, product.NutritionScore.Grade)
		assert.Equal(t, 100.0, product.SugarPercentage)
		assert.Equal(t, 100.0, product.TransFatPercentage)

		score := decodeBody(t, w)["nutrition_score"].(map[string]interface{})
		assert.Equal(t, "A", score["grade"])
		assert.Equal(t, 5.0, score["value"])
		assert.Equal(t, "Excellent", score["label"])
	})

	t.Run("falls back to secondary provider", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/v1/products/"+nutritionixBarcode, "")

		require.Equal(t, http.StatusOK, w.Code)
		response := decodeBody(t, w)
		assert.Equal(t, nutritionix.ProviderName, response["source"])
		assert.Equal(t, "Plain Skyr", response["name"])

		score := response["nutrition_score"].(map[string]interface{})
		assert.Equal(t, "A", score["grade"])
		assert.Equal(t, 5.0, score["value"])
		assert.Equal(t, "Excellent", score["label"])
	})

	t.Run("not found anywhere", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/v1/products/"+unknownBarcode, "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"product not found","barcode":"`+unknownBarcode+`"}`, w.Body.String())
	})

	t.Run("blank barcode", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/v1/products/%20", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestScanFlow(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/barcodes/detect", `{"image":"`+ean13PNG(t, offBarcode)+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	scanID, _ := decodeBody(t, w)["scan_id"].(string)
	require.NotEmpty(t, scanID)

	w = s.do(http.MethodGet, "/api/v1/scans/"+scanID+"/product", "")

	require.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, offBarcode, response["barcode"])
	assert.Equal(t, "Nutella", response["name"])
}

func TestScanFlow_UnknownProduct(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/barcodes/detect", `{"image":"`+ean13PNG(t, unknownBarcode)+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	scanID := decodeBody(t, w)["scan_id"].(string)

	w = s.do(http.MethodGet, "/api/v1/scans/"+scanID+"/product", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"product not found","barcode":"`+unknownBarcode+`"}`, w.Body.String())
}

func TestScanEndpoint_UnknownToken(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/scans/7c9e6679-7425-40de-944b-e07fc1f90ae7/product", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"scan not found or expired"}`, w.Body.String())
}

// failingResolver simulates an unexpected failure below the handler
type failingResolver struct{}

func (failingResolver) Resolve(ctx context.Context, barcode string) (*domain.ResolvedProduct, error) {
	return nil, errors.New("database exploded: secret detail")
}

func TestProductEndpoint_InternalError(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := &config.Config{Server: config.ServerConfig{Environment: "test", MaxBodyBytes: 1024}}
	router := SetupRouter(cfg, NewHandler(failingResolver{}, nil, log), log, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/products/123", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestCORSIntegration(t *testing.T) {
	s := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/barcodes/detect", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
