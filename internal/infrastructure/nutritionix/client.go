package nutritionix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/nutriscan/backend/config"
	"github.com/nutriscan/backend/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const userAgent = "NutriScan/1.0 (barcode nutrition lookup)"

// Client handles communication with the Nutritionix track API
type Client struct {
	httpClient  *http.Client
	appID       string
	appKey      string
	enabled     bool
	baseURL     string
	timeout     time.Duration
	rateLimiter *rate.Limiter
	log         logrus.FieldLogger
}

// NewClient creates a new Nutritionix API client. Without real credentials the
// client is disabled and never touches the network.
func NewClient(cfg config.NutritionixConfig, log logrus.FieldLogger) *Client {
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 60
	}

	return &Client{
		httpClient:  &http.Client{},
		appID:       cfg.AppID,
		appKey:      cfg.AppKey,
		enabled:     cfg.Enabled(),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		timeout:     cfg.Timeout,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), max(perMinute/10, 1)),
		log:         log.WithField("provider", ProviderName),
	}
}

// Name implements domain.ProductProvider
func (c *Client) Name() string {
	return ProviderName
}

// Enabled reports whether credentials are configured
func (c *Client) Enabled() bool {
	return c.enabled
}

// LookupProduct searches for a branded item by UPC. It makes a single attempt.
func (c *Client) LookupProduct(ctx context.Context, barcode string) (*domain.ProductInfo, error) {
	if !c.enabled {
		return nil, domain.ErrProviderNotConfigured
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrProviderFailure, err)
	}

	payload, err := json.Marshal(SearchItemRequest{UPC: barcode})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", domain.ErrProviderFailure, err)
	}

	c.log.WithField("barcode", barcode).Debug("[Nutritionix] searching item")

	body, status, err := c.doRequest(ctx, c.baseURL+"/v2/search/item", payload)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		return nil, domain.ErrProductNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderFailure, status)
	}

	var resp SearchItemResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrProviderFailure, err)
	}

	if len(resp.Foods) == 0 {
		c.log.WithField("barcode", barcode).Info("[Nutritionix] no foods for barcode")
		return nil, domain.ErrProductNotFound
	}

	return MapToProductInfo(&resp.Foods[0]), nil
}

// doRequest executes an authenticated HTTP POST and returns the body and status code
func (c *Client) doRequest(ctx context.Context, reqURL string, payload []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to create request: %v", domain.ErrProviderFailure, err)
	}
	req.Header.Set("x-app-id", c.appID)
	req.Header.Set("x-app-key", c.appKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, fmt.Errorf("%w: timed out after %s", domain.ErrProviderFailure, c.timeout)
		}
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to read response: %v", domain.ErrProviderFailure, err)
	}
	return body, resp.StatusCode, nil
}
