package openfoodfacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/nutriscan/backend/config"
	"github.com/nutriscan/backend/internal/domain"
)

const userAgent = "NutriScan/1.0 (barcode nutrition lookup)"

// Client handles communication with the Open Food Facts product API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	timeout     time.Duration
	rateLimiter *rate.Limiter
	log         logrus.FieldLogger
}

// NewClient creates a new Open Food Facts API client
func NewClient(cfg config.OpenFoodFactsConfig, log logrus.FieldLogger) *Client {
	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 100
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), max(perMinute/10, 1))

	return &Client{
		httpClient:  &http.Client{},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		timeout:     cfg.Timeout,
		rateLimiter: limiter,
		log:         log.WithField("provider", ProviderName),
	}
}

// Name implements domain.ProductProvider
func (c *Client) Name() string {
	return ProviderName
}

// LookupProduct fetches one product by barcode. It makes a single attempt.
func (c *Client) LookupProduct(ctx context.Context, barcode string) (*domain.ProductInfo, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrProviderFailure, err)
	}

	reqURL := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(barcode))
	c.log.WithField("barcode", barcode).Debug("[OFF] looking up product")

	body, status, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		return nil, domain.ErrProductNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrProviderFailure, status)
	}

	var resp ProductResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrProviderFailure, err)
	}

	if resp.Status != 1 || resp.Product == nil {
		c.log.WithFields(logrus.Fields{
			"barcode": barcode,
			"status":  resp.StatusVerbose,
		}).Info("[OFF] no product for barcode")
		return nil, domain.ErrProductNotFound
	}

	return MapToProductInfo(resp.Product), nil
}

// doRequest executes an HTTP GET request and returns the body and status code
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to create request: %v", domain.ErrProviderFailure, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

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
