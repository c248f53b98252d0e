package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nutriscan/backend/internal/domain"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// ProductResolver resolves a barcode into a product
type ProductResolver interface {
	Resolve(ctx context.Context, barcode string) (*domain.ResolvedProduct, error)
}

// Scanner detects barcodes on images and resolves stored scans
type Scanner interface {
	Detect(ctx context.Context, image string) (*domain.DetectionResult, error)
	ResolveScan(ctx context.Context, scanID string) (*domain.ResolvedProduct, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	resolver ProductResolver
	scanner  Scanner
	log      logrus.FieldLogger
}

// NewHandler creates a new HTTP handler
func NewHandler(resolver ProductResolver, scanner Scanner, log logrus.FieldLogger) *Handler {
	return &Handler{
		resolver: resolver,
		scanner:  scanner,
		log:      log,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "nutriscan-backend",
		"version": Version,
	})
}

// DetectBarcodes handles POST /api/v1/barcodes/detect
func (h *Handler) DetectBarcodes(c *gin.Context) {
	var req domain.DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}

	result, err := h.scanner.Detect(c.Request.Context(), req.Image)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidImage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
			return
		}
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProduct handles GET /api/v1/products/:barcode
func (h *Handler) GetProduct(c *gin.Context) {
	barcode := c.Param("barcode")

	product, err := h.resolver.Resolve(c.Request.Context(), barcode)
	if err != nil {
		h.resolutionError(c, err, barcode)
		return
	}

	c.JSON(http.StatusOK, product)
}

// GetScanProduct handles GET /api/v1/scans/:scanId/product
func (h *Handler) GetScanProduct(c *gin.Context) {
	product, err := h.scanner.ResolveScan(c.Request.Context(), c.Param("scanId"))
	if err != nil {
		if errors.Is(err, domain.ErrScanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "scan not found or expired"})
			return
		}
		h.resolutionError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, product)
}

// resolutionError maps a resolution failure to a response. barcode is used
// when the error itself does not carry one.
func (h *Handler) resolutionError(c *gin.Context, err error, barcode string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "barcode is required"})
	case errors.Is(err, domain.ErrNotFoundAnywhere):
		var notFound *domain.NotFoundAnywhereError
		if errors.As(err, &notFound) {
			barcode = notFound.Barcode
		}
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "product not found",
			"barcode": barcode,
		})
	default:
		h.internalError(c, err)
	}
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.log.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"path":       c.Request.URL.Path,
	}).WithError(err).Error("request failed")
	c.Error(err)

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
