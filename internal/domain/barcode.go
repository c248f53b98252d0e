package domain

import "time"

// Point is a pixel coordinate on the decoded raster
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is the axis-aligned bounding box of a detected symbol
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BarcodeDetection is a single symbol found on an image
type BarcodeDetection struct {
	Data    string  `json:"data"`
	Type    string  `json:"type"` // symbology as reported by the reader, e.g. "EAN_13"
	Polygon []Point `json:"polygon"`
	Rect    Rect    `json:"rect"`
}

// DetectionResult is returned to callers of the detect endpoint.
// ScanID is only set when at least one barcode was found and the scan could be stored.
type DetectionResult struct {
	Detected bool               `json:"detected"`
	Results  []BarcodeDetection `json:"results"`
	ScanID   string             `json:"scan_id,omitempty"`
}

// DetectRequest is the inbound payload for barcode detection
type DetectRequest struct {
	Image string `json:"image" binding:"required"`
}

// ScanRecord is what the scan store keeps between detection and resolution
type ScanRecord struct {
	Barcode   string    `json:"barcode"`
	Type      string    `json:"type"`
	ScannedAt time.Time `json:"scannedAt"`
}
