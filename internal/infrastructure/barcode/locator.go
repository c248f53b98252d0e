package barcode

import (
	"cmp"
	"image"
	"math"
	"slices"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/datamatrix"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/sirupsen/logrus"

	"github.com/nutriscan/backend/internal/domain"
)

const (
	// maxRescanDepth bounds how often the regions around a decoded symbol are searched again
	maxRescanDepth = 4
	// minRescanDimension is the smallest region, in pixels, worth searching again
	minRescanDimension = 100
)

// Locator finds barcode symbols on a raster using the ZXing reader family.
// Readers run in a fixed order, so the output order is deterministic for a given raster.
type Locator struct {
	log logrus.FieldLogger
}

// NewLocator creates a new barcode locator
func NewLocator(log logrus.FieldLogger) *Locator {
	return &Locator{log: log}
}

type decodeFunc func(bmp *gozxing.BinaryBitmap, hints map[gozxing.DecodeHintType]interface{}) ([]*gozxing.Result, error)

type namedReader struct {
	name   string
	decode decodeFunc
}

// readers builds a fresh reader set; gozxing readers keep per-decode state
func readers(hints map[gozxing.DecodeHintType]interface{}) []namedReader {
	return []namedReader{
		{"qrcode", multiqr.NewQRCodeMultiReader().DecodeMultiple},
		{"datamatrix", rescanning(datamatrix.NewDataMatrixReader())},
		{"upc-ean", rescanning(oned.NewMultiFormatUPCEANReader(hints))},
		{"code128", rescanning(oned.NewCode128Reader())},
		{"code39", rescanning(oned.NewCode39Reader())},
	}
}

// Locate returns every symbol found on img. An image without barcodes yields an
// empty slice; reader failures only mean "nothing found by that reader".
func (l *Locator) Locate(img image.Image) []domain.BarcodeDetection {
	detections := []domain.BarcodeDetection{}
	if img == nil || img.Bounds().Empty() {
		return detections
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		l.log.WithError(err).Warn("[barcode] failed to binarize image")
		return detections
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	matrix, _ := bmp.GetBlackMatrix()
	seen := make(map[string]bool)
	for _, r := range readers(hints) {
		results, err := r.decode(bmp, hints)
		if len(results) == 0 {
			l.log.WithField("reader", r.name).Tracef("[barcode] no symbol: %v", err)
			continue
		}

		found := make([]domain.BarcodeDetection, 0, len(results))
		for _, result := range results {
			if result == nil {
				continue
			}
			detection := toDetection(result, img.Bounds(), matrix)
			key := detection.Type + "\x00" + detection.Data
			if seen[key] {
				continue
			}
			seen[key] = true
			found = append(found, detection)
		}

		// reading order: top to bottom, then left to right
		slices.SortStableFunc(found, func(a, b domain.BarcodeDetection) int {
			return cmp.Or(cmp.Compare(a.Rect.Y, b.Rect.Y), cmp.Compare(a.Rect.X, b.Rect.X))
		})

		for _, detection := range found {
			l.log.WithFields(logrus.Fields{
				"reader":    r.name,
				"symbology": detection.Type,
			}).Debug("[barcode] symbol decoded")
		}
		detections = append(detections, found...)
	}

	return detections
}

// rescanning turns a single-symbol reader into one that also searches the
// regions left of, above, right of and below every symbol it decodes.
func rescanning(reader gozxing.Reader) decodeFunc {
	return func(bmp *gozxing.BinaryBitmap, hints map[gozxing.DecodeHintType]interface{}) ([]*gozxing.Result, error) {
		var results []*gozxing.Result
		err := rescan(reader, bmp, hints, 0, 0, 0, &results)
		return results, err
	}
}

func rescan(reader gozxing.Reader, bmp *gozxing.BinaryBitmap, hints map[gozxing.DecodeHintType]interface{},
	xOffset, yOffset, depth int, results *[]*gozxing.Result) error {
	result, err := reader.Decode(bmp, hints)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}

	duplicate := false
	for _, r := range *results {
		if r.GetText() == result.GetText() && r.GetBarcodeFormat() == result.GetBarcodeFormat() {
			duplicate = true
			break
		}
	}
	if !duplicate {
		*results = append(*results, translate(result, xOffset, yOffset))
	}

	points := result.GetResultPoints()
	if depth >= maxRescanDepth || len(points) == 0 || !bmp.IsCropSupported() {
		return nil
	}

	width, height := bmp.GetWidth(), bmp.GetHeight()
	minX, minY := float64(width), float64(height)
	maxX, maxY := 0.0, 0.0
	for _, p := range points {
		if p == nil {
			continue
		}
		minX = math.Min(minX, p.GetX())
		minY = math.Min(minY, p.GetY())
		maxX = math.Max(maxX, p.GetX())
		maxY = math.Max(maxY, p.GetY())
	}

	type region struct{ left, top, width, height int }
	var regions []region
	if minX > minRescanDimension {
		regions = append(regions, region{0, 0, int(minX), height})
	}
	if minY > minRescanDimension {
		regions = append(regions, region{0, 0, width, int(minY)})
	}
	if maxX < float64(width-minRescanDimension) {
		regions = append(regions, region{int(maxX), 0, width - int(maxX), height})
	}
	if maxY < float64(height-minRescanDimension) {
		regions = append(regions, region{0, int(maxY), width, height - int(maxY)})
	}

	for _, r := range regions {
		cropped, err := bmp.Crop(r.left, r.top, r.width, r.height)
		if err != nil {
			continue
		}
		_ = rescan(reader, cropped, hints, xOffset+r.left, yOffset+r.top, depth+1, results)
	}
	return nil
}

// translate moves the points of a result decoded on a cropped region back into
// the coordinates of the full raster.
func translate(result *gozxing.Result, xOffset, yOffset int) *gozxing.Result {
	if xOffset == 0 && yOffset == 0 {
		return result
	}
	points := make([]gozxing.ResultPoint, 0, len(result.GetResultPoints()))
	for _, p := range result.GetResultPoints() {
		if p == nil {
			continue
		}
		points = append(points, gozxing.NewResultPoint(p.GetX()+float64(xOffset), p.GetY()+float64(yOffset)))
	}
	translated := gozxing.NewResult(result.GetText(), result.GetRawBytes(), points, result.GetBarcodeFormat())
	translated.PutAllMetadata(result.GetResultMetadata())
	return translated
}

type vec struct{ x, y float64 }

func (a vec) add(b vec) vec       { return vec{a.x + b.x, a.y + b.y} }
func (a vec) sub(b vec) vec       { return vec{a.x - b.x, a.y - b.y} }
func (a vec) scale(k float64) vec { return vec{a.x * k, a.y * k} }
func (a vec) dist(b vec) float64  { return math.Hypot(a.x-b.x, a.y-b.y) }

func (a vec) unit() vec {
	n := math.Hypot(a.x, a.y)
	if n == 0 {
		return vec{}
	}
	return a.scale(1 / n)
}

// toDetection converts a reader result into a detection. QR codes report
// finder-pattern centres, which are pushed out to the symbol's four corners;
// 1-D readers report the two ends of the scan line, which are widened to the
// quadrilateral of their bounding box. Corners are returned clockwise.
func toDetection(result *gozxing.Result, bounds image.Rectangle, matrix *gozxing.BitMatrix) domain.BarcodeDetection {
	var finders []gozxing.ResultPoint
	for _, p := range result.GetResultPoints() {
		if p != nil {
			finders = append(finders, p)
		}
	}

	outline := make([]vec, 0, 4)
	if result.GetBarcodeFormat() == gozxing.BarcodeFormat_QR_CODE && len(finders) >= 3 {
		outline = qrOutline(finders[:3], matrix)
	} else {
		for _, p := range finders {
			outline = append(outline, vec{p.GetX(), p.GetY()})
		}
	}

	points := make([]domain.Point, 0, len(outline))
	for _, v := range outline {
		points = append(points, domain.Point{
			X: clamp(bounds.Min.X+int(math.Round(v.x)), bounds.Min.X, bounds.Max.X-1),
			Y: clamp(bounds.Min.Y+int(math.Round(v.y)), bounds.Min.Y, bounds.Max.Y-1),
		})
	}

	rect := boundingRect(points)
	if len(points) < 3 {
		points = rectCorners(rect)
	} else {
		points = clockwise(points)
	}

	return domain.BarcodeDetection{
		Data:    result.GetText(),
		Type:    result.GetBarcodeFormat().String(),
		Polygon: points,
		Rect:    rect,
	}
}

// qrOutline extrapolates the four symbol corners from three finder-pattern
// centres. Each centre lies 3.5 modules inside the symbol edge on both axes.
func qrOutline(finders []gozxing.ResultPoint, matrix *gozxing.BitMatrix) []vec {
	a := vec{finders[0].GetX(), finders[0].GetY()}
	b := vec{finders[1].GetX(), finders[1].GetY()}
	c := vec{finders[2].GetX(), finders[2].GetY()}

	// the top-left finder sits opposite the longest side
	topLeft, p, q := b, a, c
	switch {
	case b.dist(c) > a.dist(c) && b.dist(c) >= a.dist(b):
		topLeft, p, q = a, b, c
	case a.dist(b) > a.dist(c) && a.dist(b) > b.dist(c):
		topLeft, p, q = c, a, b
	}

	u := p.sub(topLeft).unit()
	v := q.sub(topLeft).unit()

	half := 3.5 * estimatedModuleSize(finders)
	if half == 0 {
		half = (finderHalfWidth(matrix, topLeft, u.scale(-1)) + finderHalfWidth(matrix, topLeft, v.scale(-1))) / 2
	}

	return []vec{
		topLeft.sub(u.add(v).scale(half)),
		p.add(u.sub(v).scale(half)),
		p.add(q).sub(topLeft).add(u.add(v).scale(half)),
		q.add(v.sub(u).scale(half)),
	}
}

// estimatedModuleSize averages the module size the QR detector attached to its
// finder patterns, or returns 0 when the points carry none.
func estimatedModuleSize(finders []gozxing.ResultPoint) float64 {
	type moduleSizer interface{ GetEstimatedModuleSize() float64 }

	var total float64
	var n int
	for _, f := range finders {
		if s, ok := f.(moduleSizer); ok && s.GetEstimatedModuleSize() > 0 {
			total += s.GetEstimatedModuleSize()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// finderHalfWidth walks from a finder centre along dir across the dark core,
// the light ring and the dark ring, and returns the distance to the outer edge.
func finderHalfWidth(matrix *gozxing.BitMatrix, from, dir vec) float64 {
	if matrix == nil || dir == (vec{}) {
		return 0
	}

	w, h := matrix.GetWidth(), matrix.GetHeight()
	dark := true
	transitions := 0
	for step := 1; step < w+h; step++ {
		pos := from.add(dir.scale(float64(step)))
		x, y := int(math.Round(pos.x)), int(math.Round(pos.y))
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		if matrix.Get(x, y) != dark {
			dark = !dark
			transitions++
			if transitions == 3 {
				return float64(step)
			}
		}
	}
	return 0
}

// clockwise orders points by angle around their centroid, starting from the
// point closest to the top-left direction
func clockwise(points []domain.Point) []domain.Point {
	var cx, cy float64
	for _, p := range points {
		cx += float64(p.X)
		cy += float64(p.Y)
	}
	cx /= float64(len(points))
	cy /= float64(len(points))

	angle := func(p domain.Point) float64 {
		// image y grows downward, so increasing atan2 runs clockwise on screen;
		// shift so the top-left diagonal sorts first
		a := math.Atan2(float64(p.Y)-cy, float64(p.X)-cx) + 3*math.Pi/4
		if a < 0 {
			a += 2 * math.Pi
		}
		return math.Mod(a, 2*math.Pi)
	}

	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b domain.Point) int {
		return cmp.Compare(angle(a), angle(b))
	})
	return sorted
}

// boundingRect returns the axis-aligned box around points, at least 1x1
func boundingRect(points []domain.Point) domain.Rect {
	if len(points) == 0 {
		return domain.Rect{Width: 1, Height: 1}
	}

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}

	return domain.Rect{
		X:      minX,
		Y:      minY,
		Width:  max(maxX-minX, 1),
		Height: max(maxY-minY, 1),
	}
}

// rectCorners returns the four corners of r, clockwise from the top-left
func rectCorners(r domain.Rect) []domain.Point {
	return []domain.Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
