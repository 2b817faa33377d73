package encoder

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"github.com/listlens/listlens/internal/common"
)

const (
	DefaultThumbnailWidth   = 240
	DefaultThumbnailQuality = 70
)

// Thumbnail scales data to width pixels wide (never wider than the source)
// and returns it as JPEG. It is independent of the upload budget.
func Thumbnail(data []byte, width, quality int) ([]byte, error) {
	if width <= 0 {
		width = DefaultThumbnailWidth
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultThumbnailQuality
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode thumbnail source: %v", common.ErrEncoding, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", common.ErrEncoding)
	}

	w, h := b.Dx(), b.Dy()
	if w > width {
		h = max(int(math.Round(float64(h)*float64(width)/float64(w))), 1)
		w = width
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resize(img, w, h), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: thumbnail encode: %v", common.ErrEncoding, err)
	}
	return buf.Bytes(), nil
}
