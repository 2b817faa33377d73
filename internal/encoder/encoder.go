// Package encoder prepares photos for upload to a vision model: it scales them
// down and re-encodes them as JPEG until the payload fits a byte budget.
package encoder

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"math"

	"github.com/listlens/listlens/internal/common"
	"golang.org/x/image/draw"
)

const MediaType = "image/jpeg"

// Options controls Encode. All sizes are in pixels, MaxBytes is the decoded
// payload size.
type Options struct {
	MaxLongestEdge      int `yaml:"max_longest_edge"`
	MaxBytes            int `yaml:"max_bytes"`
	InitialQuality      int `yaml:"initial_quality"`
	MinQuality          int `yaml:"min_quality"`
	QualityStep         int `yaml:"quality_step"`
	FallbackLongestEdge int `yaml:"fallback_longest_edge"`
}

// DefaultOptions fits Anthropic's recommended 1568px edge and keeps the
// base64 body under 5 MB.
func DefaultOptions() Options {
	return Options{
		MaxLongestEdge:      1568,
		MaxBytes:            3_932_160,
		InitialQuality:      85,
		MinQuality:          40,
		QualityStep:         10,
		FallbackLongestEdge: 1024,
	}
}

func (o Options) validate() error {
	switch {
	case o.MaxLongestEdge <= 0:
		return fmt.Errorf("max longest edge must be positive, got %d", o.MaxLongestEdge)
	case o.FallbackLongestEdge <= 0:
		return fmt.Errorf("fallback longest edge must be positive, got %d", o.FallbackLongestEdge)
	case o.MaxBytes <= 0:
		return fmt.Errorf("max bytes must be positive, got %d", o.MaxBytes)
	case o.MinQuality < 1 || o.InitialQuality > 100 || o.MinQuality > o.InitialQuality:
		return fmt.Errorf("quality range %d..%d is invalid", o.MinQuality, o.InitialQuality)
	case o.QualityStep <= 0:
		return fmt.Errorf("quality step must be positive, got %d", o.QualityStep)
	}
	return nil
}

// Payload is an encoded image ready to send.
type Payload struct {
	OriginalWidth  int
	OriginalHeight int
	Width          int
	Height         int
	Quality        int
	Data           []byte
	Base64         string
	MediaType      string
	// DecodedBytes is Base64ByteSize(Base64), equal to len(Data).
	DecodedBytes int
	// Attempts counts JPEG encodes, including the first one.
	Attempts     int
	FallbackUsed bool
	// BudgetMet is false when even the fallback encode exceeds MaxBytes. The
	// payload is still usable.
	BudgetMet bool
}

// EncodeBytes decodes data (JPEG, PNG or GIF) and runs Encode on it.
func EncodeBytes(data []byte, opts Options) (*Payload, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %v", common.ErrEncoding, err)
	}
	return Encode(img, opts)
}

// Encode scales img so its longest edge fits opts.MaxLongestEdge and lowers
// JPEG quality step by step until the payload fits opts.MaxBytes. If it still
// does not fit at MinQuality the image is scaled once more to
// FallbackLongestEdge (capped at MaxLongestEdge) and encoded a final time at
// MinQuality.
func Encode(img image.Image, opts Options) (*Payload, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncoding, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", common.ErrEncoding)
	}

	p := &Payload{
		OriginalWidth:  b.Dx(),
		OriginalHeight: b.Dy(),
		MediaType:      MediaType,
	}

	w, h := ScaleDimensions(b.Dx(), b.Dy(), opts.MaxLongestEdge)
	scaled := resize(img, w, h)

	quality := opts.InitialQuality
	if err := p.encode(scaled, quality); err != nil {
		return nil, err
	}

	for p.DecodedBytes > opts.MaxBytes && quality > opts.MinQuality {
		quality -= opts.QualityStep
		if quality < opts.MinQuality {
			quality = opts.MinQuality
		}
		if err := p.encode(scaled, quality); err != nil {
			return nil, err
		}
	}

	if p.DecodedBytes > opts.MaxBytes {
		w, h = ScaleDimensions(b.Dx(), b.Dy(), min(opts.FallbackLongestEdge, opts.MaxLongestEdge))
		p.FallbackUsed = true
		if err := p.encode(resize(img, w, h), opts.MinQuality); err != nil {
			return nil, err
		}
	}

	p.BudgetMet = p.DecodedBytes <= opts.MaxBytes
	if !p.BudgetMet {
		slog.Warn("Encoded image still exceeds byte budget",
			"bytes", p.DecodedBytes,
			"max_bytes", opts.MaxBytes,
			"width", p.Width,
			"height", p.Height)
	}

	slog.Debug("Encoded image",
		"original", fmt.Sprintf("%dx%d", p.OriginalWidth, p.OriginalHeight),
		"encoded", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"quality", p.Quality,
		"bytes", p.DecodedBytes,
		"attempts", p.Attempts,
		"fallback", p.FallbackUsed)

	return p, nil
}

func (p *Payload) encode(img image.Image, quality int) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("%w: jpeg encode at quality %d: %v", common.ErrEncoding, quality, err)
	}
	p.Attempts++
	p.Quality = quality
	p.Data = buf.Bytes()
	p.Base64 = base64.StdEncoding.EncodeToString(p.Data)
	p.DecodedBytes = Base64ByteSize(p.Base64)
	b := img.Bounds()
	p.Width, p.Height = b.Dx(), b.Dy()
	return nil
}

// ScaleDimensions fits w x h inside a square of side maxEdge, keeping the
// aspect ratio. Each side is rounded on its own; images already inside the
// bound are returned unchanged.
func ScaleDimensions(w, h, maxEdge int) (int, int) {
	longest := max(w, h)
	if longest <= maxEdge {
		return w, h
	}
	scale := float64(maxEdge) / float64(longest)
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	return max(nw, 1), max(nh, 1)
}

// MaxIterations is the bound on the quality-reduction loop of Encode for the
// given options: ceil((initial - min) / step).
func MaxIterations(opts Options) int {
	if opts.QualityStep <= 0 || opts.InitialQuality <= opts.MinQuality {
		return 0
	}
	diff := opts.InitialQuality - opts.MinQuality
	return (diff + opts.QualityStep - 1) / opts.QualityStep
}

// Base64ByteSize returns the number of bytes encoded by a padded standard
// base64 string without decoding it.
func Base64ByteSize(encoded string) int {
	n := len(encoded)
	padding := 0
	switch {
	case n >= 2 && encoded[n-2:] == "==":
		padding = 2
	case n >= 1 && encoded[n-1] == '=':
		padding = 1
	}
	return n*3/4 - padding
}

func resize(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
