package encoder

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/listlens/listlens/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	return img
}

func noiseImage(w, h int, seed int64) image.Image {
	r := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(r.Intn(256)), G: uint8(r.Intn(256)), B: uint8(r.Intn(256)), A: 255})
		}
	}
	return img
}

func TestScaleDimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h, edge   int
		wantW, wantH int
	}{
		{name: "landscape phone photo", w: 4032, h: 3024, edge: 1568, wantW: 1568, wantH: 1176},
		{name: "portrait phone photo", w: 3024, h: 4032, edge: 1568, wantW: 1176, wantH: 1568},
		{name: "already small", w: 800, h: 600, edge: 1568, wantW: 800, wantH: 600},
		{name: "exactly at bound", w: 1568, h: 1000, edge: 1568, wantW: 1568, wantH: 1000},
		{name: "rounds to nearest", w: 1000, h: 333, edge: 500, wantW: 500, wantH: 167},
		{name: "never below one pixel", w: 10000, h: 1, edge: 100, wantW: 100, wantH: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ScaleDimensions(tt.w, tt.h, tt.edge)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestEncodePhoneSizedPhoto(t *testing.T) {
	p, err := Encode(uniformImage(4032, 3024), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 4032, p.OriginalWidth)
	assert.Equal(t, 3024, p.OriginalHeight)
	assert.Equal(t, 1568, p.Width)
	assert.Equal(t, 1176, p.Height)
	assert.Equal(t, 1, p.Attempts)
	assert.Equal(t, 85, p.Quality)
	assert.True(t, p.BudgetMet)
	assert.False(t, p.FallbackUsed)
	assert.Equal(t, MediaType, p.MediaType)
	assert.Equal(t, len(p.Data), p.DecodedBytes)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(p.Data))
	require.NoError(t, err)
	assert.Equal(t, 1568, cfg.Width)
	assert.Equal(t, 1176, cfg.Height)
}

func TestEncodeNeverUpscales(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {300, 200}, {1568, 1568}, {90, 1500}} {
		p, err := Encode(uniformImage(size[0], size[1]), DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, size[0], p.Width)
		assert.Equal(t, size[1], p.Height)
	}
}

func TestEncodeLoopIsBounded(t *testing.T) {
	opts := Options{
		MaxLongestEdge:      320,
		MaxBytes:            500,
		InitialQuality:      85,
		MinQuality:          40,
		QualityStep:         10,
		FallbackLongestEdge: 32,
	}
	require.Equal(t, 5, MaxIterations(opts))

	p, err := Encode(noiseImage(320, 240, 1), opts)
	require.NoError(t, err)

	// initial encode + five quality steps (75, 65, 55, 45, 40) + one fallback
	assert.Equal(t, 1+MaxIterations(opts)+1, p.Attempts)
	assert.True(t, p.FallbackUsed)
	assert.Equal(t, 40, p.Quality)
	assert.Equal(t, 32, p.Width)
	assert.Equal(t, 24, p.Height)
	assert.Equal(t, p.DecodedBytes <= opts.MaxBytes, p.BudgetMet)
}

func TestEncodeFallbackNeverUpscales(t *testing.T) {
	opts := Options{
		MaxLongestEdge:      64,
		MaxBytes:            1,
		InitialQuality:      50,
		MinQuality:          50,
		QualityStep:         5,
		FallbackLongestEdge: 1024,
	}
	p, err := Encode(noiseImage(64, 48, 2), opts)
	require.NoError(t, err)

	assert.Equal(t, 2, p.Attempts)
	assert.True(t, p.FallbackUsed)
	assert.False(t, p.BudgetMet)
	assert.Equal(t, 64, p.Width)
	assert.Equal(t, 48, p.Height)
}

func TestEncodeFallbackStaysWithinMaxEdge(t *testing.T) {
	opts := Options{
		MaxLongestEdge:      64,
		MaxBytes:            1,
		InitialQuality:      50,
		MinQuality:          50,
		QualityStep:         5,
		FallbackLongestEdge: 200,
	}
	p, err := Encode(noiseImage(400, 300, 4), opts)
	require.NoError(t, err)

	assert.True(t, p.FallbackUsed)
	assert.LessOrEqual(t, max(p.Width, p.Height), opts.MaxLongestEdge)
	assert.Equal(t, 64, p.Width)
	assert.Equal(t, 48, p.Height)
}

func TestEncodeStepClampsToMinimum(t *testing.T) {
	opts := Options{
		MaxLongestEdge:      200,
		MaxBytes:            1,
		InitialQuality:      90,
		MinQuality:          37,
		QualityStep:         25,
		FallbackLongestEdge: 100,
	}
	// 90 -> 65 -> 40 -> 37 (clamped)
	assert.Equal(t, 3, MaxIterations(opts))

	p, err := Encode(noiseImage(200, 100, 3), opts)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Attempts)
	assert.Equal(t, 37, p.Quality)
}

func TestEncodeInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.QualityStep = 0
	_, err := Encode(uniformImage(10, 10), opts)
	assert.ErrorIs(t, err, common.ErrEncoding)

	opts = DefaultOptions()
	opts.MinQuality = 95
	_, err = Encode(uniformImage(10, 10), opts)
	assert.ErrorIs(t, err, common.ErrEncoding)
}

func TestEncodeBytes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, noiseImage(40, 30, 4)))

	p, err := EncodeBytes(buf.Bytes(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 40, p.Width)
	assert.Equal(t, 30, p.Height)

	_, err = EncodeBytes([]byte("definitely not an image"), DefaultOptions())
	assert.ErrorIs(t, err, common.ErrEncoding)
}

func TestBase64ByteSize(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for n := 0; n <= 64; n++ {
		data := make([]byte, n)
		r.Read(data)
		encoded := base64.StdEncoding.EncodeToString(data)
		assert.Equal(t, n, Base64ByteSize(encoded), "length %d", n)
	}

	assert.Equal(t, 0, Base64ByteSize(""))
	assert.Equal(t, 1, Base64ByteSize("QQ=="))
	assert.Equal(t, 2, Base64ByteSize("QUI="))
	assert.Equal(t, 3, Base64ByteSize("QUJD"))
}

func TestThumbnail(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, uniformImage(1000, 500)))

	thumb, err := Thumbnail(buf.Bytes(), 240, 70)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 240, cfg.Width)
	assert.Equal(t, 120, cfg.Height)

	buf.Reset()
	require.NoError(t, png.Encode(&buf, uniformImage(100, 50)))
	thumb, err = Thumbnail(buf.Bytes(), 240, 70)
	require.NoError(t, err)
	cfg, err = jpeg.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)

	_, err = Thumbnail([]byte{0x00, 0x01}, 240, 70)
	assert.ErrorIs(t, err, common.ErrEncoding)
}
