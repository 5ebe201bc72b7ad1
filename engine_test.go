package watermark

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const overlayLevel = 128

func testEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	src := mapSource("mem", fstest.MapFS{
		"Assets/bg_48.png": &fstest.MapFile{Data: grayOverlayPNG(t, 48, overlayLevel)},
		"Assets/bg_96.png": &fstest.MapFile{Data: grayOverlayPNG(t, 96, overlayLevel)},
	})
	return NewEngine(append([]Option{WithAssetSources(src)}, opts...)...)
}

// watermarkedImage fills a width x height image with base and composites a
// white overlay of uniform opacity over the expected footprint.
func watermarkedImage(width, height int, base uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	rect := WatermarkInfo(width, height).Position
	alpha := float64(overlayLevel) / 255
	marked := uint8(math.Round(alpha*255 + (1-alpha)*float64(base)))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := base
			if (image.Point{X: x, Y: y}).In(rect) {
				v = marked
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestEngineRemoveWatermark(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantSize      int
	}{
		{"small tier", 800, 600, 48},
		{"large tier", 1280, 1100, 96},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEngine(t)
			src := watermarkedImage(tt.width, tt.height, 100)

			res, err := e.Remove(src)
			require.NoError(t, err)
			require.True(t, res.Applied)
			assert.Equal(t, tt.wantSize, res.Info.Size)
			assert.Equal(t, image.Rect(0, 0, tt.width, tt.height), res.Image.Bounds())

			untouched := color.RGBA{R: 100, G: 100, B: 100, A: 255}
			for y := 0; y < tt.height; y++ {
				for x := 0; x < tt.width; x++ {
					got := res.Image.RGBAAt(x, y)
					if (image.Point{X: x, Y: y}).In(res.Info.Position) {
						if d := int(got.R) - 100; d < -1 || d > 1 {
							t.Fatalf("(%d,%d) recovered %v, want 100±1", x, y, got)
						}
						continue
					}
					if got != untouched {
						t.Fatalf("(%d,%d) = %v outside the footprint, want %v", x, y, got, untouched)
					}
				}
			}
		})
	}
}

func TestEngineLeavesInputUntouched(t *testing.T) {
	src := watermarkedImage(800, 600, 40)
	before := append([]byte(nil), src.Pix...)

	_, err := testEngine(t).RemoveWatermark(src)
	require.NoError(t, err)
	assert.Equal(t, before, src.Pix)
}

func TestEngineNonZeroOrigin(t *testing.T) {
	full := watermarkedImage(900, 700, 100)
	sub := full.SubImage(image.Rect(100, 100, 900, 700))

	res, err := testEngine(t).Remove(sub)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 600), res.Image.Bounds())
	assert.True(t, res.Applied)
}

func TestEngineSmallImageUnchanged(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 60, 60))
	for i := range src.Pix {
		src.Pix[i] = uint8(i)
	}

	res, err := testEngine(t).Remove(src)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, 48, res.Info.Size)

	want := cloneToRGBA(src)
	assert.Equal(t, want.Pix, res.Image.Pix)
}

func TestEngineErrors(t *testing.T) {
	t.Run("nil image", func(t *testing.T) {
		_, err := testEngine(t).RemoveWatermark(nil)
		assert.True(t, errors.Is(err, ErrImageProcessingFailed))
	})
	t.Run("empty image", func(t *testing.T) {
		_, err := testEngine(t).RemoveWatermark(image.NewRGBA(image.Rect(0, 0, 0, 10)))
		assert.True(t, errors.Is(err, ErrImageProcessingFailed))
	})
	t.Run("missing asset", func(t *testing.T) {
		e := NewEngine(WithAssetSources(mapSource("empty", fstest.MapFS{})))
		_, err := e.RemoveWatermark(watermarkedImage(800, 600, 100))
		assert.True(t, errors.Is(err, ErrAssetMissing))
	})
}

func TestEnginesShareMaskStore(t *testing.T) {
	store := testEngine(t).Masks()
	n := countDecodes(store)

	a := NewEngine(WithMaskStore(store))
	b := NewEngine(WithMaskStore(store), WithWorkers(4))

	src := watermarkedImage(800, 600, 100)
	ra, err := a.Remove(src)
	require.NoError(t, err)
	rb, err := b.Remove(src)
	require.NoError(t, err)

	assert.Equal(t, int32(1), n.Load())
	assert.Equal(t, ra.Image.Pix, rb.Image.Pix)
}

func TestDefaultEngineUsesBundledAssets(t *testing.T) {
	out, err := RemoveWatermark(watermarkedImage(800, 600, 100))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 800, 600), out.Bounds())
}

func TestEngineLoggerReachesOwnMaskStore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := testEngine(t, WithLogger(zap.New(core)))

	_, err := e.Remove(watermarkedImage(800, 600, 100))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("opacity map loaded").Len())
	assert.Equal(t, 1, logs.FilterMessage("watermark removed").Len())
}

func TestEngineLoggerLeavesSharedMaskStoreAlone(t *testing.T) {
	storeCore, storeLogs := observer.New(zapcore.DebugLevel)
	engineCore, engineLogs := observer.New(zapcore.DebugLevel)

	store := testEngine(t).Masks()
	store.SetLogger(zap.New(storeCore))
	e := NewEngine(WithMaskStore(store), WithLogger(zap.New(engineCore)))

	_, err := e.Remove(watermarkedImage(800, 600, 100))
	require.NoError(t, err)
	assert.Equal(t, 1, storeLogs.FilterMessage("opacity map loaded").Len())
	assert.Equal(t, 0, engineLogs.FilterMessage("opacity map loaded").Len())
	assert.Equal(t, 1, engineLogs.FilterMessage("watermark removed").Len())
}
