package watermark

import (
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const defaultJPEGQuality = 95

// Engine resolves the watermark footprint, fetches the matching opacity map
// and performs reverse alpha blending. It is safe for concurrent use; the
// only shared state is its mask store.
type Engine struct {
	masks       *MaskStore
	sources     []AssetSource
	logger      *zap.Logger
	workers     int
	jpegQuality int
	maxPixels   int
}

// Result is the outcome of a removal. Applied is false when the footprint
// did not fit the image and the pixels were returned unchanged.
type Result struct {
	Image   *image.RGBA
	Info    Info
	Applied bool
}

// NewEngine constructs an Engine with lazily loaded opacity maps.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:      zap.NewNop(),
		workers:     1,
		jpegQuality: defaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.masks == nil {
		e.masks = NewMaskStore(e.sources...)
		e.masks.SetLogger(e.logger)
	}
	return e
}

// Masks returns the engine's opacity map store.
func (e *Engine) Masks() *MaskStore {
	return e.masks
}

var defaultEngine struct {
	once sync.Once
	eng  *Engine
}

// Default returns the process-wide engine used by the package functions.
func Default() *Engine {
	defaultEngine.once.Do(func() {
		defaultEngine.eng = NewEngine()
	})
	return defaultEngine.eng
}

// RemoveWatermark applies the default engine to the provided image.
func RemoveWatermark(img image.Image) (*image.RGBA, error) {
	return Default().RemoveWatermark(img)
}

// RemoveWatermark applies reverse alpha blending to remove the Gemini
// watermark. The result is returned as a new *image.RGBA; the input is not
// modified.
func (e *Engine) RemoveWatermark(img image.Image) (*image.RGBA, error) {
	res, err := e.Remove(img)
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// Remove is RemoveWatermark with the footprint and whether it was applied.
func (e *Engine) Remove(img image.Image) (Result, error) {
	if img == nil {
		return Result{}, fmt.Errorf("%w: nil image provided", ErrImageProcessingFailed)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return Result{}, fmt.Errorf("%w: invalid image dimensions %dx%d", ErrImageProcessingFailed, width, height)
	}
	if err := e.checkDimensions(width, height); err != nil {
		return Result{}, err
	}

	start := time.Now()
	cfg := ResolveConfig(width, height)
	pos := ResolvePosition(width, height, cfg)
	info := Info{Size: cfg.LogoSize, Position: pos.Rect()}

	mask, err := e.masks.OpacityMap(cfg.LogoSize)
	if err != nil {
		return Result{}, err
	}

	rgba := cloneToRGBA(img)
	applied := unblend(rgba.Pix, rgba.Stride, width, height, pos, mask, e.workers)
	if !applied {
		e.logger.Debug("watermark footprint does not fit, image left unchanged",
			zap.Int("width", width),
			zap.Int("height", height),
			zap.Stringer("rect", info.Position))
		return Result{Image: rgba, Info: info}, nil
	}

	e.logger.Debug("watermark removed",
		zap.Int("size", cfg.LogoSize),
		zap.Stringer("rect", info.Position),
		zap.Duration("duration", time.Since(start)))
	return Result{Image: rgba, Info: info, Applied: true}, nil
}

// checkDimensions enforces the WithMaxPixels limit.
func (e *Engine) checkDimensions(width, height int) error {
	if e.maxPixels > 0 && width*height > e.maxPixels {
		return fmt.Errorf("%w: image %dx%d exceeds %d pixels", ErrImageProcessingFailed, width, height, e.maxPixels)
	}
	return nil
}

// cloneToRGBA copies the image into a mutable RGBA buffer whose origin is
// (0, 0), whatever the source bounds.
func cloneToRGBA(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst
}
