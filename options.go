package watermark

import "go.uber.org/zap"

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The mask store the engine builds itself
// logs through it too; a store passed with WithMaskStore keeps its own logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l == nil {
			l = zap.NewNop()
		}
		e.logger = l
	}
}

// WithMaskStore shares an existing opacity map cache between engines.
func WithMaskStore(s *MaskStore) Option {
	return func(e *Engine) {
		if s != nil {
			e.masks = s
		}
	}
}

// WithAssetSources builds a private mask store over the given sources.
// It has no effect together with WithMaskStore.
func WithAssetSources(sources ...AssetSource) Option {
	return func(e *Engine) {
		e.sources = sources
	}
}

// WithWorkers splits the footprint rows across n goroutines.
// Values below 1 are treated as 1.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = max(n, 1)
	}
}

// WithJPEGQuality sets the quality used when the result is re-encoded as
// JPEG. The value is clamped to [1, 100].
func WithJPEGQuality(q int) Option {
	return func(e *Engine) {
		e.jpegQuality = min(max(q, 1), 100)
	}
}

// WithMaxPixels rejects inputs with more than n pixels before any pixel
// buffer is allocated. Zero means no limit.
func WithMaxPixels(n int) Option {
	return func(e *Engine) {
		e.maxPixels = max(n, 0)
	}
}
