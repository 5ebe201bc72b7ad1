package watermark

import (
	"embed"
	"fmt"
	"image"
	"image/color"
	"io"
	"io/fs"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

//go:embed assets/bg_48.png assets/bg_96.png
var embeddedAssets embed.FS

// OpacityMap is the per-pixel alpha of a Size x Size reference overlay,
// row-major, each value in [0, 1].
type OpacityMap struct {
	Size   int
	Values []float32
}

// At returns the opacity at column col and row row.
func (m OpacityMap) At(col, row int) float32 {
	return m.Values[row*m.Size+col]
}

// AssetSource locates reference overlays inside a file system. Pattern is a
// fmt verb string receiving the logo size, e.g. "Assets/bg_%d.png".
type AssetSource struct {
	Name    string
	FS      fs.FS
	Pattern string
}

func (s AssetSource) path(size int) string {
	return fmt.Sprintf(s.Pattern, size)
}

// BundledAssets returns the overlays embedded in the package.
func BundledAssets() AssetSource {
	return AssetSource{Name: "bundled", FS: embeddedAssets, Pattern: "assets/bg_%d.png"}
}

// DirAssets looks overlays up as Assets/bg_<size>.png under root.
func DirAssets(root string) AssetSource {
	return AssetSource{Name: "dir:" + root, FS: os.DirFS(root), Pattern: "Assets/bg_%d.png"}
}

// DefaultAssetSources tries the bundled overlays first, then the working
// directory.
func DefaultAssetSources() []AssetSource {
	return []AssetSource{BundledAssets(), DirAssets(".")}
}

// MaskStore loads opacity maps by logo size and keeps them for its lifetime.
// Population is serialized per size; failures are not cached.
type MaskStore struct {
	sources []AssetSource
	logger  *zap.Logger

	// decode is swapped in tests to count decodes.
	decode func(io.Reader) (image.Image, error)

	mu    sync.RWMutex
	maps  map[int]OpacityMap
	group singleflight.Group
}

// NewMaskStore builds a store over the given sources, tried in order. With no
// sources it uses DefaultAssetSources.
func NewMaskStore(sources ...AssetSource) *MaskStore {
	if len(sources) == 0 {
		sources = DefaultAssetSources()
	}
	return &MaskStore{
		sources: sources,
		logger:  zap.NewNop(),
		decode: func(r io.Reader) (image.Image, error) {
			img, _, err := image.Decode(r)
			return img, err
		},
		maps: make(map[int]OpacityMap),
	}
}

// SetLogger replaces the store logger. A nil logger disables logging.
func (s *MaskStore) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s.logger = l
}

// OpacityMap returns the cached map for size, loading it on first use.
func (s *MaskStore) OpacityMap(size int) (OpacityMap, error) {
	if m, ok := s.cached(size); ok {
		return m, nil
	}

	v, err, _ := s.group.Do(strconv.Itoa(size), func() (any, error) {
		// A flight that finished between the read above and this call has
		// already stored the map.
		if m, ok := s.cached(size); ok {
			return m, nil
		}

		m, err := s.load(size)
		if err != nil {
			return OpacityMap{}, err
		}

		s.mu.Lock()
		s.maps[size] = m
		s.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return OpacityMap{}, err
	}
	return v.(OpacityMap), nil
}

func (s *MaskStore) cached(size int) (OpacityMap, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.maps[size]
	return m, ok
}

// load walks the sources in order and returns the first usable overlay.
func (s *MaskStore) load(size int) (OpacityMap, error) {
	if size <= 0 {
		return OpacityMap{}, fmt.Errorf("%w: invalid logo size %d", ErrAssetMissing, size)
	}

	lastErr := fmt.Errorf("no asset sources configured")
	for _, src := range s.sources {
		img, err := s.readSource(src, size)
		if err != nil {
			s.logger.Debug("asset source miss",
				zap.String("source", src.Name),
				zap.Int("size", size),
				zap.Error(err))
			lastErr = err
			continue
		}

		s.logger.Debug("opacity map loaded",
			zap.String("source", src.Name),
			zap.Int("size", size))
		return OpacityMap{Size: size, Values: calculateOpacityMap(img)}, nil
	}

	return OpacityMap{}, fmt.Errorf("%w: bg_%d: %w", ErrAssetMissing, size, lastErr)
}

func (s *MaskStore) readSource(src AssetSource, size int) (image.Image, error) {
	if src.FS == nil {
		return nil, fmt.Errorf("source %s has no file system", src.Name)
	}

	name := src.path(size)
	f, err := src.FS.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	img, err := s.decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	b := img.Bounds()
	if b.Dx() != size || b.Dy() != size {
		return nil, fmt.Errorf("%s is %dx%d, want %dx%d", name, b.Dx(), b.Dy(), size, size)
	}
	return img, nil
}

// calculateOpacityMap takes the brightest RGB channel of each 8-bit
// premultiplied pixel and scales it to [0, 1]. The overlay alpha channel is
// ignored since reference captures are flattened.
func calculateOpacityMap(img image.Image) []float32 {
	bounds := img.Bounds()
	alpha := make([]float32, bounds.Dx()*bounds.Dy())

	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			alpha[idx] = float32(max(c.R, c.G, c.B)) / 255.0
			idx++
		}
	}

	return alpha
}
