package watermark

import "image"

// Config holds the logo size and bottom-right margins of one watermark tier.
type Config struct {
	LogoSize     int
	MarginRight  int
	MarginBottom int
}

// Position is the watermark footprint in top-left origin pixel coordinates.
type Position struct {
	X, Y          int
	Width, Height int
}

// Rect returns the footprint as an image.Rectangle.
func (p Position) Rect() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// Within reports whether the footprint lies entirely inside a
// width x height image.
func (p Position) Within(width, height int) bool {
	return p.X >= 0 && p.Y >= 0 && p.X+p.Width <= width && p.Y+p.Height <= height
}

// Info captures the watermark size and placement for a given image.
type Info struct {
	Size     int
	Position image.Rectangle
}

var (
	smallTier = Config{LogoSize: 48, MarginRight: 32, MarginBottom: 32}
	largeTier = Config{LogoSize: 96, MarginRight: 64, MarginBottom: 64}
)

// ResolveConfig selects the watermark tier from the image dimensions: if both
// width and height are greater than 1024, use 96x96 with 64px margins;
// otherwise use 48x48 with 32px margins.
func ResolveConfig(width, height int) Config {
	if width > 1024 && height > 1024 {
		return largeTier
	}
	return smallTier
}

// ResolvePosition anchors the logo to the bottom-right corner by the tier
// margins. The result may fall outside the image for very small inputs.
func ResolvePosition(width, height int, cfg Config) Position {
	return Position{
		X:      width - cfg.MarginRight - cfg.LogoSize,
		Y:      height - cfg.MarginBottom - cfg.LogoSize,
		Width:  cfg.LogoSize,
		Height: cfg.LogoSize,
	}
}

// WatermarkInfo reports the expected watermark size and rectangle for display.
func WatermarkInfo(width, height int) Info {
	cfg := ResolveConfig(width, height)
	return Info{Size: cfg.LogoSize, Position: ResolvePosition(width, height, cfg).Rect()}
}
