package httpapi

import (
	"image"

	watermark "github.com/gcslaoli/gemini-watermark-unblend"
)

// BBox is the watermark footprint in image pixels.
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func newBBox(r image.Rectangle) BBox {
	return BBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// FootprintResponse describes where the watermark is expected.
type FootprintResponse struct {
	Width    int  `json:"width"`
	Height   int  `json:"height"`
	LogoSize int  `json:"logo_size"`
	Box      BBox `json:"box"`
	// Fits is false when the footprint falls outside the image and removal
	// would be a no-op.
	Fits bool `json:"fits"`
}

func newFootprintResponse(width, height int) FootprintResponse {
	info := watermark.WatermarkInfo(width, height)
	return FootprintResponse{
		Width:    width,
		Height:   height,
		LogoSize: info.Size,
		Box:      newBBox(info.Position),
		Fits:     info.Position.In(image.Rect(0, 0, width, height)),
	}
}

// Base64Request carries a base64 image, optionally as a data URL.
type Base64Request struct {
	Image string `json:"image" binding:"required"`
}

// Base64Response returns the processed image as base64 PNG.
type Base64Response struct {
	Success  bool   `json:"success"`
	Image    string `json:"image"`
	Format   string `json:"format"`
	Applied  bool   `json:"applied"`
	LogoSize int    `json:"logo_size"`
	Box      BBox   `json:"box"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
