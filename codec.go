package watermark

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	// Register common decoders, including WebP, BMP and TIFF via x/image.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Decode reads an image from the reader, returning the decoded image and the
// detected format string ("png", "jpeg", "webp", etc.).
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode: %w", ErrImageProcessingFailed, err)
	}
	return img, format, nil
}

// DecodeImageBytes decodes an in-memory image.
func DecodeImageBytes(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty image data", ErrImageProcessingFailed)
	}
	return Decode(bytes.NewReader(data))
}

// EncodePNG writes the provided image to the writer as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("%w: encode png: %w", ErrImageProcessingFailed, err)
	}
	return nil
}

// Encode writes img in the named format ("jpeg", "png", "gif", "tiff",
// "bmp"). Formats without an encoder, such as WebP, fall back to PNG. The
// format actually written is returned.
func Encode(w io.Writer, img image.Image, format string, jpegQuality int) (string, error) {
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		if !errors.Is(err, imaging.ErrUnsupportedFormat) {
			return "", fmt.Errorf("%w: %w", ErrImageProcessingFailed, err)
		}
		f = imaging.PNG
	}

	if err := imaging.Encode(w, img, f, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("%w: encode %s: %w", ErrImageProcessingFailed, formatName(f), err)
	}
	return formatName(f), nil
}

// formatName maps imaging formats back to the names image.Decode reports.
func formatName(f imaging.Format) string {
	switch f {
	case imaging.JPEG:
		return "jpeg"
	case imaging.PNG:
		return "png"
	case imaging.GIF:
		return "gif"
	case imaging.TIFF:
		return "tiff"
	case imaging.BMP:
		return "bmp"
	}
	return "png"
}

// BytesResult is the outcome of RemoveWatermarkBytes.
type BytesResult struct {
	Data        []byte
	InputFormat string
	Format      string
	Info        Info
	Applied     bool
}

// RemoveWatermarkBytes decodes data, removes the watermark and re-encodes the
// result in the input format when an encoder for it exists. When the
// footprint does not fit the image, data is returned as is.
func (e *Engine) RemoveWatermarkBytes(data []byte) (BytesResult, error) {
	img, format, err := e.decodeBytes(data)
	if err != nil {
		return BytesResult{}, err
	}

	res, err := e.Remove(img)
	if err != nil {
		return BytesResult{}, err
	}

	if !res.Applied {
		return BytesResult{
			Data:        data,
			InputFormat: format,
			Format:      format,
			Info:        res.Info,
		}, nil
	}

	var buf bytes.Buffer
	written, err := Encode(&buf, res.Image, format, e.jpegQuality)
	if err != nil {
		return BytesResult{}, err
	}

	return BytesResult{
		Data:        buf.Bytes(),
		InputFormat: format,
		Format:      written,
		Info:        res.Info,
		Applied:     true,
	}, nil
}

// decodeBytes reads the image header first so oversized inputs are rejected
// before their pixels are decoded.
func (e *Engine) decodeBytes(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty image data", ErrImageProcessingFailed)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode config: %w", ErrImageProcessingFailed, err)
	}
	if err := e.checkDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, "", err
	}

	return Decode(bytes.NewReader(data))
}

// RemoveWatermarkBytes applies the default engine to an encoded image.
func RemoveWatermarkBytes(data []byte) (BytesResult, error) {
	return Default().RemoveWatermarkBytes(data)
}
