package watermark

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"
)

// DecodeBase64Image decodes a base64-encoded image (optionally a data URL) into
// an image.Image. It returns the decoded image and the detected format string
// ("png", "jpeg", "webp", etc.).
func DecodeBase64Image(input string) (image.Image, string, error) {
	data, err := decodeBase64(input)
	if err != nil {
		return nil, "", err
	}
	return DecodeImageBytes(data)
}

func decodeBase64(input string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(stripDataPrefix(strings.TrimSpace(input)))
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %w", ErrImageProcessingFailed, err)
	}
	return data, nil
}

// EncodePNGToBase64 encodes an image as PNG and returns a base64 string.
func EncodePNGToBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// RemoveWatermarkBase64 removes the watermark from a base64-encoded image and
// returns the cleaned image as base64 PNG along with the footprint. A PNG
// whose footprint does not fit is returned unchanged.
func (e *Engine) RemoveWatermarkBase64(input string) (output string, res Result, err error) {
	data, err := decodeBase64(input)
	if err != nil {
		return "", Result{}, err
	}

	img, format, err := e.decodeBytes(data)
	if err != nil {
		return "", Result{}, err
	}

	res, err = e.Remove(img)
	if err != nil {
		return "", Result{}, err
	}

	// An untouched PNG is handed back byte for byte.
	if !res.Applied && format == "png" {
		return base64.StdEncoding.EncodeToString(data), res, nil
	}

	output, err = EncodePNGToBase64(res.Image)
	if err != nil {
		return "", Result{}, err
	}

	return output, res, nil
}

// RemoveWatermarkBase64 applies the default engine to a base64-encoded image.
func RemoveWatermarkBase64(input string) (string, Result, error) {
	return Default().RemoveWatermarkBase64(input)
}

func stripDataPrefix(input string) string {
	lower := strings.ToLower(input)
	if strings.HasPrefix(lower, "data:") {
		if idx := strings.Index(input, ","); idx != -1 {
			return input[idx+1:]
		}
	}
	return input
}
