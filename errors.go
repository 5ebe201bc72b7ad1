package watermark

import "errors"

var (
	// ErrAssetMissing reports that no reference overlay for the required
	// logo size could be located or decoded.
	ErrAssetMissing = errors.New("watermark asset missing")
	// ErrImageProcessingFailed reports that the input could not be turned into
	// a pixel buffer or the result could not be encoded.
	ErrImageProcessingFailed = errors.New("image processing failed")
)
