package watermark

import (
	"math"
	"sync"
)

const (
	alphaThreshold float32 = 0.002
	maxAlpha       float32 = 0.99
	logoValue      float32 = 255.0
)

// Unblend reverses the white logo composite inside pos, in place.
//
// pix is an 8-bit RGBA buffer of width x height pixels, row-major with the
// origin at the top-left and no row padding. The alpha channel is left
// untouched. Unblend returns false and leaves pix unchanged when the
// footprint is outside the image, the buffer is too short, or the opacity
// map does not cover the footprint.
func Unblend(pix []byte, width, height int, pos Position, mask OpacityMap) bool {
	return unblend(pix, width*4, width, height, pos, mask, 1)
}

// unblend is Unblend over a buffer with an explicit row stride, splitting the
// footprint rows across up to workers goroutines.
func unblend(pix []byte, stride, width, height int, pos Position, mask OpacityMap, workers int) bool {
	if !pos.Within(width, height) {
		return false
	}
	if pos.Width <= 0 || pos.Height <= 0 {
		return false
	}
	if mask.Size != pos.Width || len(mask.Values) < pos.Width*pos.Height {
		return false
	}
	if len(pix) < (height-1)*stride+width*4 {
		return false
	}

	workers = min(max(workers, 1), pos.Height)
	if workers == 1 {
		unblendRows(pix, stride, pos, mask, 0, pos.Height)
		return true
	}

	band := (pos.Height + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < pos.Height; start += band {
		end := min(start+band, pos.Height)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			unblendRows(pix, stride, pos, mask, start, end)
		}(start, end)
	}
	wg.Wait()
	return true
}

// unblendRows processes footprint rows [start, end). Rows touch disjoint
// slices of pix.
func unblendRows(pix []byte, stride int, pos Position, mask OpacityMap, start, end int) {
	for row := start; row < end; row++ {
		for col := 0; col < pos.Width; col++ {
			alpha, ok := effectiveAlpha(mask.Values[row*pos.Width+col])
			if !ok {
				continue
			}

			offset := (pos.Y+row)*stride + (pos.X+col)*4
			for c := 0; c < 3; c++ {
				pix[offset+c] = recoverChannel(pix[offset+c], alpha)
			}
		}
	}
}

// effectiveAlpha skips negligible opacity and caps the rest so the
// denominator stays away from zero.
func effectiveAlpha(alpha float32) (float32, bool) {
	if alpha < alphaThreshold {
		return 0, false
	}
	return min(alpha, maxAlpha), true
}

// recoverChannel solves watermarked = alpha*255 + (1-alpha)*original.
func recoverChannel(watermarked uint8, alpha float32) uint8 {
	original := (float32(watermarked) - alpha*logoValue) / (1 - alpha)
	return clampChannel(original)
}

// clampChannel clips to [0, 255] and rounds half away from zero.
func clampChannel(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(float64(v)))
}
