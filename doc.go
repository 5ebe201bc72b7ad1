// Package watermark removes the visible Gemini logo watermark by reversing
// the alpha compositing that produced it.
//
// The watermark is a white overlay anchored to the bottom-right corner of the
// image. Its footprint is chosen from the image dimensions (48x48 with 32px
// margins, or 96x96 with 64px margins when both sides exceed 1024px) and its
// per-pixel opacity comes from a reference overlay image. Given both, every
// watermarked channel value is solved for the original:
//
//	original = (watermarked - alpha*255) / (1 - alpha)
//
// Reference overlays for both sizes are embedded in the package; an
// Assets/bg_<size>.png file relative to the working directory is used as a
// fallback. The package works entirely in memory.
package watermark
