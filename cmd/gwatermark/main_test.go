package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in, format, want string
	}{
		{"image.png", "png", "image_unwatermarked.png"},
		{filepath.Join("dir", "photo.JPG"), "jpeg", filepath.Join("dir", "photo_unwatermarked.jpg")},
		{"anim.webp", "png", "anim_unwatermarked.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, defaultOutputPath(tt.in, tt.format))
	}
}
