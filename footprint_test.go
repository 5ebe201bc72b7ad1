package watermark

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveConfig(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		want          Config
	}{
		{"large square", 2000, 2000, Config{LogoSize: 96, MarginRight: 64, MarginBottom: 64}},
		{"small landscape", 800, 600, Config{LogoSize: 48, MarginRight: 32, MarginBottom: 32}},
		{"exactly 1024", 1024, 1024, Config{LogoSize: 48, MarginRight: 32, MarginBottom: 32}},
		{"just above", 1025, 1025, Config{LogoSize: 96, MarginRight: 64, MarginBottom: 64}},
		{"wide only", 4000, 1024, Config{LogoSize: 48, MarginRight: 32, MarginBottom: 32}},
		{"tall only", 1000, 3000, Config{LogoSize: 48, MarginRight: 32, MarginBottom: 32}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveConfig(tt.width, tt.height))
		})
	}
}

func TestResolveConfigDependsOnlyOnThresholds(t *testing.T) {
	sizes := []int{1, 17, 512, 1024, 1025, 1600, 4096}
	for _, w1 := range sizes {
		for _, h1 := range sizes {
			for _, w2 := range sizes {
				for _, h2 := range sizes {
					if (w1 > 1024) != (w2 > 1024) || (h1 > 1024) != (h2 > 1024) {
						continue
					}
					assert.Equal(t, ResolveConfig(w1, h1), ResolveConfig(w2, h2),
						"%dx%d vs %dx%d", w1, h1, w2, h2)
				}
			}
		}
	}
}

func TestResolvePosition(t *testing.T) {
	t.Run("small tier", func(t *testing.T) {
		pos := ResolvePosition(800, 600, ResolveConfig(800, 600))
		assert.Equal(t, Position{X: 800 - 32 - 48, Y: 600 - 32 - 48, Width: 48, Height: 48}, pos)
		assert.True(t, pos.Within(800, 600))
	})
	t.Run("large tier", func(t *testing.T) {
		pos := ResolvePosition(2000, 1500, ResolveConfig(2000, 1500))
		assert.Equal(t, Position{X: 2000 - 64 - 96, Y: 1500 - 64 - 96, Width: 96, Height: 96}, pos)
		assert.Equal(t, image.Rect(1840, 1340, 1936, 1436), pos.Rect())
	})
	t.Run("too small", func(t *testing.T) {
		pos := ResolvePosition(50, 50, ResolveConfig(50, 50))
		assert.Equal(t, -30, pos.X)
		assert.False(t, pos.Within(50, 50))
	})
	t.Run("exact fit", func(t *testing.T) {
		pos := ResolvePosition(80, 80, ResolveConfig(80, 80))
		assert.Equal(t, 0, pos.X)
		assert.Equal(t, 0, pos.Y)
		assert.True(t, pos.Within(80, 80))
	})
}

func TestWatermarkInfo(t *testing.T) {
	info := WatermarkInfo(1920, 1080)
	assert.Equal(t, 96, info.Size)
	assert.Equal(t, image.Rect(1760, 920, 1856, 1016), info.Position)
}
