package templates

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/switch-farm-go/internal/actions"
	"jordanella.com/switch-farm-go/internal/cv"
)

var _ actions.TemplateMatcher = (*TemplateRegistry)(nil)

var (
	refDims   = cv.Dims{Height: 48, Width: 64}
	iconColor = cv.Color{B: 71, G: 51, R: 39}
)

const templatesYAML = `
templates:
  - name: shiny
    path: shiny.png
    group: shiny_icon
    region: {top_left: {y: 0, x: 0}, bottom_right: {y: 16, x: 16}}
    color: {b: 71, g: 51, r: 39}
    spread: 20
  - name: normal
    path: normal.png
    group: shiny_icon
    region: {top_left: {y: 0, x: 0}, bottom_right: {y: 16, x: 16}}
    color: {b: 71, g: 51, r: 39}
    spread: 20
  - name: logo
    path: normal.png
    region: {top_left: {y: 0, x: 0}, bottom_right: {y: 16, x: 16}}
    color: {b: 71, g: 51, r: 39}
    spread: 20
    preload: true
`

// writePNG writes a black image of dims with the top-left quarter painted c
func writePNG(t *testing.T, path string, dims cv.Dims, c *cv.Color) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, dims.Width, dims.Height))
	for y := 0; y < dims.Height; y++ {
		for x := 0; x < dims.Width; x++ {
			px := color.RGBA{A: 255}
			if c != nil && y < dims.Height/3 && x < dims.Width/4 {
				px = color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
			}
			img.Set(x, y, px)
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func newTestRegistry(t *testing.T) *TemplateRegistry {
	t.Helper()

	dir := t.TempDir()
	// Reference images are twice the frame size; they are scaled on use
	big := cv.Dims{Height: 96, Width: 128}
	writePNG(t, filepath.Join(dir, "shiny.png"), big, &iconColor)
	writePNG(t, filepath.Join(dir, "normal.png"), big, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "templates.yaml"), []byte(templatesYAML), 0o644))

	registry := NewTemplateRegistry("")
	require.NoError(t, registry.LoadFromFile(filepath.Join(dir, "templates.yaml")))
	return registry
}

// iconFrame returns a frame whose top-left 16x16 block is the icon color
func iconFrame() *cv.Frame {
	frame := cv.NewSolidFrame(refDims, cv.Color{})
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			frame = frame.WithPixel(cv.Point{Y: y, X: x}, iconColor)
		}
	}
	return frame
}

func TestLoadFromFile(t *testing.T) {
	registry := newTestRegistry(t)

	assert.Equal(t, []string{"logo", "normal", "shiny"}, registry.List())
	assert.True(t, registry.Has("shiny"))
	assert.False(t, registry.Has("missing"))

	shiny, ok := registry.Get("shiny")
	require.True(t, ok)
	assert.Zero(t, shiny.Threshold, "grouped templates only compete")
	assert.Equal(t, 20, shiny.Mask.Spread)

	logo, _ := registry.Get("logo")
	assert.Equal(t, DefaultThreshold, logo.Threshold)
	assert.Equal(t, int64(1), registry.CacheStats().Loads, "only the preloaded image is read")
}

func TestLoadFromFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "missing name", yaml: "templates:\n  - path: a.png\n", wantErr: "name cannot be empty"},
		{name: "missing path", yaml: "templates:\n  - name: a\n", wantErr: "path cannot be empty"},
		{name: "empty region", yaml: "templates:\n  - {name: a, path: a.png}\n", wantErr: "region is empty"},
		{
			name:    "threshold out of range",
			yaml:    "templates:\n  - {name: a, path: a.png, threshold: 2, region: {top_left: {y: 0, x: 0}, bottom_right: {y: 1, x: 1}}}\n",
			wantErr: "threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "templates.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			err := NewTemplateRegistry("").LoadFromFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBestMatch(t *testing.T) {
	registry := newTestRegistry(t)
	plain := cv.NewSolidFrame(refDims, cv.Color{})

	tests := []struct {
		name     string
		template string
		frame    *cv.Frame
		wantBest string
		wantOK   bool
	}{
		{name: "shiny icon", template: "shiny", frame: iconFrame(), wantBest: "shiny", wantOK: true},
		{name: "rival wins", template: "shiny", frame: plain, wantBest: "normal", wantOK: true},
		{name: "same group from either side", template: "normal", frame: iconFrame(), wantBest: "shiny", wantOK: true},
		{name: "standalone above threshold", template: "logo", frame: plain, wantBest: "logo", wantOK: true},
		{name: "standalone below threshold", template: "logo", frame: iconFrame(), wantBest: "logo", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best, ok, err := registry.BestMatch(tt.template, tt.frame, refDims)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBest, best)
			assert.Equal(t, tt.wantOK, ok)
		})
	}

	_, _, err := registry.BestMatch("missing", plain, refDims)
	assert.Error(t, err)
}

func TestScoreUsesMaskCache(t *testing.T) {
	registry := newTestRegistry(t)
	frame := iconFrame()

	score, err := registry.Score("shiny", frame, refDims)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	_, err = registry.Score("shiny", frame, refDims)
	require.NoError(t, err)

	stats := registry.CacheStats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestRemove(t *testing.T) {
	registry := newTestRegistry(t)

	assert.True(t, registry.Remove("logo"))
	assert.False(t, registry.Remove("logo"))
	assert.Equal(t, 2, registry.Count())
}
