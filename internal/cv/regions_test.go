package cv

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointNormalize(t *testing.T) {
	tests := []struct {
		name   string
		point  Point
		ref    Dims
		actual Dims
		want   Point
	}{
		{
			name:   "identity at reference resolution",
			point:  Point{Y: 598, X: 1160},
			ref:    DimsHighRes,
			actual: DimsHighRes,
			want:   Point{Y: 598, X: 1160},
		},
		{
			name:   "high res to low res",
			point:  Point{Y: 720 / 2, X: 1280 / 2},
			ref:    DimsHighRes,
			actual: DimsLowRes,
			want:   Point{Y: 240, X: 384},
		},
		{
			name:   "rounds to nearest",
			point:  Point{Y: 1, X: 1},
			ref:    Dims{Height: 3, Width: 3},
			actual: Dims{Height: 5, Width: 4},
			want:   Point{Y: 2, X: 1},
		},
		{
			name:   "upscale",
			point:  Point{Y: 10, X: 20},
			ref:    Dims{Height: 100, Width: 100},
			actual: Dims{Height: 200, Width: 300},
			want:   Point{Y: 20, X: 60},
		},
		{
			name:   "no clamping past the edge",
			point:  Point{Y: 99, X: 99},
			ref:    Dims{Height: 100, Width: 100},
			actual: Dims{Height: 10, Width: 10},
			want:   Point{Y: 10, X: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.point.Normalize(tt.ref, tt.actual)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPointNormalizeInvalidDimensions(t *testing.T) {
	tests := []struct {
		name   string
		ref    Dims
		actual Dims
	}{
		{"zero height", DimsHighRes, Dims{Height: 0, Width: 1280}},
		{"zero width", DimsHighRes, Dims{Height: 720, Width: 0}},
		{"negative", DimsHighRes, Dims{Height: -1, Width: -1}},
		{"degenerate reference", Dims{}, DimsHighRes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Point{Y: 1, X: 1}.Normalize(tt.ref, tt.actual)
			assert.ErrorIs(t, err, ErrInvalidDimensions)
		})
	}
}

func TestRegionNormalize(t *testing.T) {
	r := NewRegion(Point{Y: 60, X: 1112}, Point{Y: 92, X: 1163})
	assert.Equal(t, 51, r.Width())
	assert.Equal(t, 32, r.Height())
	assert.False(t, r.Empty())

	rect, err := r.Normalize(DimsHighRes, DimsHighRes)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(1112, 60, 1163, 92), rect)

	half, err := r.Normalize(Dims{Height: 720, Width: 1280}, Dims{Height: 360, Width: 640})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(556, 30, 582, 46), half)
}
