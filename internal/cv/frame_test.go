package cv

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrameValidatesLength(t *testing.T) {
	_, err := NewFrame(Dims{Height: 2, Width: 2}, make([]byte, 11))
	assert.Error(t, err)

	_, err = NewFrame(Dims{Height: 0, Width: 2}, nil)
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	f, err := NewFrame(Dims{Height: 2, Width: 2}, make([]byte, 12))
	require.NoError(t, err)
	assert.Equal(t, Dims{Height: 2, Width: 2}, f.Dims())
}

func TestFrameAt(t *testing.T) {
	base := NewSolidFrame(Dims{Height: 4, Width: 6}, BGR(1, 2, 3))
	f := base.WithPixel(Point{Y: 2, X: 5}, BGR(9, 8, 7))

	c, ok := f.At(Point{Y: 2, X: 5})
	require.True(t, ok)
	assert.Equal(t, BGR(9, 8, 7), c)

	c, ok = f.At(Point{Y: 0, X: 0})
	require.True(t, ok)
	assert.Equal(t, BGR(1, 2, 3), c)

	// the source frame is untouched
	c, _ = base.At(Point{Y: 2, X: 5})
	assert.Equal(t, BGR(1, 2, 3), c)

	for _, p := range []Point{{Y: -1, X: 0}, {Y: 4, X: 0}, {Y: 0, X: 6}} {
		_, ok := f.At(p)
		assert.False(t, ok, "point %v should be out of bounds", p)
	}
}

func TestFrameCropAndInvert(t *testing.T) {
	f := NewSolidFrame(Dims{Height: 10, Width: 10}, BGR(0, 0, 0)).
		WithPixel(Point{Y: 3, X: 4}, BGR(255, 255, 255))

	crop, err := f.Crop(image.Rect(4, 3, 8, 5))
	require.NoError(t, err)
	assert.Equal(t, Dims{Height: 2, Width: 4}, crop.Dims())

	c, _ := crop.At(Point{Y: 0, X: 0})
	assert.Equal(t, BGR(255, 255, 255), c)

	inv := crop.Invert()
	c, _ = inv.At(Point{Y: 0, X: 0})
	assert.Equal(t, BGR(0, 0, 0), c)
	c, _ = inv.At(Point{Y: 1, X: 1})
	assert.Equal(t, BGR(255, 255, 255), c)

	_, err = f.Crop(image.Rect(20, 20, 30, 30))
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestFrameImageRoundTripKeepsChannelOrder(t *testing.T) {
	f := NewSolidFrame(Dims{Height: 1, Width: 1}, BGR(10, 20, 30))
	img := f.Image()
	px := img.RGBAAt(0, 0)
	assert.Equal(t, uint8(30), px.R)
	assert.Equal(t, uint8(10), px.B)

	back := FrameFromImage(img)
	c, _ := back.At(Point{})
	assert.Equal(t, BGR(10, 20, 30), c)
}

func TestMaskAgreementAndResize(t *testing.T) {
	spec := MaskSpec{Center: BGR(71, 51, 39), Spread: 20}
	a := NewSolidFrame(Dims{Height: 2, Width: 2}, BGR(71, 51, 39))
	b := a.WithPixel(Point{Y: 0, X: 0}, BGR(255, 255, 255))

	assert.Equal(t, 1.0, spec.Apply(a).Agreement(spec.Apply(a)))
	assert.Equal(t, 0.75, spec.Apply(a).Agreement(spec.Apply(b)))

	big, err := a.Resize(Dims{Height: 4, Width: 4})
	require.NoError(t, err)
	assert.Equal(t, Dims{Height: 4, Width: 4}, big.Dims())
	assert.Equal(t, 0.0, spec.Apply(a).Agreement(spec.Apply(big)))
}
