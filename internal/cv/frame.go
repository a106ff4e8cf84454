package cv

import (
	"fmt"
	"image"
	"image/color"
)

const channels = 3

// Frame is an immutable snapshot of one video frame.
// Samples are stored row-major in blue, green, red order.
type Frame struct {
	dims Dims
	data []byte
}

// NewFrame wraps raw BGR bytes. The slice is owned by the frame afterwards.
func NewFrame(dims Dims, data []byte) (*Frame, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if want := dims.Height * dims.Width * channels; len(data) != want {
		return nil, fmt.Errorf("frame data has %d bytes, want %d for %s", len(data), want, dims)
	}
	return &Frame{dims: dims, data: data}, nil
}

// NewSolidFrame creates a frame filled with a single color
func NewSolidFrame(dims Dims, c Color) *Frame {
	data := make([]byte, dims.Height*dims.Width*channels)
	for i := 0; i < len(data); i += channels {
		data[i], data[i+1], data[i+2] = c.B, c.G, c.R
	}
	return &Frame{dims: dims, data: data}
}

// FrameFromImage converts any image into a frame
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	dims := Dims{Height: b.Dy(), Width: b.Dx()}
	data := make([]byte, dims.Height*dims.Width*channels)

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			data[i], data[i+1], data[i+2] = uint8(bl>>8), uint8(g>>8), uint8(r>>8)
			i += channels
		}
	}
	return &Frame{dims: dims, data: data}
}

// Dims returns the frame resolution
func (f *Frame) Dims() Dims {
	return f.dims
}

// Data exposes the underlying BGR bytes. Callers must not modify them.
func (f *Frame) Data() []byte {
	return f.data
}

func (f *Frame) offset(y, x int) int {
	return (y*f.dims.Width + x) * channels
}

func (f *Frame) inBounds(y, x int) bool {
	return y >= 0 && x >= 0 && y < f.dims.Height && x < f.dims.Width
}

// At returns the color at an already-normalized point.
// ok is false when the point lies outside the frame.
func (f *Frame) At(p Point) (c Color, ok bool) {
	if !f.inBounds(p.Y, p.X) {
		return Color{}, false
	}
	i := f.offset(p.Y, p.X)
	return Color{B: f.data[i], G: f.data[i+1], R: f.data[i+2]}, true
}

// WithPixel returns a copy of the frame with one pixel replaced
func (f *Frame) WithPixel(p Point, c Color) *Frame {
	data := make([]byte, len(f.data))
	copy(data, f.data)
	out := &Frame{dims: f.dims, data: data}
	if out.inBounds(p.Y, p.X) {
		i := out.offset(p.Y, p.X)
		data[i], data[i+1], data[i+2] = c.B, c.G, c.R
	}
	return out
}

// Crop returns a new frame holding the part of rect that overlaps this frame
func (f *Frame) Crop(rect image.Rectangle) (*Frame, error) {
	rect = rect.Canon().Intersect(image.Rect(0, 0, f.dims.Width, f.dims.Height))
	if rect.Empty() {
		return nil, fmt.Errorf("crop %v: %w", rect, ErrInvalidDimensions)
	}

	dims := Dims{Height: rect.Dy(), Width: rect.Dx()}
	data := make([]byte, 0, dims.Height*dims.Width*channels)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		start := f.offset(y, rect.Min.X)
		data = append(data, f.data[start:start+dims.Width*channels]...)
	}
	return &Frame{dims: dims, data: data}, nil
}

// Invert returns the channel-wise complement of the frame
func (f *Frame) Invert() *Frame {
	data := make([]byte, len(f.data))
	for i, v := range f.data {
		data[i] = 255 - v
	}
	return &Frame{dims: f.dims, data: data}
}

// Image converts the frame to RGBA for encoders and displays
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.dims.Width, f.dims.Height))
	for y := 0; y < f.dims.Height; y++ {
		for x := 0; x < f.dims.Width; x++ {
			i := f.offset(y, x)
			img.SetRGBA(x, y, color.RGBA{R: f.data[i+2], G: f.data[i+1], B: f.data[i], A: 255})
		}
	}
	return img
}
