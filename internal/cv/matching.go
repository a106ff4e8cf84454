package cv

import (
	"image"

	"golang.org/x/image/draw"
)

// MaskSpec selects pixels whose every channel lies within Spread of Center
type MaskSpec struct {
	Center Color `yaml:"color"`
	Spread int   `yaml:"spread"`
}

// Mask is a binary image produced by MaskSpec.Apply
type Mask struct {
	Dims Dims
	Bits []bool
}

// Apply marks every pixel of f that falls inside the color range
func (m MaskSpec) Apply(f *Frame) Mask {
	bits := make([]bool, f.dims.Height*f.dims.Width)
	for i := range bits {
		o := i * channels
		bits[i] = within(f.data[o], m.Center.B, m.Spread) &&
			within(f.data[o+1], m.Center.G, m.Spread) &&
			within(f.data[o+2], m.Center.R, m.Spread)
	}
	return Mask{Dims: f.dims, Bits: bits}
}

func within(v, center uint8, spread int) bool {
	d := int(v) - int(center)
	if d < 0 {
		d = -d
	}
	return d <= spread
}

// Agreement returns the fraction of positions where both masks agree.
// Masks of different sizes never agree.
func (m Mask) Agreement(other Mask) float64 {
	if m.Dims != other.Dims || len(m.Bits) == 0 {
		return 0
	}
	same := 0
	for i, b := range m.Bits {
		if b == other.Bits[i] {
			same++
		}
	}
	return float64(same) / float64(len(m.Bits))
}

// Resize scales the frame to dims with nearest-neighbour sampling
func (f *Frame) Resize(dims Dims) (*Frame, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if dims == f.dims {
		return f, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, dims.Width, dims.Height))
	src := f.Image()
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return FrameFromImage(dst), nil
}

// RegionMask crops the normalized region out of f and thresholds it
func RegionMask(f *Frame, region Region, ref Dims, spec MaskSpec) (Mask, error) {
	rect, err := region.Normalize(ref, f.Dims())
	if err != nil {
		return Mask{}, err
	}
	crop, err := f.Crop(rect)
	if err != nil {
		return Mask{}, err
	}
	return spec.Apply(crop), nil
}
