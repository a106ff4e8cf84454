package cv

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidDimensions is returned when a resolution has a non-positive side
var ErrInvalidDimensions = errors.New("invalid dimensions")

// Common capture resolutions
var (
	DimsLowRes  = Dims{Height: 480, Width: 768}
	DimsHighRes = Dims{Height: 720, Width: 1280}
)

// Dims is a frame resolution in pixels
type Dims struct {
	Height int `yaml:"height"`
	Width  int `yaml:"width"`
}

// Validate reports ErrInvalidDimensions for degenerate resolutions
func (d Dims) Validate() error {
	if d.Height <= 0 || d.Width <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, d.Width, d.Height)
	}
	return nil
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Point is a pixel coordinate expressed against a reference resolution.
// Y comes first to match row-major frame indexing.
type Point struct {
	Y int `yaml:"y"`
	X int `yaml:"x"`
}

// Normalize maps the point from the reference resolution onto actual.
// Results are rounded to the nearest pixel and never clamped, so a point
// on the far edge of a downscaled frame may land outside it.
func (p Point) Normalize(ref, actual Dims) (Point, error) {
	if err := ref.Validate(); err != nil {
		return Point{}, fmt.Errorf("reference: %w", err)
	}
	if err := actual.Validate(); err != nil {
		return Point{}, fmt.Errorf("actual: %w", err)
	}
	if ref == actual {
		return p, nil
	}

	return Point{
		Y: scale(p.Y, ref.Height, actual.Height),
		X: scale(p.X, ref.Width, actual.Width),
	}, nil
}

func scale(v, from, to int) int {
	return int(math.Round(float64(v) * float64(to) / float64(from)))
}

func (p Point) String() string {
	return fmt.Sprintf("(y=%d, x=%d)", p.Y, p.X)
}

// Region is an axis-aligned rectangle between two reference points
type Region struct {
	TopLeft     Point `yaml:"top_left"`
	BottomRight Point `yaml:"bottom_right"`
}

// NewRegion creates a region from its corners
func NewRegion(topLeft, bottomRight Point) Region {
	return Region{TopLeft: topLeft, BottomRight: bottomRight}
}

// Width returns the width of the region at reference resolution
func (r Region) Width() int {
	return r.BottomRight.X - r.TopLeft.X
}

// Height returns the height of the region at reference resolution
func (r Region) Height() int {
	return r.BottomRight.Y - r.TopLeft.Y
}

// Empty reports whether the region covers no pixels
func (r Region) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Normalize converts the region into an image rectangle on a frame of size actual
func (r Region) Normalize(ref, actual Dims) (image.Rectangle, error) {
	tl, err := r.TopLeft.Normalize(ref, actual)
	if err != nil {
		return image.Rectangle{}, err
	}
	br, err := r.BottomRight.Normalize(ref, actual)
	if err != nil {
		return image.Rectangle{}, err
	}
	return image.Rect(tl.X, tl.Y, br.X, br.Y), nil
}
