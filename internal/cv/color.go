package cv

import "fmt"

// DefaultTolerance is the squared-distance bound used when a match does not set one
const DefaultTolerance = 76

// Color is a pixel sample in the capture device's native channel order (blue, green, red)
type Color struct {
	B uint8 `yaml:"b"`
	G uint8 `yaml:"g"`
	R uint8 `yaml:"r"`
}

// BGR builds a color from channels in native order
func BGR(b, g, r uint8) Color {
	return Color{B: b, G: g, R: r}
}

// SquaredDistance returns the sum of squared per-channel differences
func (c Color) SquaredDistance(other Color) int {
	db := int(c.B) - int(other.B)
	dg := int(c.G) - int(other.G)
	dr := int(c.R) - int(other.R)
	return db*db + dg*dg + dr*dr
}

// ColorsMatch reports whether observed is strictly within tolerance of expected.
// A tolerance <= 0 falls back to DefaultTolerance.
func ColorsMatch(observed, expected Color, tolerance int) bool {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return observed.SquaredDistance(expected) < tolerance
}

// Invert returns the channel-wise complement
func (c Color) Invert() Color {
	return Color{B: 255 - c.B, G: 255 - c.G, R: 255 - c.R}
}

func (c Color) String() string {
	return fmt.Sprintf("bgr(%d, %d, %d)", c.B, c.G, c.R)
}
