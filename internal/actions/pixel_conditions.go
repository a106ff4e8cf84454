package actions

import (
	"fmt"

	"jordanella.com/switch-farm-go/internal/cv"
)

// Pixel checks the color of one pixel. Point is given at the table's
// reference resolution and normalized to the frame.
type Pixel struct {
	Point     cv.Point `yaml:"point"`
	Color     cv.Color `yaml:"color"`
	Tolerance int      `yaml:"tolerance,omitempty"` // Squared distance; 0 uses the bot's tolerance
}

// MatchPixel builds a pixel condition with the default tolerance
func MatchPixel(point cv.Point, color cv.Color) *Pixel {
	return &Pixel{Point: point, Color: color}
}

// WithTolerance overrides the color tolerance
func (c *Pixel) WithTolerance(tolerance int) *Pixel {
	c.Tolerance = tolerance
	return c
}

func (c *Pixel) Validate(ab *ActionBuilder) error {
	if c.Point.X < 0 || c.Point.Y < 0 {
		return fmt.Errorf("Pixel: point %s must be non-negative", c.Point)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("Pixel: tolerance (%d) must not be negative", c.Tolerance)
	}
	return nil
}

func (c *Pixel) Evaluate(bot BotInterface, frame *cv.Frame) bool {
	if frame == nil {
		return false
	}
	p, err := c.Point.Normalize(bot.Reference(), frame.Dims())
	if err != nil {
		return false
	}
	observed, ok := frame.At(p)
	if !ok {
		return false
	}
	tolerance := c.Tolerance
	if tolerance <= 0 {
		tolerance = bot.Tolerance()
	}
	return cv.ColorsMatch(observed, c.Color, tolerance)
}
