package actions

import (
	"fmt"

	"jordanella.com/switch-farm-go/internal/cv"
	"jordanella.com/switch-farm-go/internal/ocr"
)

// Text runs OCR over a rectangle of the frame and looks for Text in the
// result. Invert helps with light text on dark dialog boxes.
type Text struct {
	Text        string   `yaml:"text"`
	TopLeft     cv.Point `yaml:"top_left"`
	BottomRight cv.Point `yaml:"bottom_right"`
	Invert      bool     `yaml:"invert,omitempty"`
	Exact       bool     `yaml:"exact,omitempty"`
}

// MatchText builds a text condition over the rectangle tl..br
func MatchText(text string, tl, br cv.Point, invert bool) *Text {
	return &Text{Text: text, TopLeft: tl, BottomRight: br, Invert: invert}
}

func (c *Text) Validate(ab *ActionBuilder) error {
	if ocr.Normalize(c.Text) == "" {
		return fmt.Errorf("Text: text is required")
	}
	if c.BottomRight.X <= c.TopLeft.X || c.BottomRight.Y <= c.TopLeft.Y {
		return fmt.Errorf("Text: rectangle %s..%s is empty", c.TopLeft, c.BottomRight)
	}
	return nil
}

func (c *Text) Evaluate(bot BotInterface, frame *cv.Frame) bool {
	if frame == nil {
		return false
	}
	rect, err := cv.NewRegion(c.TopLeft, c.BottomRight).Normalize(bot.Reference(), frame.Dims())
	if err != nil {
		return false
	}
	crop, err := frame.Crop(rect)
	if err != nil {
		return false
	}
	if c.Invert {
		crop = crop.Invert()
	}

	recognizer := bot.OCR()
	if recognizer == nil {
		return false
	}
	text, err := recognizer.Recognize(crop.Image())
	if err != nil {
		log.DebugWithContext("OCR failed", map[string]interface{}{"expected": c.Text, "error": err.Error()})
		return false
	}
	return ocr.Matches(text, c.Text, c.Exact)
}
