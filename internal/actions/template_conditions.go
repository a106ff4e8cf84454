package actions

import (
	"fmt"

	"jordanella.com/switch-farm-go/internal/cv"
)

// Template checks a frame region against reference images. When the
// template belongs to a group, it matches only if it scores best among the
// group (e.g. "shiny" beats "normal" for the same sprite).
type Template struct {
	Name string `yaml:"name"`
}

// MatchTemplate builds a template condition
func MatchTemplate(name string) *Template {
	return &Template{Name: name}
}

func (c *Template) Validate(ab *ActionBuilder) error {
	if c.Name == "" {
		return fmt.Errorf("Template: name is required")
	}

	// Validate template exists in registry (if registry is available)
	if ab != nil && ab.templates != nil && !ab.templates.Has(c.Name) {
		return fmt.Errorf("Template: template '%s' not found in registry", c.Name)
	}
	return nil
}

func (c *Template) Evaluate(bot BotInterface, frame *cv.Frame) bool {
	templates := bot.Templates()
	if templates == nil || frame == nil {
		return false
	}
	best, ok, err := templates.BestMatch(c.Name, frame, bot.Reference())
	if err != nil {
		log.DebugWithContext("Template comparison failed", map[string]interface{}{"template": c.Name, "error": err.Error()})
		return false
	}
	return ok && best == c.Name
}
