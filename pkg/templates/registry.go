package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"jordanella.com/switch-farm-go/internal/cv"
	"jordanella.com/switch-farm-go/internal/logging"
)

// DefaultThreshold is the minimum agreement of a template matched on its own
const DefaultThreshold = 0.8

var log = logging.NewLogger("Templates")

// TemplateRegistry manages a collection of reference images loaded from YAML files
type TemplateRegistry struct {
	mu         sync.RWMutex
	templates  map[string]cv.Template
	basePath   string // Base path for template image files
	imageCache *ImageCache
}

// TemplateDefinition represents a template in the YAML file
type TemplateDefinition struct {
	Name      string    `yaml:"name"`
	Path      string    `yaml:"path"`
	Group     string    `yaml:"group,omitempty"`
	Region    cv.Region `yaml:"region"`
	Color     cv.Color  `yaml:"color"`
	Spread    int       `yaml:"spread"`
	Threshold float64   `yaml:"threshold,omitempty"`
	Preload   bool      `yaml:"preload,omitempty"`
}

// TemplateFile represents the structure of a template YAML file:
//
//	templates:
//	  - name: shiny
//	    path: shiny_check/shiny.png
//	    group: shiny_icon
//	    region: {top_left: {y: 60, x: 1112}, bottom_right: {y: 92, x: 1163}}
//	    color: {b: 71, g: 51, r: 39}
//	    spread: 20
type TemplateFile struct {
	Templates []TemplateDefinition `yaml:"templates"`
}

// NewTemplateRegistry creates a new template registry.
// basePath is the directory image paths are relative to.
func NewTemplateRegistry(basePath string) *TemplateRegistry {
	return &TemplateRegistry{
		templates:  make(map[string]cv.Template),
		basePath:   basePath,
		imageCache: NewImageCache(),
	}
}

// LoadFromFile loads templates from a YAML file. Relative image paths are
// resolved against the registry base path, or the file's directory when the
// base path is empty.
func (tr *TemplateRegistry) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read template file %s: %w", filePath, err)
	}

	var templateFile TemplateFile
	if err := yaml.Unmarshal(data, &templateFile); err != nil {
		return fmt.Errorf("failed to unmarshal template YAML: %w", err)
	}

	base := tr.basePath
	if base == "" {
		base = filepath.Dir(filePath)
	}

	templates := make([]cv.Template, 0, len(templateFile.Templates))
	for i, def := range templateFile.Templates {
		if def.Name == "" {
			return fmt.Errorf("template %d: name cannot be empty", i+1)
		}
		if def.Path == "" {
			return fmt.Errorf("template %d (%s): path cannot be empty", i+1, def.Name)
		}
		if def.Region.Empty() {
			return fmt.Errorf("template %d (%s): region is empty", i+1, def.Name)
		}
		if def.Threshold < 0 || def.Threshold > 1 {
			return fmt.Errorf("template %d (%s): threshold must be between 0 and 1", i+1, def.Name)
		}

		path := def.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}

		template := cv.Template{
			Name:      def.Name,
			Path:      path,
			Group:     def.Group,
			Region:    def.Region,
			Mask:      cv.MaskSpec{Center: def.Color, Spread: def.Spread},
			Threshold: def.Threshold,
		}
		// A grouped template only has to beat its rivals
		if template.Threshold == 0 && template.Group == "" {
			template.Threshold = DefaultThreshold
		}
		templates = append(templates, template)

		if err := tr.imageCache.Register(template, def.Preload); err != nil {
			// The image can still be loaded on demand
			log.WarnWithContext("Template preload failed", map[string]interface{}{
				"template": def.Name,
				"error":    err.Error(),
			})
		}
	}

	tr.mu.Lock()
	for _, template := range templates {
		tr.templates[template.Name] = template
	}
	tr.mu.Unlock()

	log.InfoWithContext("Templates loaded", map[string]interface{}{
		"file":  filePath,
		"count": len(templates),
	})
	return nil
}

// Register adds a template to the registry programmatically
func (tr *TemplateRegistry) Register(template cv.Template) error {
	if template.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	if err := tr.imageCache.Register(template, false); err != nil {
		return err
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.templates[template.Name] = template
	return nil
}

// Get retrieves a template by name
func (tr *TemplateRegistry) Get(name string) (cv.Template, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	template, ok := tr.templates[name]
	return template, ok
}

// Has checks if a template exists in the registry
func (tr *TemplateRegistry) Has(name string) bool {
	_, ok := tr.Get(name)
	return ok
}

// List returns all template names in sorted order
func (tr *TemplateRegistry) List() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of templates in the registry
func (tr *TemplateRegistry) Count() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return len(tr.templates)
}

// Remove removes a template from the registry
func (tr *TemplateRegistry) Remove(name string) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if _, ok := tr.templates[name]; !ok {
		return false
	}
	delete(tr.templates, name)
	tr.imageCache.Release(name)
	return true
}

// rivals returns the templates competing with name: its group, or itself
func (tr *TemplateRegistry) rivals(name string) ([]cv.Template, error) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	template, ok := tr.templates[name]
	if !ok {
		return nil, fmt.Errorf("template '%s' not found in registry", name)
	}
	if template.Group == "" {
		return []cv.Template{template}, nil
	}

	var group []cv.Template
	for _, t := range tr.templates {
		if t.Group == template.Group {
			group = append(group, t)
		}
	}
	sort.Slice(group, func(i, j int) bool { return group[i].Name < group[j].Name })
	return group, nil
}

// Score returns the fraction of masked pixels on which frame agrees with the
// named template
func (tr *TemplateRegistry) Score(name string, frame *cv.Frame, ref cv.Dims) (float64, error) {
	template, ok := tr.Get(name)
	if !ok {
		return 0, fmt.Errorf("template '%s' not found in registry", name)
	}
	observed, err := cv.RegionMask(frame, template.Region, ref, template.Mask)
	if err != nil {
		return 0, err
	}
	expected, err := tr.imageCache.Mask(name, frame.Dims(), ref)
	if err != nil {
		return 0, err
	}
	return observed.Agreement(expected), nil
}

// BestMatch scores frame against name and its group rivals and returns the
// best scoring template. ok is false when the winner misses its threshold.
// Ties go to the first name in sorted order.
func (tr *TemplateRegistry) BestMatch(name string, frame *cv.Frame, ref cv.Dims) (string, bool, error) {
	rivals, err := tr.rivals(name)
	if err != nil {
		return "", false, err
	}

	best := ""
	bestScore := -1.0
	var threshold float64
	for _, t := range rivals {
		score, err := tr.Score(t.Name, frame, ref)
		if err != nil {
			return "", false, err
		}
		if score > bestScore {
			best, bestScore, threshold = t.Name, score, t.Threshold
		}
	}

	log.DebugWithContext("Template comparison", map[string]interface{}{
		"template": name,
		"best":     best,
		"score":    bestScore,
	})
	return best, bestScore >= threshold, nil
}

// ImageCache returns the image cache
func (tr *TemplateRegistry) ImageCache() *ImageCache {
	return tr.imageCache
}

// CacheStats returns image cache statistics
func (tr *TemplateRegistry) CacheStats() CacheStats {
	return tr.imageCache.Stats()
}
