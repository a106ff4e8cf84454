package cv

// Template describes a reference image compared against a frame region
type Template struct {
	Name      string
	Path      string
	Group     string   // Templates in a group compete for the best match
	Region    Region   // Compared area, at reference resolution
	Mask      MaskSpec // Color band extracted before comparison
	Threshold float64  // Minimum agreement when matched on its own
}

// WithThreshold sets the matching threshold
func (t Template) WithThreshold(threshold float64) Template {
	t.Threshold = threshold
	return t
}

// InGroup assigns the template to a comparison group
func (t Template) InGroup(group string) Template {
	t.Group = group
	return t
}
