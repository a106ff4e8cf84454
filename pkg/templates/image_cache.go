package templates

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
	"sync"

	"jordanella.com/switch-farm-go/internal/cv"
)

// CachedTemplate holds a template's reference image and the masks derived
// from it, one per frame and reference resolution seen
type CachedTemplate struct {
	cv.Template
	mu      sync.RWMutex
	image   *cv.Frame
	masks   map[maskKey]cv.Mask
	preload bool
}

type maskKey struct {
	frame, ref cv.Dims
}

// ImageCache loads reference images on demand and keeps their masks
type ImageCache struct {
	templates map[string]*CachedTemplate
	mu        sync.RWMutex
	stats     CacheStats
}

// CacheStats tracks cache performance
type CacheStats struct {
	Hits        int64 // Mask served from cache
	Misses      int64 // Mask had to be computed
	Loads       int64 // Images read from disk
	PreloadFail int64
}

// NewImageCache creates a new image cache
func NewImageCache() *ImageCache {
	return &ImageCache{
		templates: make(map[string]*CachedTemplate),
	}
}

// Register adds a template to the cache, loading its image now if preload is set
func (ic *ImageCache) Register(template cv.Template, preload bool) error {
	cached := &CachedTemplate{
		Template: template,
		masks:    make(map[maskKey]cv.Mask),
		preload:  preload,
	}

	ic.mu.Lock()
	ic.templates[template.Name] = cached
	ic.mu.Unlock()

	if preload {
		if _, err := ic.imageOf(cached); err != nil {
			ic.mu.Lock()
			ic.stats.PreloadFail++
			ic.mu.Unlock()
			return fmt.Errorf("failed to preload template %s: %w", template.Name, err)
		}
	}
	return nil
}

// Mask returns the template's mask for frames of size dims. The reference
// image is scaled to dims before the region is cut out, so it lines up with
// a frame of that size.
func (ic *ImageCache) Mask(name string, dims cv.Dims, ref cv.Dims) (cv.Mask, error) {
	ic.mu.RLock()
	cached, ok := ic.templates[name]
	ic.mu.RUnlock()
	if !ok {
		return cv.Mask{}, fmt.Errorf("template '%s' not found in cache", name)
	}

	key := maskKey{frame: dims, ref: ref}
	cached.mu.RLock()
	mask, ok := cached.masks[key]
	cached.mu.RUnlock()
	if ok {
		ic.count(func(s *CacheStats) { s.Hits++ })
		return mask, nil
	}

	img, err := ic.imageOf(cached)
	if err != nil {
		return cv.Mask{}, err
	}
	scaled, err := img.Resize(dims)
	if err != nil {
		return cv.Mask{}, fmt.Errorf("template %s: %w", name, err)
	}
	mask, err = cv.RegionMask(scaled, cached.Region, ref, cached.Mask)
	if err != nil {
		return cv.Mask{}, fmt.Errorf("template %s: %w", name, err)
	}

	cached.mu.Lock()
	cached.masks[key] = mask
	cached.mu.Unlock()
	ic.count(func(s *CacheStats) { s.Misses++ })
	return mask, nil
}

func (ic *ImageCache) imageOf(cached *CachedTemplate) (*cv.Frame, error) {
	cached.mu.RLock()
	img := cached.image
	cached.mu.RUnlock()
	if img != nil {
		return img, nil
	}

	cached.mu.Lock()
	defer cached.mu.Unlock()
	if cached.image != nil {
		return cached.image, nil
	}

	frame, err := loadImage(cached.Path)
	if err != nil {
		return nil, err
	}
	cached.image = frame
	ic.count(func(s *CacheStats) { s.Loads++ })
	return frame, nil
}

func (ic *ImageCache) count(fn func(*CacheStats)) {
	ic.mu.Lock()
	fn(&ic.stats)
	ic.mu.Unlock()
}

// Release forgets a template and its cached image
func (ic *ImageCache) Release(name string) {
	ic.mu.Lock()
	delete(ic.templates, name)
	ic.mu.Unlock()
}

// UnloadAll drops every cached image and mask; templates stay registered
func (ic *ImageCache) UnloadAll() {
	ic.mu.RLock()
	templates := make([]*CachedTemplate, 0, len(ic.templates))
	for _, t := range ic.templates {
		templates = append(templates, t)
	}
	ic.mu.RUnlock()

	for _, cached := range templates {
		cached.mu.Lock()
		cached.image = nil
		cached.masks = make(map[maskKey]cv.Mask)
		cached.mu.Unlock()
	}
}

// Stats returns cache statistics
func (ic *ImageCache) Stats() CacheStats {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return ic.stats
}

// IsLoaded returns true if the image is currently in memory
func (ct *CachedTemplate) IsLoaded() bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.image != nil
}

func loadImage(path string) (*cv.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", path, err)
	}
	return cv.FrameFromImage(img), nil
}
