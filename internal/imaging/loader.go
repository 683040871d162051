package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder

	"github.com/ironsheep/ballot-interpreter/internal/ballot"
)

type entry struct {
	img    image.Image
	format string
	size   int64
}

// Cache holds decoded images keyed by Source.Key. It is safe for
// concurrent use. Entries stay until evicted or cleared.
type Cache struct {
	mu     sync.RWMutex
	images map[string]entry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{images: make(map[string]entry)}
}

func (c *Cache) load(src Source) (entry, error) {
	key := src.Key()
	c.mu.RLock()
	e, ok := c.images[key]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}

	r, size, err := src.open()
	if err != nil {
		return entry{}, err
	}
	defer r.Close()

	img, format, err := image.Decode(r)
	if err != nil {
		return entry{}, fmt.Errorf("failed to decode image %s: %w", src, err)
	}
	e = entry{img: img, format: format, size: size}

	c.mu.Lock()
	c.images[key] = e
	c.mu.Unlock()
	return e, nil
}

// Load returns the decoded image of src.
func (c *Cache) Load(src Source) (image.Image, error) {
	e, err := c.load(src)
	if err != nil {
		return nil, err
	}
	return e.img, nil
}

// LoadGray returns src converted to 8-bit grayscale.
func (c *Cache) LoadGray(src Source) (*image.Gray, error) {
	img, err := c.Load(src)
	if err != nil {
		return nil, err
	}
	return ballot.ToGray(img), nil
}

// Len is the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes every image.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]entry)
	c.mu.Unlock()
}

// Evict removes one source. Evicting an uncached source does nothing.
func (c *Cache) Evict(src Source) {
	c.mu.Lock()
	delete(c.images, src.Key())
	c.mu.Unlock()
}

// ImageInfo describes a decoded source.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the decoder that read the data: png, jpeg, gif, tiff or bmp.
	Format string `json:"format"`

	// ColorDepth is "8-bit" or "16-bit" per channel.
	ColorDepth string `json:"color_depth"`
	Grayscale  bool   `json:"grayscale"`
	HasAlpha   bool   `json:"has_alpha"`
	SizeBytes  int64  `json:"size_bytes"`
}

// Info decodes src, through the cache, and describes it.
func (c *Cache) Info(src Source) (*ImageInfo, error) {
	e, err := c.load(src)
	if err != nil {
		return nil, err
	}
	info := &ImageInfo{
		Width:      e.img.Bounds().Dx(),
		Height:     e.img.Bounds().Dy(),
		Format:     e.format,
		ColorDepth: "8-bit",
		SizeBytes:  e.size,
	}
	switch e.img.(type) {
	case *image.RGBA, *image.NRGBA:
		info.HasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		info.HasAlpha = true
		info.ColorDepth = "16-bit"
	case *image.Gray:
		info.Grayscale = true
	case *image.Gray16:
		info.Grayscale = true
		info.ColorDepth = "16-bit"
	}
	return info, nil
}
