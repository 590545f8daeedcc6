package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// ImageInfo describes a map image file that has been decoded into the cache.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the lower-case encoding name guessed from the file
	// extension ("png", "jpeg", "gif", "tiff", "bmp"), or "unknown".
	Format string `json:"format"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

type cacheEntry struct {
	img  image.Image
	info ImageInfo
}

// ImageCache holds decoded map images keyed by cleaned file path. It is safe
// for concurrent use. Entries live until Evict is called.
type ImageCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

func NewImageCache() *ImageCache {
	return &ImageCache{entries: make(map[string]*cacheEntry)}
}

// Load returns the decoded image for path, reading it from disk on first use.
// JPEGs are rotated upright according to their EXIF orientation.
func (c *ImageCache) Load(path string) (image.Image, error) {
	e, err := c.entry(path)
	if err != nil {
		return nil, err
	}
	return e.img, nil
}

// Info returns the metadata for path, loading the image if needed.
func (c *ImageCache) Info(path string) (*ImageInfo, error) {
	e, err := c.entry(path)
	if err != nil {
		return nil, err
	}
	info := e.info
	return &info, nil
}

func (c *ImageCache) entry(path string) (*cacheEntry, error) {
	key := filepath.Clean(path)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}

	e, err := decodeFile(key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have decoded the same file meanwhile; keep the
	// first so callers share one image value.
	if prev, ok := c.entries[key]; ok {
		return prev, nil
	}
	c.entries[key] = e
	return e, nil
}

func decodeFile(path string) (*cacheEntry, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("failed to open image: %s is a directory", path)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	}

	b := img.Bounds()
	return &cacheEntry{
		img: img,
		info: ImageInfo{
			Width:         b.Dx(),
			Height:        b.Dy(),
			Format:        format,
			FileSizeBytes: stat.Size(),
		},
	}, nil
}

// Evict drops path from the cache so the next Load re-reads the file.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, filepath.Clean(path))
	c.mu.Unlock()
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// LoadImageInfo loads path into cache and returns its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	return cache.Info(path)
}
