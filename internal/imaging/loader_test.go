package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImage writes a solid-color PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	return writePNG(t, solidImage(width, height, c))
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "map.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// solidImage creates an in-memory image filled with one color.
func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// strokeOutline draws a rectangle outline of the given thickness.
func strokeOutline(img *image.RGBA, r image.Rectangle, thickness int, c color.Color) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if x < r.Min.X+thickness || x >= r.Max.X-thickness ||
				y < r.Min.Y+thickness || y >= r.Max.Y-thickness {
				img.Set(x, y, c)
			}
		}
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	if cache.Len() != 0 {
		t.Fatalf("new cache has %d images, want 0", cache.Len())
	}
	imgPath := createTestImage(t, 100, 80, color.RGBA{255, 0, 0, 255})

	first, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := first.Bounds(); b.Dx() != 100 || b.Dy() != 80 {
		t.Errorf("got %dx%d, want 100x80", b.Dx(), b.Dy())
	}

	// An unclean spelling of the same path hits the same entry.
	dir, name := filepath.Split(imgPath)
	again, err := cache.Load(dir + "./" + name)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if again != first || cache.Len() != 1 {
		t.Errorf("expected one shared entry, cache has %d", cache.Len())
	}
}

func TestImageCache_LoadErrors(t *testing.T) {
	garbage := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := map[string]string{
		"missing":   "/nonexistent/path/to/map.png",
		"directory": t.TempDir(),
		"garbage":   garbage,
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			cache := NewImageCache()
			if _, err := cache.Load(path); err == nil {
				t.Errorf("Load(%s) succeeded", path)
			}
			if cache.Len() != 0 {
				t.Error("failed load must not be cached")
			}
		})
	}
}

func TestImageCache_Evict(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 10, 10, color.White)

	before, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cache.Evict(imgPath)
	cache.Evict("/not/cached.png")
	if cache.Len() != 0 {
		t.Fatalf("cache has %d images after Evict", cache.Len())
	}

	after, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load after Evict failed: %v", err)
	}
	if before == after {
		t.Error("Load after Evict returned the evicted image")
	}
}

func TestImageCache_ConcurrentLoadSharesImage(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.White)

	const n = 16
	results := make([]image.Image, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			img, err := cache.Load(imgPath)
			if err != nil {
				t.Errorf("concurrent Load failed: %v", err)
				return
			}
			results[i] = img
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("goroutine %d got a different image value", i)
		}
	}
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 64, 32, color.White)

	info, err := LoadImageInfo(cache, imgPath)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	if info.Width != 64 || info.Height != 32 || info.Format != "png" {
		t.Errorf("got %+v, want 64x32 png", info)
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("file size: got %d", info.FileSizeBytes)
	}

	// Callers get a copy; mutating it does not touch the cache.
	info.Width = 0
	again, _ := cache.Info(imgPath)
	if again.Width != 64 {
		t.Error("cached info was mutated through the returned pointer")
	}
}
