package images

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// OptimizedPrefix is the storage prefix holding generated variants.
const OptimizedPrefix = "optimized/"

// Result is an encoded variant.
type Result struct {
	Data   []byte
	Width  int
	Height int
}

// Decode reads jpeg, png, gif or webp data and applies the EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Optimize decodes r and encodes it as JPEG at most p.Width wide.
func Optimize(r io.Reader, p Preset) (Result, error) {
	img, err := Decode(r)
	if err != nil {
		return Result{}, err
	}
	return Encode(img, p)
}

// Encode resizes an already decoded image. Images narrower than the preset
// keep their size.
func Encode(img image.Image, p Preset) (Result, error) {
	if img.Bounds().Dx() > p.Width {
		img = imaging.Resize(img, p.Width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
		return Result{}, fmt.Errorf("encode %s: %w", p.Name, err)
	}
	b := img.Bounds()
	return Result{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// VariantKey maps an original key to its optimized variant:
// venues/vaux/hall.png + large -> optimized/venues/vaux/hall-png-large.jpg
// The source extension stays in the name so hall.png and hall.jpg keep
// separate variants.
func VariantKey(originalKey string, p Preset) string {
	dir, file := path.Split(originalKey)
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)
	if ext != "" {
		base += "-" + ext[1:]
	}
	return OptimizedPrefix + dir + base + "-" + p.Name + ".jpg"
}

// IsOriginal reports whether key is a source image eligible for variants.
func IsOriginal(key string) bool {
	if strings.HasPrefix(key, OptimizedPrefix) {
		return false
	}
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		return true
	}
	return false
}
