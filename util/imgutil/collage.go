package imgutil

import (
	"bytes"
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"prizebot/logger"
)

// ErrNoImages is returned when none of the collage inputs could be loaded.
var ErrNoImages = errors.New("no images to compose")

// BuildCollage tiles the images at paths into a grid, row-major in input
// order. Paths that fail to load are skipped. The cell size is taken from
// the first loaded image; differently sized inputs are drawn uncropped at
// that cell and misalign the grid, so callers are expected to pass
// uniform assets.
func BuildCollage(paths []string) (image.Image, error) {
	var images []image.Image
	for _, p := range paths {
		img, err := imaging.Open(p)
		if err != nil {
			logger.Debugf("collage: skipping %q: %v", p, err)
			continue
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	tileW := images[0].Bounds().Dx()
	tileH := images[0].Bounds().Dy()

	n := len(images)
	cols := int(math.Floor(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}
	rows := (n + cols - 1) / cols

	dc := gg.NewContext(cols*tileW, rows*tileH)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	for i, img := range images {
		dc.DrawImage(img, (i%cols)*tileW, (i/cols)*tileH)
	}
	return dc.Image(), nil
}

// BuildCollagePNG is BuildCollage encoded as PNG bytes, ready to upload.
func BuildCollagePNG(paths []string) ([]byte, error) {
	img, err := BuildCollage(paths)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
