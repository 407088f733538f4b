// Package imgutil implements the prize image pipeline: the obscured
// (pixelated) rendering broadcast to subscribers and the achievements
// collage.
package imgutil

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

const (
	// blurSigma removes fine detail before pixelation so single-block
	// features cannot give the picture away.
	blurSigma = 3.5

	// pixelGrid is the intermediate resolution; each cell of the grid
	// becomes one block in the output.
	pixelGrid = 30
)

// Obscure reads the image at srcPath, produces a pixelated rendering of the
// same dimensions and writes it to dstPath, creating the destination
// directory if needed. Re-running overwrites the previous output.
func Obscure(srcPath, dstPath string) error {
	src, err := imaging.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open source image %q: %w", srcPath, err)
	}

	blurred := imaging.Blur(src, blurSigma)

	// Downscale to the block grid and back up with nearest-neighbor on
	// both legs. The round trip is what makes the result blocky instead
	// of smooth.
	small := image.NewRGBA(image.Rect(0, 0, pixelGrid, pixelGrid))
	xdraw.NearestNeighbor.Scale(small, small.Bounds(), blurred, blurred.Bounds(), xdraw.Src, nil)

	bounds := src.Bounds()
	pixelated := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.NearestNeighbor.Scale(pixelated, pixelated.Bounds(), small, small.Bounds(), xdraw.Src, nil)

	if err := os.MkdirAll(filepath.Dir(dstPath), os.ModePerm); err != nil {
		return fmt.Errorf("create hidden image dir: %w", err)
	}
	if err := imaging.Save(pixelated, dstPath); err != nil {
		return fmt.Errorf("save hidden image %q: %w", dstPath, err)
	}
	return nil
}
