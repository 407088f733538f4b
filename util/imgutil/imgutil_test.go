package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, path string, w, h int, fill func(x, y int) color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, fill(x, y))
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), os.ModePerm))
	require.NoError(t, imaging.Save(img, path))
}

func solid(c color.NRGBA) func(x, y int) color.NRGBA {
	return func(int, int) color.NRGBA { return c }
}

func gradient(x, y int) color.NRGBA {
	return color.NRGBA{R: uint8(x * 2), G: uint8(y * 2), B: uint8(x + y), A: 255}
}

func TestObscureKeepsDimensionsAndPixelates(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "img", "prize.png")
	dst := filepath.Join(dir, "hidden_img", "prize.png")

	const w, h = 120, 90
	writeTestImage(t, src, w, h, gradient)

	require.NoError(t, Obscure(src, dst))

	out, err := imaging.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, w, out.Bounds().Dx())
	assert.Equal(t, h, out.Bounds().Dy())

	// 120x90 over a 30x30 grid gives uniform 4x3 blocks; every pixel of a
	// block must equal its top-left corner
	blockW, blockH := w/30, h/30
	for by := 0; by < 30; by++ {
		for bx := 0; bx < 30; bx++ {
			corner := out.At(bx*blockW, by*blockH)
			for dy := 0; dy < blockH; dy++ {
				for dx := 0; dx < blockW; dx++ {
					require.Equal(t, corner, out.At(bx*blockW+dx, by*blockH+dy),
						"block (%d,%d) is not uniform", bx, by)
				}
			}
		}
	}
}

func TestObscureOverwritesPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prize.png")
	dst := filepath.Join(dir, "hidden", "prize.png")

	writeTestImage(t, src, 60, 60, solid(color.NRGBA{R: 255, A: 255}))
	require.NoError(t, Obscure(src, dst))
	first, err := os.ReadFile(dst)
	require.NoError(t, err)

	writeTestImage(t, src, 60, 60, solid(color.NRGBA{G: 255, A: 255}))
	require.NoError(t, Obscure(src, dst))
	second, err := os.ReadFile(dst)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestObscureMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Obscure(filepath.Join(dir, "nope.png"), filepath.Join(dir, "hidden", "nope.png"))
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "hidden", "nope.png"))
}

func TestBuildCollageLayout(t *testing.T) {
	dir := t.TempDir()

	colors := []color.NRGBA{
		{R: 255, A: 255},
		{G: 255, A: 255},
		{B: 255, A: 255},
		{R: 255, G: 255, A: 255},
		{R: 255, B: 255, A: 255},
	}
	var paths []string
	for i, c := range colors {
		p := filepath.Join(dir, string(rune('a'+i))+".png")
		writeTestImage(t, p, 20, 20, solid(c))
		paths = append(paths, p)
	}

	collage, err := BuildCollage(paths)
	require.NoError(t, err)

	// five 20x20 tiles: cols = floor(sqrt(5)) = 2, rows = 3
	assert.Equal(t, 40, collage.Bounds().Dx())
	assert.Equal(t, 60, collage.Bounds().Dy())

	at := func(col, row int) color.NRGBA {
		r, g, b, a := collage.At(col*20+10, row*20+10).RGBA()
		return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	}

	// row-major input order
	assert.Equal(t, colors[0], at(0, 0))
	assert.Equal(t, colors[1], at(1, 0))
	assert.Equal(t, colors[2], at(0, 1))
	assert.Equal(t, colors[3], at(1, 1))
	assert.Equal(t, colors[4], at(0, 2))

	// the sixth cell stays blank
	assert.Equal(t, color.NRGBA{A: 255}, at(1, 2))
}

func TestBuildCollageSkipsUnreadablePaths(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.png")
	writeTestImage(t, good, 20, 20, solid(color.NRGBA{R: 255, A: 255}))

	collage, err := BuildCollage([]string{filepath.Join(dir, "missing.png"), good})
	require.NoError(t, err)
	assert.Equal(t, 20, collage.Bounds().Dx())
	assert.Equal(t, 20, collage.Bounds().Dy())
}

func TestBuildCollageNoImages(t *testing.T) {
	dir := t.TempDir()
	_, err := BuildCollage([]string{filepath.Join(dir, "missing.png")})
	assert.ErrorIs(t, err, ErrNoImages)

	_, err = BuildCollage(nil)
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestBuildCollagePNG(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.png")
	writeTestImage(t, p, 20, 20, solid(color.NRGBA{B: 255, A: 255}))

	data, err := BuildCollagePNG([]string{p})
	require.NoError(t, err)

	decoded, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 20, decoded.Bounds().Dx())
	assert.Equal(t, 20, decoded.Bounds().Dy())
}
