// Command genfavicon renders the Sprout seedling icon as PNG favicons: a
// white two-leaf sprout on a green rounded square.
// Run via go generate in web/templates, or: go run ./tools/genfavicon
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/vector"
)

const (
	viewboxSz = 32.0
	cornerR   = 6.0
)

var bgColor = color.NRGBA{22, 163, 74, 255} // #16A34A

// targets lists the generated files and their pixel sizes.
var targets = []struct {
	name string
	size int
}{
	{"favicon-16x16.png", 16},
	{"favicon-32x32.png", 32},
	{"apple-touch-icon.png", 180},
	{"android-chrome-192x192.png", 192},
}

func main() {
	out := flag.String("out", filepath.Join("web", "static", "img"), "output directory")
	flag.Parse()

	if err := generate(*out); err != nil {
		fmt.Fprintf(os.Stderr, "genfavicon: %v\n", err)
		os.Exit(1)
	}
}

func generate(outDir string) error {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	for _, t := range targets {
		p := filepath.Join(outDir, t.name)
		if err := writePNG(p, renderIcon(t.size)); err != nil {
			return err
		}
		fmt.Printf("generated %s (%dx%d)\n", p, t.size, t.size)
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // G304: path built from the -out flag
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close() //nolint:errcheck,gosec
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func renderIcon(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	s := float64(size) / viewboxSz

	// Rounded square background with a half-pixel antialiased edge.
	half := float64(size) / 2.0
	cr := cornerR * s
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := roundedBoxSDF(float64(x)+0.5-half, float64(y)+0.5-half, half, half, cr)
			if d <= -0.5 {
				img.SetNRGBA(x, y, bgColor)
			} else if d < 0.5 {
				blend(img, x, y, bgColor, 0.5-d)
			}
		}
	}

	rasterizeSprout(img, size)
	return img
}

// rasterizeSprout draws the stem and both leaves in white. Coordinates are
// in the 32-unit viewbox.
func rasterizeSprout(img *image.NRGBA, size int) {
	s := float32(size) / viewboxSz
	pt := func(x, y float32) (float32, float32) { return x * s, y * s }

	var r vector.Rasterizer
	r.Reset(size, size)

	// Stem.
	r.MoveTo(pt(15, 14))
	r.LineTo(pt(17, 14))
	r.LineTo(pt(17, 26))
	r.LineTo(pt(15, 26))
	r.ClosePath()

	// Left leaf.
	r.MoveTo(pt(16, 17))
	qx, qy := pt(6, 17)
	ex, ey := pt(6, 9)
	r.QuadTo(qx, qy, ex, ey)
	qx, qy = pt(15, 9)
	ex, ey = pt(16, 17)
	r.QuadTo(qx, qy, ex, ey)
	r.ClosePath()

	// Right leaf, larger and higher.
	r.MoveTo(pt(16, 15))
	qx, qy = pt(26, 14)
	ex, ey = pt(26, 5)
	r.QuadTo(qx, qy, ex, ey)
	qx, qy = pt(17, 6)
	ex, ey = pt(16, 15)
	r.QuadTo(qx, qy, ex, ey)
	r.ClosePath()

	r.Draw(img, img.Bounds(), image.White, image.Point{})
}

// roundedBoxSDF returns the signed distance from (px, py) to a rounded rect
// centered at the origin. Negative is inside.
func roundedBoxSDF(px, py, bx, by, r float64) float64 {
	qx := math.Abs(px) - bx + r
	qy := math.Abs(py) - by + r
	return math.Hypot(math.Max(qx, 0), math.Max(qy, 0)) + math.Min(math.Max(qx, qy), 0) - r
}

// blend alpha-composites c at alpha over the existing pixel.
func blend(img *image.NRGBA, x, y int, c color.NRGBA, alpha float64) {
	if alpha <= 0 {
		return
	}
	alpha = math.Min(alpha, 1)

	dst := img.NRGBAAt(x, y)
	sa := float64(c.A) / 255.0 * alpha
	da := float64(dst.A) / 255.0
	oa := sa + da*(1-sa)
	if oa == 0 {
		return
	}
	mix := func(sc, dc uint8) uint8 {
		return uint8(math.Round((float64(sc)*sa + float64(dc)*da*(1-sa)) / oa))
	}
	img.SetNRGBA(x, y, color.NRGBA{
		R: mix(c.R, dst.R),
		G: mix(c.G, dst.G),
		B: mix(c.B, dst.B),
		A: uint8(math.Round(oa * 255)),
	})
}
