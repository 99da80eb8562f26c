// Package derivative renders the JPEG thumbnail and small images that
// accompany an uploaded object.
package derivative

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/SummittDweller/cb-file-finder/internal/routing"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

var ErrUnsupportedSource = errors.New("unsupported source for derivative")

// Spec describes one derivative kind
type Spec struct {
	Kind      string
	Suffix    string
	MaxWidth  int
	MaxHeight int
	Quality   int
	Container routing.Container
}

var (
	Thumbnail = Spec{
		Kind:      "thumbnail",
		Suffix:    "_TN.jpg",
		MaxWidth:  400,
		MaxHeight: 400,
		Quality:   85,
		Container: routing.ContainerThumbs,
	}
	Small = Spec{
		Kind:      "small",
		Suffix:    "_SMALL.jpg",
		MaxWidth:  800,
		MaxHeight: 800,
		Quality:   85,
		Container: routing.ContainerSmalls,
	}
)

// Name returns the derivative filename for an object name: the object's
// extension is replaced by the spec suffix.
func (s Spec) Name(object string) string {
	base := filepath.Base(object)
	return strings.TrimSuffix(base, filepath.Ext(base)) + s.Suffix
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/tiff": true,
}

// Generator writes derivatives into TempDir. PDFs are rasterized with the
// ImageMagick binary named by Magick (default "magick").
type Generator struct {
	TempDir string
	Magick  string
}

// Generate renders spec from src and returns the path of the JPEG written.
// The caller removes the file when done with it.
func (g *Generator) Generate(ctx context.Context, spec Spec, src string) (string, error) {
	mtype, err := mimetype.DetectFile(src)
	if err != nil {
		return "", fmt.Errorf("failed to detect type of %s: %w", src, err)
	}

	dst := filepath.Join(g.tempDir(), spec.Name(src))

	switch {
	case imageTypes[mtype.String()]:
		err = scaleFile(src, dst, spec)
	case mtype.Is("application/pdf"):
		err = g.fromPDF(ctx, src, dst, spec)
	default:
		return "", fmt.Errorf("%w: %s is %s", ErrUnsupportedSource, filepath.Base(src), mtype.String())
	}
	if err != nil {
		return "", err
	}

	slog.Debug("Derivative generated", "kind", spec.Kind, "source", src, "path", dst)
	return dst, nil
}

func (g *Generator) tempDir() string {
	if g.TempDir != "" {
		return g.TempDir
	}
	return os.TempDir()
}

func (g *Generator) fromPDF(ctx context.Context, src, dst string, spec Spec) error {
	page, err := os.CreateTemp(g.tempDir(), "page-*.png")
	if err != nil {
		return fmt.Errorf("failed to create page file: %w", err)
	}
	page.Close()
	defer os.Remove(page.Name())

	magick := g.Magick
	if magick == "" {
		magick = "magick"
	}

	cmd := exec.CommandContext(ctx, magick, src+"[0]", page.Name())
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to render first page of %s: %w: %s", src, err, strings.TrimSpace(string(output)))
	}

	return scaleFile(page.Name(), dst, spec)
}

func scaleFile(src, dst string, spec Spec) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create derivative: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, Scale(img, spec.MaxWidth, spec.MaxHeight), &jpeg.Options{Quality: spec.Quality}); err != nil {
		return fmt.Errorf("failed to encode derivative: %w", err)
	}
	return out.Close()
}

// Scale fits img within maxW x maxH on a white background. Images already
// small enough keep their size.
func Scale(img image.Image, maxW, maxH int) image.Image {
	srcBounds := img.Bounds()
	w, h := fitDimensions(srcBounds.Dx(), srcBounds.Dy(), maxW, maxH)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, srcBounds, draw.Over, nil)
	return dst
}

func fitDimensions(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return 1, 1
	}
	if srcW <= maxW && srcH <= maxH {
		return srcW, srcH
	}

	ratio := float64(maxW) / float64(srcW)
	if r := float64(maxH) / float64(srcH); r < ratio {
		ratio = r
	}

	w := int(float64(srcW) * ratio)
	h := int(float64(srcH) * ratio)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
