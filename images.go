package blogcontent

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/eringen/blogcontent/post"
)

const (
	maxCoverWidth = 1200
	jpegQuality   = 80
	ogSubdir      = "og"
	defaultCard   = "default.png"

	// The card is drawn small with the 7x13 bitmap face and scaled up 4x
	// to 1200x632.
	cardW, cardH = 300, 158
	cardScale    = 4
)

func (a *App) ogDir() string {
	return filepath.Join(a.Config.CacheDir, ogSubdir)
}

// processImage decodes an image from src, shrinks it to maxCoverWidth if it
// is wider and encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if w, h := bounds.Dx(), bounds.Dy(); w > maxCoverWidth {
		dst := image.NewRGBA(image.Rect(0, 0, maxCoverWidth, h*maxCoverWidth/w))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// isRemote reports whether an image reference is an absolute URL that is
// used as-is.
func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// prepareCovers writes a resized cover for every post whose image points at
// a file inside the content directory. Problems are returned as warnings.
func (a *App) prepareCovers(posts []post.Post) []string {
	var warnings []string
	dir := a.ogDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return []string{fmt.Sprintf("create og dir: %v", err)}
	}
	for _, p := range posts {
		if p.Image == "" || isRemote(p.Image) {
			continue
		}
		rel := filepath.FromSlash(strings.TrimPrefix(p.Image, "/"))
		if !filepath.IsLocal(rel) {
			warnings = append(warnings, fmt.Sprintf("%s: image %q escapes the content directory", p.ID, p.Image))
			continue
		}
		if err := writeCover(filepath.Join(a.Config.ContentDir, rel), filepath.Join(dir, p.Slug+".jpg")); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: image %q: %v", p.ID, p.Image, err))
		}
	}
	return warnings
}

func writeCover(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := processImage(f)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// renderCard draws the site name centred on a dark card.
func renderCard(name string) ([]byte, error) {
	small := image.NewRGBA(image.Rect(0, 0, cardW, cardH))
	draw.Draw(small, small.Bounds(), image.NewUniform(color.RGBA{0x1c, 0x19, 0x17, 0xff}), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	name = cardLabel(name, cardW/face.Advance-2)
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.RGBA{0xfa, 0xfa, 0xf9, 0xff}),
		Face: face,
	}
	x := (cardW - d.MeasureString(name).Round()) / 2
	d.Dot = fixed.P(x, cardH/2+face.Ascent/2)
	d.DrawString(name)

	card := image.NewRGBA(image.Rect(0, 0, cardW*cardScale, cardH*cardScale))
	draw.NearestNeighbor.Scale(card, card.Bounds(), small, small.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, card); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// cardLabel shortens name to at most limit characters, marking the cut
// with a trailing "~".
func cardLabel(name string, limit int) string {
	r := []rune(name)
	if len(r) <= limit {
		return name
	}
	return string(r[:limit-1]) + "~"
}

// ensureDefaultCard (re)writes the default og:image for the configured site
// name.
func (a *App) ensureDefaultCard() error {
	if err := os.MkdirAll(a.ogDir(), 0o755); err != nil {
		return err
	}
	data, err := renderCard(a.Config.Name)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(a.ogDir(), defaultCard), data, 0o644)
}

// coverURL returns the absolute og:image URL for p: its remote image, its
// generated cover, or the default card.
func (a *App) coverURL(p post.Post) string {
	if isRemote(p.Image) {
		return p.Image
	}
	if p.Image != "" {
		if _, err := os.Stat(filepath.Join(a.ogDir(), p.Slug+".jpg")); err == nil {
			return AbsURL(a.Config.URL, "og/"+p.Slug+".jpg")
		}
	}
	return AbsURL(a.Config.URL, "og/"+defaultCard)
}

func (a *App) handleOGImage(c echo.Context) error {
	name := filepath.Base(c.Param("file"))
	path := filepath.Join(a.ogDir(), name)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) || name == "." {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.File(path)
}
