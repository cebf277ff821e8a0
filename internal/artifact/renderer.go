// Package artifact renders the personalized ticket poster for confirmed
// registrations. Rendering is deterministic: identical inputs produce
// byte-identical PNGs, so tests compare hashes and re-renders are harmless.
package artifact

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"

	_ "image/jpeg" // uploaded photos may be JPEG

	qrcode "github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	canvasW = 960
	canvasH = 1440

	portraitCX = canvasW / 2
	portraitCY = 430
	portraitR  = 240

	qrSize = 220
)

// TicketSpec is everything the renderer needs. Photo is the raw uploaded
// image (PNG or JPEG) and may be nil.
type TicketSpec struct {
	RegistrationID string
	Name           string
	Category       string
	ContestName    string
	Photo          []byte
}

// Renderer composites tickets onto a fixed template.
type Renderer struct {
	template image.Image
}

// NewRenderer loads the template image. An empty path (or unreadable file)
// selects the built-in flat background so rendering never depends on disk
// state at request time.
func NewRenderer(templatePath string) (*Renderer, error) {
	if templatePath == "" {
		return &Renderer{template: defaultTemplate()}, nil
	}
	f, err := os.Open(templatePath)
	if err != nil {
		return nil, fmt.Errorf("open ticket template: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode ticket template: %w", err)
	}
	return &Renderer{template: img}, nil
}

// Render produces the ticket PNG. The portrait region carries the circularly
// clipped photo, or the monogram placeholder when the photo is absent or
// undecodable.
func (r *Renderer) Render(spec TicketSpec) ([]byte, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	xdraw.NearestNeighbor.Scale(canvas, canvas.Bounds(), r.template, r.template.Bounds(), xdraw.Src, nil)

	photo := decodePhoto(spec.Photo)
	if photo != nil {
		drawCircularPhoto(canvas, photo)
	} else {
		drawMonogram(canvas, Monogram(spec.Name), monogramPalette(spec.Name))
	}

	drawCenteredText(canvas, spec.Name, 780, 4, color.White)
	subtitle := spec.Category
	if spec.ContestName != "" {
		subtitle = spec.ContestName + " · " + spec.Category
	}
	drawCenteredText(canvas, subtitle, 860, 2, color.RGBA{R: 0xd9, G: 0xd9, B: 0xe8, A: 0xff})

	if err := drawQR(canvas, spec.RegistrationID); err != nil {
		return nil, err
	}
	drawCenteredText(canvas, spec.RegistrationID, canvasH-90, 2, color.White)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode ticket: %w", err)
	}
	return buf.Bytes(), nil
}

// Monogram derives the placeholder initials: first letters of up to two name
// words, uppercased. An empty name gives "?".
func Monogram(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return "?"
	}
	initials := strings.ToUpper(string([]rune(words[0])[:1]))
	if len(words) > 1 {
		initials += strings.ToUpper(string([]rune(words[1])[:1]))
	}
	return initials
}

func decodePhoto(data []byte) image.Image {
	if len(data) == 0 {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return img
}

func defaultTemplate() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	bg := color.RGBA{R: 0x1d, G: 0x1b, B: 0x3a, A: 0xff}
	band := color.RGBA{R: 0xe8, G: 0x5d, B: 0x2c, A: 0xff}
	for y := range canvasH {
		c := bg
		if y < 120 || y > canvasH-60 {
			c = band
		}
		for x := range canvasW {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// drawCircularPhoto scales the photo to fill the portrait circle and clips
// everything outside it.
func drawCircularPhoto(canvas *image.RGBA, photo image.Image) {
	side := 2 * portraitR
	square := image.NewRGBA(image.Rect(0, 0, side, side))
	xdraw.ApproxBiLinear.Scale(square, square.Bounds(), photo, fillCrop(photo.Bounds(), side), xdraw.Src, nil)

	r2 := portraitR * portraitR
	for dy := -portraitR; dy < portraitR; dy++ {
		for dx := -portraitR; dx < portraitR; dx++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			canvas.Set(portraitCX+dx, portraitCY+dy, square.At(dx+portraitR, dy+portraitR))
		}
	}
}

// fillCrop returns the centered source rectangle whose aspect ratio matches
// the square target, so scaling fills rather than letterboxes.
func fillCrop(b image.Rectangle, side int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w > h {
		off := (w - h) / 2
		return image.Rect(b.Min.X+off, b.Min.Y, b.Min.X+off+h, b.Max.Y)
	}
	off := (h - w) / 2
	return image.Rect(b.Min.X, b.Min.Y+off, b.Max.X, b.Min.Y+off+w)
}

func drawMonogram(canvas *image.RGBA, initials string, bg color.RGBA) {
	r2 := portraitR * portraitR
	for dy := -portraitR; dy < portraitR; dy++ {
		for dx := -portraitR; dx < portraitR; dx++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			canvas.SetRGBA(portraitCX+dx, portraitCY+dy, bg)
		}
	}
	drawCenteredText(canvas, initials, portraitCY+20, 10, color.White)
}

// monogramPalette picks the placeholder background from the name hash, so
// the same name always renders the same pixels.
func monogramPalette(name string) color.RGBA {
	palette := []color.RGBA{
		{R: 0xe8, G: 0x5d, B: 0x2c, A: 0xff},
		{R: 0x2c, G: 0x7a, B: 0xe8, A: 0xff},
		{R: 0x1f, G: 0xa8, B: 0x6d, A: 0xff},
		{R: 0x9b, G: 0x4d, B: 0xcc, A: 0xff},
		{R: 0xc9, G: 0x3c, B: 0x5d, A: 0xff},
	}
	h := fnv.New32a()
	h.Write([]byte(name))
	return palette[h.Sum32()%uint32(len(palette))]
}

// drawCenteredText renders text with the bitmap face scaled by an integer
// factor. Bitmap glyphs plus nearest-neighbor scaling keep output exact.
func drawCenteredText(canvas *image.RGBA, text string, centerY, scale int, c color.Color) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	h := face.Metrics().Height.Ceil()

	strip := image.NewRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  strip,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)

	dstW, dstH := w*scale, h*scale
	dst := image.Rect(portraitCX-dstW/2, centerY-dstH/2, portraitCX-dstW/2+dstW, centerY-dstH/2+dstH)
	xdraw.NearestNeighbor.Scale(canvas, dst, strip, strip.Bounds(), xdraw.Over, nil)
}

func drawQR(canvas *image.RGBA, content string) error {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("encode ticket qr: %w", err)
	}
	qr.DisableBorder = true
	img := qr.Image(qrSize)

	origin := image.Pt(portraitCX-qrSize/2, canvasH-120-qrSize)
	xdraw.Copy(canvas, origin, img, img.Bounds(), xdraw.Src, nil)
	return nil
}
