// Package renderer rasterizes a stage of objects into RGBA frames.
//
// Every object is drawn with the editor's transform: translate to the
// scaled centre, rotate, scale, then shift by half the unscaled size, so
// that rotation and scaling happen about the object's centre while (x, y)
// stays its unrotated top-left corner at scale 1.
package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"

	"github.com/ivlev/animstage/internal/scene"
)

// AssetResolver turns an image object's asset reference into pixels
type AssetResolver interface {
	Resolve(ref string) (image.Image, error)
}

// Side of the debug QR stamp in pixels
const stampSize = 64

type Renderer struct {
	Width, Height int
	Background    color.RGBA
	Assets        AssetResolver
	Debug         bool
}

// New creates a renderer for a stage; background is a hex colour
func New(width, height int, background string) (*Renderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid stage size %dx%d", width, height)
	}
	bg, err := ParseColor(background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	return &Renderer{Width: width, Height: height, Background: bg}, nil
}

// Bounds of the frames this renderer draws
func (r *Renderer) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// Render clears dst and draws objs in order, later objects on top
func (r *Renderer) Render(dst *image.RGBA, frame int, objs []scene.ObjectView) error {
	if dst.Rect != r.Bounds() {
		return fmt.Errorf("frame buffer is %v, stage is %v", dst.Rect, r.Bounds())
	}

	draw.Draw(dst, dst.Rect, image.NewUniform(r.Background), image.Point{}, draw.Src)

	for _, obj := range objs {
		var err error
		switch obj.Appearance.Kind {
		case scene.KindImage:
			err = r.drawImage(dst, obj)
		default:
			err = r.drawRect(dst, obj)
		}
		if err != nil {
			return fmt.Errorf("object %s (%s): %w", obj.Name, obj.ID, err)
		}
	}

	if r.Debug {
		return stamp(dst, frame)
	}
	return nil
}

func (r *Renderer) drawRect(dst *image.RGBA, obj scene.ObjectView) error {
	hex := obj.Appearance.Fill
	if hex == "" {
		hex = scene.DefaultAppearance().Fill
	}
	fill, err := ParseColor(hex)
	if err != nil {
		return err
	}

	m := ObjectMatrix(obj)
	w, h := obj.Appearance.Width, obj.Appearance.Height
	corners := [4]mgl64.Vec3{{0, 0, 1}, {w, 0, 1}, {w, h, 1}, {0, h, 1}}

	z := vector.NewRasterizer(r.Width, r.Height)
	for i, c := range corners {
		p := m.Mul3x1(c)
		if i == 0 {
			z.MoveTo(float32(p.X()), float32(p.Y()))
		} else {
			z.LineTo(float32(p.X()), float32(p.Y()))
		}
	}
	z.ClosePath()
	z.Draw(dst, dst.Rect, image.NewUniform(fill), image.Point{})
	return nil
}

func (r *Renderer) drawImage(dst *image.RGBA, obj scene.ObjectView) error {
	if r.Assets == nil {
		return fmt.Errorf("no asset resolver for %q", obj.Appearance.Asset)
	}
	src, err := r.Assets.Resolve(obj.Appearance.Asset)
	if err != nil {
		return err
	}
	// A zero scale collapses the object; the affine would not be invertible
	if obj.Pose.Scale == 0 {
		return nil
	}

	sb := src.Bounds()
	if sb.Empty() {
		return nil
	}
	fit := mgl64.Scale2D(obj.Appearance.Width/float64(sb.Dx()), obj.Appearance.Height/float64(sb.Dy())).
		Mul3(mgl64.Translate2D(-float64(sb.Min.X), -float64(sb.Min.Y)))

	draw.BiLinear.Transform(dst, Aff3(ObjectMatrix(obj).Mul3(fit)), src, sb, draw.Over, nil)
	return nil
}

// ObjectMatrix maps object-local coordinates, with (0,0) the top-left of
// the unscaled box, to stage coordinates.
func ObjectMatrix(obj scene.ObjectView) mgl64.Mat3 {
	p := obj.Pose
	w, h := obj.Appearance.Width, obj.Appearance.Height

	return mgl64.Translate2D(p.X+w*p.Scale/2, p.Y+h*p.Scale/2).
		Mul3(mgl64.HomogRotate2D(mgl64.DegToRad(p.Rotation))).
		Mul3(mgl64.Scale2D(p.Scale, p.Scale)).
		Mul3(mgl64.Translate2D(-w/2, -h/2))
}

// Aff3 converts a homogeneous 2D matrix to the form x/image/draw expects
func Aff3(m mgl64.Mat3) f64.Aff3 {
	return f64.Aff3{
		m.At(0, 0), m.At(0, 1), m.At(0, 2),
		m.At(1, 0), m.At(1, 1), m.At(1, 2),
	}
}

// ParseColor reads #rgb or #rrggbb into an opaque colour
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// stamp draws a QR code of the frame number in the top-left corner, so
// that a decoded video can be checked frame by frame.
func stamp(dst *image.RGBA, frame int) error {
	q, err := qrcode.New(fmt.Sprintf("frame %d", frame), qrcode.Medium)
	if err != nil {
		return fmt.Errorf("debug stamp: %w", err)
	}
	q.DisableBorder = true

	code := q.Image(stampSize)
	draw.Draw(dst, code.Bounds().Intersect(dst.Rect), code, code.Bounds().Min, draw.Src)
	return nil
}
