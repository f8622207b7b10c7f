package renderer

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ivlev/animstage/internal/anim"
	"github.com/ivlev/animstage/internal/scene"
)

type fakeAssets map[string]image.Image

func (f fakeAssets) Resolve(ref string) (image.Image, error) {
	img, ok := f[ref]
	if !ok {
		return nil, errors.New("no such asset")
	}
	return img, nil
}

func rectView(pose anim.Transform, w, h float64, fill string) scene.ObjectView {
	return scene.ObjectView{
		Name: "box",
		Pose: pose,
		Appearance: scene.Appearance{
			Kind:   scene.KindRect,
			Width:  w,
			Height: h,
			Fill:   fill,
		},
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(100, 80, "#ffffff")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func assertPixel(t *testing.T, img *image.RGBA, x, y int, want color.RGBA) {
	t.Helper()
	if got := img.RGBAAt(x, y); got != want {
		t.Errorf("Pixel (%d,%d): expected %v, got %v", x, y, want, got)
	}
}

var (
	white = color.RGBA{255, 255, 255, 255}
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func TestRenderClearsToBackground(t *testing.T) {
	r := newTestRenderer(t)
	dst := image.NewRGBA(r.Bounds())
	dst.Set(5, 5, red)

	if err := r.Render(dst, 1, nil); err != nil {
		t.Fatal(err)
	}
	assertPixel(t, dst, 5, 5, white)
}

func TestRenderRect(t *testing.T) {
	r := newTestRenderer(t)
	dst := image.NewRGBA(r.Bounds())

	obj := rectView(anim.Transform{X: 10, Y: 20, Scale: 1}, 40, 20, "#f00")
	if err := r.Render(dst, 1, []scene.ObjectView{obj}); err != nil {
		t.Fatal(err)
	}

	assertPixel(t, dst, 30, 30, red)
	assertPixel(t, dst, 5, 5, white)
	assertPixel(t, dst, 55, 30, white)
}

func TestRenderRectScalesAboutCentre(t *testing.T) {
	r := newTestRenderer(t)
	dst := image.NewRGBA(r.Bounds())

	// Scaled box keeps (x, y) + w*s/2 as its centre
	obj := rectView(anim.Transform{X: 0, Y: 0, Scale: 2}, 20, 10, "#ff0000")
	if err := r.Render(dst, 1, []scene.ObjectView{obj}); err != nil {
		t.Fatal(err)
	}

	assertPixel(t, dst, 38, 18, red)
	assertPixel(t, dst, 42, 18, white)
}

func TestRenderLaterObjectsOnTop(t *testing.T) {
	r := newTestRenderer(t)
	dst := image.NewRGBA(r.Bounds())

	objs := []scene.ObjectView{
		rectView(anim.Transform{Scale: 1}, 50, 50, "#ff0000"),
		rectView(anim.Transform{X: 10, Y: 10, Scale: 1}, 10, 10, "#0000ff"),
	}
	if err := r.Render(dst, 1, objs); err != nil {
		t.Fatal(err)
	}
	assertPixel(t, dst, 15, 15, blue)
	assertPixel(t, dst, 30, 30, red)
}

func TestRenderImage(t *testing.T) {
	r := newTestRenderer(t)
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.SetRGBA(x, y, blue)
		}
	}
	r.Assets = fakeAssets{"logo.png": src}

	obj := scene.ObjectView{
		Name:       "logo",
		Pose:       anim.Identity(),
		Appearance: scene.Appearance{Kind: scene.KindImage, Width: 20, Height: 20, Asset: "logo.png"},
	}
	dst := image.NewRGBA(r.Bounds())
	if err := r.Render(dst, 1, []scene.ObjectView{obj}); err != nil {
		t.Fatal(err)
	}
	assertPixel(t, dst, 10, 10, blue)
	assertPixel(t, dst, 30, 30, white)
}

func TestRenderErrors(t *testing.T) {
	r := newTestRenderer(t)

	if err := r.Render(image.NewRGBA(image.Rect(0, 0, 10, 10)), 1, nil); err == nil {
		t.Error("Expected error for a mismatched frame buffer")
	}

	dst := image.NewRGBA(r.Bounds())
	img := scene.ObjectView{Appearance: scene.Appearance{Kind: scene.KindImage, Width: 1, Height: 1, Asset: "x"}}
	if err := r.Render(dst, 1, []scene.ObjectView{img}); err == nil {
		t.Error("Expected error for an image without resolver")
	}

	bad := rectView(anim.Identity(), 1, 1, "not-a-colour")
	if err := r.Render(dst, 1, []scene.ObjectView{bad}); err == nil {
		t.Error("Expected error for a bad fill")
	}

	if _, err := New(0, 10, "#fff"); err == nil {
		t.Error("Expected error for zero width")
	}
	if _, err := New(10, 10, "white"); err == nil {
		t.Error("Expected error for a named colour")
	}
}

func TestRenderDebugStamp(t *testing.T) {
	r := newTestRenderer(t)
	r.Debug = true
	dst := image.NewRGBA(r.Bounds())

	if err := r.Render(dst, 7, nil); err != nil {
		t.Fatal(err)
	}
	// Finder pattern corner of the QR code
	if got := dst.RGBAAt(2, 2); got.R != 0 || got.G != 0 || got.B != 0 {
		t.Errorf("Expected a dark QR module near the origin, got %v", got)
	}
	assertPixel(t, dst, 90, 70, white)
}

func TestObjectMatrix(t *testing.T) {
	const eps = 1e-9
	tests := []struct {
		name  string
		pose  anim.Transform
		local mgl64.Vec3
		want  mgl64.Vec2
	}{
		{"identity origin", anim.Transform{X: 5, Y: 7, Scale: 1}, mgl64.Vec3{0, 0, 1}, mgl64.Vec2{5, 7}},
		{"centre is fixed under rotation", anim.Transform{X: 0, Y: 0, Scale: 1, Rotation: 123}, mgl64.Vec3{20, 10, 1}, mgl64.Vec2{20, 10}},
		{"quarter turn", anim.Transform{X: 0, Y: 0, Scale: 1, Rotation: 90}, mgl64.Vec3{0, 0, 1}, mgl64.Vec2{30, -10}},
		{"scaled corner", anim.Transform{X: 0, Y: 0, Scale: 2}, mgl64.Vec3{40, 20, 1}, mgl64.Vec2{80, 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ObjectMatrix(rectView(tt.pose, 40, 20, ""))
			p := m.Mul3x1(tt.local)
			if math.Abs(p.X()-tt.want.X()) > eps || math.Abs(p.Y()-tt.want.Y()) > eps {
				t.Errorf("Expected %v, got (%f, %f)", tt.want, p.X(), p.Y())
			}

			a := Aff3(m)
			x := a[0]*tt.local.X() + a[1]*tt.local.Y() + a[2]
			y := a[3]*tt.local.X() + a[4]*tt.local.Y() + a[5]
			if math.Abs(x-p.X()) > eps || math.Abs(y-p.Y()) > eps {
				t.Errorf("Aff3 disagrees with the matrix: (%f, %f)", x, y)
			}
		})
	}
}
