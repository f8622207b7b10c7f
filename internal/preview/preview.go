// Package preview shows a scene in a window and plays it at display rate.
//
// Game is both the ebiten.Game and the playback.Scheduler of its clock:
// Schedule stores the next tick and Update runs it, so the clock advances
// at most one frame per display frame.
package preview

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	log "github.com/sirupsen/logrus"

	"github.com/ivlev/animstage/internal/playback"
	"github.com/ivlev/animstage/internal/renderer"
	"github.com/ivlev/animstage/internal/scene"
	"github.com/ivlev/animstage/internal/stream"
	"github.com/ivlev/animstage/internal/system"
)

type Game struct {
	name      string
	scene     *scene.Scene
	renderer  *renderer.Renderer
	publisher stream.Publisher
	scale     float64

	clock   *playback.Clock
	pending []func()
	status  string

	frame   *image.RGBA
	texture *ebiten.Image
}

// New creates a preview of sc. scale enlarges the window, not the stage.
func New(name string, sc *scene.Scene, r *renderer.Renderer, pub stream.Publisher, scale float64) *Game {
	if pub == nil {
		pub = stream.NopPublisher{}
	}
	if scale <= 0 {
		scale = 1
	}

	g := &Game{
		name:      name,
		scene:     sc,
		renderer:  r,
		publisher: pub,
		scale:     scale,
		status:    "space: play",
	}
	g.clock = playback.NewClock(g, playback.Hooks{
		Capture: func(n int, _ playback.Sequence) error {
			if err := g.publisher.PublishFrame(n, g.scene.Objects()); err != nil {
				log.WithError(err).Debugf("Publish frame %d failed", n)
			}
			return nil
		},
		Done: func(o playback.Outcome, frames int, err error) {
			g.status = fmt.Sprintf("%s after %d frames, space: play", o, frames)
			log.WithFields(log.Fields{"scene": g.name, "frames": frames}).Infof("Preview %s", o)
		},
	})
	return g
}

// Schedule queues fn for the next Update
func (g *Game) Schedule(fn func()) {
	g.pending = append(g.pending, fn)
}

// Clock exposes the playback state
func (g *Game) Clock() *playback.Clock {
	return g.clock
}

// Toggle starts playback from frame 1, or cancels a running one
func (g *Game) Toggle() {
	if g.clock.State() == playback.Running {
		g.clock.Cancel()
		return
	}
	g.clock.Start(g.scene)
	g.status = "playing, space: stop"
}

// step runs what was queued before this display frame
func (g *Game) step() {
	batch := g.pending
	g.pending = nil
	for _, fn := range batch {
		fn()
	}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.Toggle()
	}
	g.step()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.frame == nil {
		g.frame = system.GetImage(g.renderer.Bounds())
		g.texture = ebiten.NewImage(g.renderer.Width, g.renderer.Height)
	}

	if err := g.renderer.Render(g.frame, g.shownFrame(), g.scene.Objects()); err != nil {
		ebitenutil.DebugPrint(screen, err.Error())
		return
	}
	g.texture.WritePixels(g.frame.Pix)

	var op ebiten.DrawImageOptions
	op.GeoM.Scale(g.scale, g.scale)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(g.texture, &op)

	ebitenutil.DebugPrint(screen, fmt.Sprintf("%s  frame %d/%d  %s",
		g.name, g.shownFrame(), g.scene.TotalFrames(), g.status))
}

// shownFrame is the frame whose poses are on the scene, 0 before playback
func (g *Game) shownFrame() int {
	return g.clock.Applied()
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.windowSize()
}

func (g *Game) windowSize() (int, int) {
	return int(float64(g.renderer.Width) * g.scale), int(float64(g.renderer.Height) * g.scale)
}

// Run opens the window and blocks until it is closed
func Run(g *Game, fps int) error {
	w, h := g.windowSize()
	ebiten.SetWindowTitle(fmt.Sprintf("animstage: %s", g.name))
	ebiten.SetWindowSize(w, h)
	if fps > 0 {
		ebiten.SetTPS(fps)
	}

	defer func() {
		if g.frame != nil {
			system.PutImage(g.frame)
		}
	}()

	if err := ebiten.RunGame(g); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}
