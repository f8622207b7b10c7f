package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ivlev/animstage/internal/config"
	"github.com/ivlev/animstage/internal/director"
	"github.com/ivlev/animstage/internal/effects"
	"github.com/ivlev/animstage/internal/playback"
	"github.com/ivlev/animstage/internal/renderer"
	"github.com/ivlev/animstage/internal/scene"
	"github.com/ivlev/animstage/internal/stream"
	"github.com/ivlev/animstage/internal/video"
)

// Project ties a configuration to the collaborators that turn scenes into
// video files or live pose streams.
type Project struct {
	Config    *config.Config
	Encoder   video.VideoEncoder
	Effect    effects.Effect
	Assets    renderer.AssetResolver
	Publisher stream.Publisher
}

func NewProject(cfg *config.Config, ve video.VideoEncoder, eff effects.Effect, assets renderer.AssetResolver, pub stream.Publisher) *Project {
	if eff == nil {
		eff = &effects.DefaultEffect{}
	}
	if pub == nil {
		pub = stream.NopPublisher{}
	}
	return &Project{
		Config:    cfg,
		Encoder:   ve,
		Effect:    eff,
		Assets:    assets,
		Publisher: pub,
	}
}

// Job is one scene to export
type Job struct {
	Name   string
	Scene  *scene.Scene
	Stage  director.Stage
	Output string
}

// Report summarizes a run
type Report struct {
	Name        string
	Output      string
	Frames      int
	TotalFrames int
	Outcome     playback.Outcome
	Render      time.Duration
	Encode      time.Duration
	Total       time.Duration
}

// FPS is the effective number of frames processed per second
func (r Report) FPS() float64 {
	if r.Total <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Total.Seconds()
}

// newRenderer builds the stage renderer; configured sizes override the
// stage size without rescaling objects.
func (p *Project) newRenderer(stage director.Stage) (*renderer.Renderer, error) {
	w, h := stage.Width, stage.Height
	if p.Config.Width > 0 {
		w = p.Config.Width
	}
	if p.Config.Height > 0 {
		h = p.Config.Height
	}
	if w == 0 {
		w = director.DefaultStageWidth
	}
	if h == 0 {
		h = director.DefaultStageHeight
	}
	bg := stage.Background
	if bg == "" {
		bg = director.DefaultBackground
	}

	r, err := renderer.New(w, h, bg)
	if err != nil {
		return nil, err
	}
	r.Assets = p.Assets
	r.Debug = p.Config.Debug
	return r, nil
}

func (p *Project) logReport(r Report) {
	if !p.Config.ShowStats {
		return
	}

	log.WithFields(log.Fields{
		"build":   p.Config.BuildVersion,
		"scene":   r.Name,
		"frames":  fmt.Sprintf("%d/%d", r.Frames, r.TotalFrames),
		"outcome": r.Outcome.String(),
		"total":   fmt.Sprintf("%.2fs", r.Total.Seconds()),
		"render":  fmt.Sprintf("%.2fs", r.Render.Seconds()),
		"encode":  fmt.Sprintf("%.2fs", r.Encode.Seconds()),
		"fps":     fmt.Sprintf("%.2f", r.FPS()),
	}).Info("Performance report")

	// Benchmark history next to the videos
	logEntry := fmt.Sprintf("[%s] Build: %s | Scene: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Encode: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		r.Name,
		r.Frames,
		r.Total.Seconds(),
		r.Render.Seconds(),
		r.Encode.Seconds(),
		r.FPS(),
	)

	path := filepath.Join(p.Config.OutputDir, "benchmark.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.WithError(err).Warn("Could not write benchmark.log")
		return
	}
	defer f.Close()
	f.WriteString(logEntry)
}
