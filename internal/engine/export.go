package engine

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/animstage/internal/config"
	"github.com/ivlev/animstage/internal/playback"
	"github.com/ivlev/animstage/internal/system"
)

// Export renders every frame of job.Scene into job.Output. Frames are
// produced back to back on a manual scheduler, so the file gets exactly
// TotalFrames frames no matter how long each one takes.
func (p *Project) Export(ctx context.Context, job Job) (Report, error) {
	return p.export(ctx, job, 0)
}

func (p *Project) export(ctx context.Context, job Job, index int) (Report, error) {
	start := time.Now()
	report := Report{Name: job.Name, Output: job.Output, TotalFrames: job.Scene.TotalFrames()}

	r, err := p.newRenderer(job.Stage)
	if err != nil {
		return report, fmt.Errorf("export %s: %w", job.Name, err)
	}

	params := config.ExportParams{
		Width:       r.Width,
		Height:      r.Height,
		FPS:         p.Config.FPS,
		TotalFrames: job.Scene.TotalFrames(),
		FadeIn:      p.Config.FadeIn,
		FadeOut:     p.Config.FadeOut,
		Debug:       p.Config.Debug,
		Index:       index,
	}
	params.Filter = p.Effect.GenerateFilter(params)

	logger := log.WithFields(log.Fields{"scene": job.Name, "output": job.Output})
	logger.WithFields(log.Fields{
		"size":   fmt.Sprintf("%dx%d", params.Width, params.Height),
		"fps":    params.FPS,
		"frames": params.TotalFrames,
	}).Info("Exporting")

	sink, err := p.Encoder.Open(ctx, job.Output, params)
	if err != nil {
		return report, fmt.Errorf("export %s: %w", job.Name, err)
	}

	frame := system.GetImage(r.Bounds())
	defer system.PutImage(frame)

	var (
		outcome playback.Outcome
		runErr  error
	)
	sched := &playback.ManualScheduler{}
	clock := playback.NewClock(sched, playback.Hooks{
		Capture: func(n int, _ playback.Sequence) error {
			t := time.Now()
			if err := r.Render(frame, n, job.Scene.Objects()); err != nil {
				return err
			}
			report.Render += time.Since(t)

			t = time.Now()
			if err := sink.WriteFrame(frame); err != nil {
				return err
			}
			report.Encode += time.Since(t)

			if n%100 == 0 {
				logger.Debugf("Frame %d/%d", n, params.TotalFrames)
			}
			return nil
		},
		Done: func(o playback.Outcome, frames int, err error) {
			outcome = o
			report.Frames = frames
			runErr = err
		},
	})

	clock.Start(job.Scene)
	if err := sched.Drain(ctx); err != nil {
		clock.Cancel()
		runErr = err
	}
	report.Outcome = outcome

	switch outcome {
	case playback.Completed:
		t := time.Now()
		err := sink.Close()
		report.Encode += time.Since(t)
		report.Total = time.Since(start)
		if err != nil {
			return report, fmt.Errorf("export %s: %w", job.Name, err)
		}
	default:
		if err := sink.Abort(); err != nil {
			logger.WithError(err).Warn("Could not remove partial output")
		}
		report.Total = time.Since(start)
		logger.WithField("frames", report.Frames).Warnf("Export %s", outcome)
		return report, fmt.Errorf("export %s: %w", job.Name, runErr)
	}

	logger.WithFields(log.Fields{
		"frames": report.Frames,
		"time":   fmt.Sprintf("%.2fs", report.Total.Seconds()),
	}).Info("Ready")
	p.logReport(report)
	return report, nil
}

// ExportAll exports several scenes at once, each on its own goroutine and
// at most Config.Workers at a time. The first failure cancels the rest.
// Jobs must not share a Scene.
func (p *Project) ExportAll(ctx context.Context, jobs []Job) ([]Report, error) {
	reports := make([]Report, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers(jobs))

	for i, job := range jobs {
		g.Go(func() error {
			rep, err := p.export(ctx, job, i)
			reports[i] = rep
			return err
		})
	}

	err := g.Wait()
	return reports, err
}

func (p *Project) workers(jobs []Job) int {
	if p.Config.Workers > 0 {
		return p.Config.Workers
	}

	// Size by the largest frame buffer any job needs
	largest := 0
	for _, job := range jobs {
		r, err := p.newRenderer(job.Stage)
		if err != nil {
			continue
		}
		if n := r.Width * r.Height * 4; n > largest {
			largest = n
		}
	}
	return system.RecommendedWorkers(largest)
}
