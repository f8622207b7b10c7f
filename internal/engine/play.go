package engine

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ivlev/animstage/internal/playback"
	"github.com/ivlev/animstage/internal/scene"
)

// Play runs sc in real time at Config.FPS and publishes the poses of
// every frame. Cancelling ctx cancels the clock; poses reached so far stay
// applied to the scene.
func (p *Project) Play(ctx context.Context, name string, sc *scene.Scene) (Report, error) {
	start := time.Now()
	report := Report{Name: name, TotalFrames: sc.TotalFrames()}
	logger := log.WithField("scene", name)

	var publishErrors int
	sched := playback.NewTickerScheduler(p.Config.FPS)
	clock := playback.NewClock(sched, playback.Hooks{
		Capture: func(n int, _ playback.Sequence) error {
			t := time.Now()
			if err := p.Publisher.PublishFrame(n, sc.Objects()); err != nil {
				// A dropped live frame does not stop playback
				publishErrors++
				logger.WithError(err).Debugf("Publish frame %d failed", n)
			}
			report.Encode += time.Since(t)
			return nil
		},
		Done: func(o playback.Outcome, frames int, _ error) {
			report.Outcome = o
			report.Frames = frames
		},
	})

	logger.WithFields(log.Fields{
		"frames":   sc.TotalFrames(),
		"interval": sched.Interval(),
	}).Info("Playing")

	clock.Start(sc)
	err := sched.Run(ctx)
	if err != nil {
		clock.Cancel()
	}
	report.Total = time.Since(start)

	if publishErrors > 0 {
		logger.WithField("dropped", publishErrors).Warn("Some frames were not published")
	}
	logger.WithFields(log.Fields{
		"frames":  report.Frames,
		"outcome": report.Outcome.String(),
	}).Info("Playback finished")
	p.logReport(report)

	return report, err
}
