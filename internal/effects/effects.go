package effects

import (
	"fmt"
	"math"
	"strings"

	"github.com/ivlev/animstage/internal/config"
	"github.com/ivlev/animstage/internal/system"
)

// Effect produces the ffmpeg -vf chain applied to rendered frames
type Effect interface {
	GenerateFilter(params config.ExportParams) string
}

// DefaultEffect pads odd stage sizes to even ones, which yuv420p needs
type DefaultEffect struct{}

func (e *DefaultEffect) GenerateFilter(p config.ExportParams) string {
	filters := []string{"pad=ceil(iw/2)*2:ceil(ih/2)*2:0:0"}
	if p.Debug && system.CheckFilterSupport("drawtext") {
		filters = append(filters, debugText(p))
	}
	return strings.Join(filters, ",")
}

// FadeEffect adds a fade from and to black on top of another effect
type FadeEffect struct {
	Base Effect
}

func NewFadeEffect(base Effect) *FadeEffect {
	if base == nil {
		base = &DefaultEffect{}
	}
	return &FadeEffect{Base: base}
}

func (e *FadeEffect) GenerateFilter(p config.ExportParams) string {
	filter := e.Base.GenerateFilter(p)

	total := p.Duration()
	fadeIn, fadeOut := clampFades(p.FadeIn, p.FadeOut, total)

	if fadeIn > 0 {
		filter += fmt.Sprintf(",fade=t=in:st=0:d=%.3f", fadeIn)
	}
	if fadeOut > 0 {
		filter += fmt.Sprintf(",fade=t=out:st=%.3f:d=%.3f", total-fadeOut, fadeOut)
	}
	return filter
}

// clampFades shrinks both fades proportionally so they never overlap
func clampFades(in, out, total float64) (float64, float64) {
	in = math.Max(in, 0)
	out = math.Max(out, 0)
	if sum := in + out; sum > total && sum > 0 {
		scale := total / sum
		in *= scale
		out *= scale
	}
	return in, out
}

func debugText(p config.ExportParams) string {
	return fmt.Sprintf("drawtext=text='Scene %d | Frame %%{frame_num}/%d':x=10:y=10:fontsize=24:fontcolor=yellow:box=1:boxcolor=black@0.5",
		p.Index+1, p.TotalFrames)
}
