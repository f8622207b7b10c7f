package anim

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fogleman/ease"
)

// EaseFunc remaps the interpolation parameter t in [0, 1]
type EaseFunc func(t float64) float64

// ErrUnknownEasing is returned for an easing name that is not registered
var ErrUnknownEasing = errors.New("unknown easing")

const EasingLinear = "linear"

var easings = map[string]EaseFunc{
	EasingLinear:   ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
	"out-bounce":   ease.OutBounce,
}

// Easing looks up a curve by name. An empty name means linear.
func Easing(name string) (EaseFunc, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = EasingLinear
	}
	fn, ok := easings[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEasing, name)
	}
	return fn, nil
}

// EasingNames lists the registered curves in alphabetical order
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for name := range easings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
