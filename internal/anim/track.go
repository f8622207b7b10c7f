package anim

import (
	"sort"
	"strings"
)

// Track is a sparse set of keyframes for one object.
// Frames are kept in an ascending index alongside the pose map, so
// FrameNumbers and Resolve never need to sort.
type Track struct {
	keys   map[int]Transform
	frames []int

	easing     EaseFunc
	easingName string
}

// NewTrack creates an empty track with linear interpolation
func NewTrack() *Track {
	return &Track{
		keys:       make(map[int]Transform),
		easing:     mustEasing(EasingLinear),
		easingName: EasingLinear,
	}
}

// Set inserts or overwrites the keyframe at frame.
// No range check against the scene length is made.
func (tr *Track) Set(frame int, pose Transform) {
	if _, exists := tr.keys[frame]; !exists {
		i := sort.SearchInts(tr.frames, frame)
		tr.frames = append(tr.frames, 0)
		copy(tr.frames[i+1:], tr.frames[i:])
		tr.frames[i] = frame
	}
	tr.keys[frame] = pose
}

// Get returns the keyframe stored at exactly frame
func (tr *Track) Get(frame int) (Transform, bool) {
	pose, ok := tr.keys[frame]
	return pose, ok
}

// Delete removes the keyframe at frame and reports whether one existed
func (tr *Track) Delete(frame int) bool {
	if _, ok := tr.keys[frame]; !ok {
		return false
	}
	delete(tr.keys, frame)
	i := sort.SearchInts(tr.frames, frame)
	tr.frames = append(tr.frames[:i], tr.frames[i+1:]...)
	return true
}

// Len returns the number of keyframes
func (tr *Track) Len() int {
	return len(tr.frames)
}

// FrameNumbers returns the keyframed frames in ascending order
func (tr *Track) FrameNumbers() []int {
	out := make([]int, len(tr.frames))
	copy(out, tr.frames)
	return out
}

// SetEasing selects the curve applied between two keyframes
func (tr *Track) SetEasing(name string) error {
	fn, err := Easing(name)
	if err != nil {
		return err
	}
	tr.easing = fn
	tr.easingName = strings.ToLower(strings.TrimSpace(name))
	if tr.easingName == "" {
		tr.easingName = EasingLinear
	}
	return nil
}

// EasingName returns the name of the active curve
func (tr *Track) EasingName() string {
	return tr.easingName
}

// Resolve calculates the pose at frame.
//
// An empty track yields def. A single keyframe is held for every frame.
// Otherwise frames before the first keyframe hold the first pose, frames
// after the last hold the last pose, and frames in between are interpolated
// between the surrounding pair.
func (tr *Track) Resolve(frame int, def Transform) Transform {
	switch len(tr.frames) {
	case 0:
		return def
	case 1:
		return tr.keys[tr.frames[0]]
	}

	prev, next := tr.bracket(frame)
	if prev == next {
		return tr.keys[prev]
	}

	t := float64(frame-prev) / float64(next-prev)
	t = tr.easing(t)

	return Lerp(tr.keys[prev], tr.keys[next], t)
}

// bracket finds the keyframes surrounding frame, clamped to the first and last
func (tr *Track) bracket(frame int) (prev, next int) {
	first, last := tr.frames[0], tr.frames[len(tr.frames)-1]

	// i is the first index with frames[i] >= frame
	i := sort.SearchInts(tr.frames, frame)

	next = last
	if i < len(tr.frames) {
		next = tr.frames[i]
	}

	switch {
	case i < len(tr.frames) && tr.frames[i] == frame:
		prev = frame
	case i > 0:
		prev = tr.frames[i-1]
	default:
		prev = first
	}

	return prev, next
}

// mustEasing returns a registered curve that is known to exist
func mustEasing(name string) EaseFunc {
	fn, _ := Easing(name)
	return fn
}
