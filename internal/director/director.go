package director

import (
	"fmt"

	"github.com/ivlev/animstage/internal/scene"
)

// Default stage used when a script leaves it out
const (
	DefaultStageWidth  = 800
	DefaultStageHeight = 600
	DefaultBackground  = "#ffffff"
)

// Validate checks a script before it is replayed
func (s *Script) Validate() error {
	if s.Version == "" {
		return fmt.Errorf("script has no version")
	}
	if s.TotalFrames < 1 {
		return fmt.Errorf("total_frames must be at least 1, got %d", s.TotalFrames)
	}
	if s.Stage.Width < 0 || s.Stage.Height < 0 {
		return fmt.Errorf("invalid stage size %dx%d", s.Stage.Width, s.Stage.Height)
	}
	for i, obj := range s.Objects {
		switch scene.Kind(obj.Kind) {
		case scene.KindRect, "":
		case scene.KindImage:
			if obj.Asset == "" {
				return fmt.Errorf("object %d (%s): image without asset", i, obj.Name)
			}
		default:
			return fmt.Errorf("object %d (%s): unknown kind %q", i, obj.Name, obj.Kind)
		}
		for _, kf := range obj.Keyframes {
			if kf.Frame < 1 {
				return fmt.Errorf("object %d (%s): keyframe at frame %d", i, obj.Name, kf.Frame)
			}
		}
	}
	return nil
}

// StageOrDefault fills missing stage fields
func (s *Script) StageOrDefault() Stage {
	st := s.Stage
	if st.Width == 0 {
		st.Width = DefaultStageWidth
	}
	if st.Height == 0 {
		st.Height = DefaultStageHeight
	}
	if st.Background == "" {
		st.Background = DefaultBackground
	}
	return st
}

// BuildScene replays a script as the editor would: add each object, then
// for every keyframe move it to the recorded pose and capture it, and
// finally put it back at its initial pose.
func BuildScene(script *Script) (*scene.Scene, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}

	sc, err := scene.New(script.TotalFrames)
	if err != nil {
		return nil, err
	}

	for i, obj := range script.Objects {
		name := obj.Name
		if name == "" {
			name = fmt.Sprintf("%s %d", kindOrDefault(obj.Kind), i)
		}

		id := sc.AddObject(obj.Pose, name)

		if err := sc.SetAppearance(id, appearanceOf(obj)); err != nil {
			return nil, fmt.Errorf("object %s: %w", name, err)
		}
		if err := sc.SetEasing(id, obj.Easing); err != nil {
			return nil, fmt.Errorf("object %s: %w", name, err)
		}

		for _, kf := range obj.Keyframes {
			if err := sc.SetPose(id, kf.Pose); err != nil {
				return nil, err
			}
			if err := sc.RecordKeyframe(id, kf.Frame); err != nil {
				return nil, fmt.Errorf("object %s: %w", name, err)
			}
		}

		if err := sc.SetPose(id, obj.Pose); err != nil {
			return nil, err
		}
	}

	return sc, nil
}

// CaptureScript writes the current state of a scene back into a script.
// Live poses become the initial poses.
func CaptureScript(sc *scene.Scene, stage Stage) (*Script, error) {
	script := &Script{
		Version:     ScriptVersion,
		TotalFrames: sc.TotalFrames(),
		Stage:       stage,
	}

	for _, view := range sc.Objects() {
		easing, err := sc.Easing(view.ID)
		if err != nil {
			return nil, err
		}
		frames, err := sc.Keyframes(view.ID)
		if err != nil {
			return nil, err
		}

		obj := Object{
			Name:   view.Name,
			Kind:   string(view.Appearance.Kind),
			Width:  view.Appearance.Width,
			Height: view.Appearance.Height,
			Fill:   view.Appearance.Fill,
			Asset:  view.Appearance.Asset,
			Easing: easing,
			Pose:   view.Pose,
		}
		for _, f := range frames {
			pose, _, err := sc.Keyframe(view.ID, f)
			if err != nil {
				return nil, err
			}
			obj.Keyframes = append(obj.Keyframes, Keyframe{Frame: f, Pose: pose})
		}

		script.Objects = append(script.Objects, obj)
	}

	return script, nil
}

func appearanceOf(obj Object) scene.Appearance {
	a := scene.DefaultAppearance()
	if obj.Kind != "" {
		a.Kind = scene.Kind(obj.Kind)
	}
	if obj.Width > 0 {
		a.Width = obj.Width
	}
	if obj.Height > 0 {
		a.Height = obj.Height
	}
	if obj.Fill != "" {
		a.Fill = obj.Fill
	}
	a.Asset = obj.Asset
	return a
}

func kindOrDefault(kind string) string {
	if kind == "" {
		return string(scene.KindRect)
	}
	return kind
}
