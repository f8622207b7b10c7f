package director

import (
	"gopkg.in/yaml.v3"

	"github.com/ivlev/animstage/internal/anim"
)

const ScriptVersion = "1.0"

// Script describes a stage and the edits that build its animation
type Script struct {
	Version     string   `yaml:"version"`
	Name        string   `yaml:"name,omitempty"`
	TotalFrames int      `yaml:"total_frames"`
	Stage       Stage    `yaml:"stage"`
	Objects     []Object `yaml:"objects"`
}

// Stage is the canvas the objects are drawn on
type Stage struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Background string `yaml:"background"` // Hex colour
}

// Object is one animatable object with its keyframes
type Object struct {
	Name      string         `yaml:"name"`
	Kind      string         `yaml:"kind"` // "rect" or "image"
	Width     float64        `yaml:"width"`
	Height    float64        `yaml:"height"`
	Fill      string         `yaml:"fill,omitempty"`
	Asset     string         `yaml:"asset,omitempty"`
	Easing    string         `yaml:"easing,omitempty"`
	Pose      anim.Transform `yaml:"pose"`
	Keyframes []Keyframe     `yaml:"keyframes,omitempty"`
}

// Keyframe is a pose recorded at a specific frame
type Keyframe struct {
	Frame int            `yaml:"frame"`
	Pose  anim.Transform `yaml:"pose"`
}

// UnmarshalYAML starts from the identity pose, so an object without a
// pose key keeps scale 1.
func (o *Object) UnmarshalYAML(value *yaml.Node) error {
	type plain Object
	p := plain{Pose: anim.Identity()}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*o = Object(p)
	return nil
}

func (k *Keyframe) UnmarshalYAML(value *yaml.Node) error {
	type plain Keyframe
	p := plain{Pose: anim.Identity()}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*k = Keyframe(p)
	return nil
}
