package anim

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Transform is the pose of an object on the stage
type Transform struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Scale    float64 `yaml:"scale"`
	Rotation float64 `yaml:"rotation"` // Degrees, not normalized
}

// Identity returns the default pose: origin, scale 1, no rotation
func Identity() Transform {
	return Transform{X: 0, Y: 0, Scale: 1, Rotation: 0}
}

// Lerp interpolates every field of a and b independently.
// Rotation is treated as a plain scalar, so 350 -> 10 sweeps through 180.
func Lerp(a, b Transform, t float64) Transform {
	return Transform{
		X:        lerp(a.X, b.X, t),
		Y:        lerp(a.Y, b.Y, t),
		Scale:    lerp(a.Scale, b.Scale, t),
		Rotation: lerp(a.Rotation, b.Rotation, t),
	}
}

// UnmarshalYAML fills omitted fields from Identity, so a pose written as
// {x: 10} keeps scale 1.
func (t *Transform) UnmarshalYAML(value *yaml.Node) error {
	type plain Transform
	p := plain(Identity())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*t = Transform(p)
	return nil
}

func (t Transform) String() string {
	return fmt.Sprintf("{x:%.3f y:%.3f scale:%.3f rot:%.3f}", t.X, t.Y, t.Scale, t.Rotation)
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
