package scene

import (
	"github.com/google/uuid"

	"github.com/ivlev/animstage/internal/anim"
)

// ObjectID identifies an object for the lifetime of a scene
type ObjectID uuid.UUID

// NilObjectID is never assigned to an object
var NilObjectID = ObjectID(uuid.Nil)

func newObjectID() ObjectID {
	return ObjectID(uuid.New())
}

// ParseObjectID parses the canonical textual form of an id
func ParseObjectID(s string) (ObjectID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilObjectID, err
	}
	return ObjectID(u), nil
}

func (id ObjectID) String() string {
	return uuid.UUID(id).String()
}

// Kind selects how the renderer draws an object
type Kind string

const (
	KindRect  Kind = "rect"
	KindImage Kind = "image"
)

// Appearance carries what the renderer needs besides the pose
type Appearance struct {
	Kind   Kind
	Width  float64
	Height float64
	Fill   string // Hex colour for rects
	Asset  string // Asset reference for images
}

// DefaultAppearance matches the editor's draw tool: a 100x100 red square
func DefaultAppearance() Appearance {
	return Appearance{
		Kind:   KindRect,
		Width:  100,
		Height: 100,
		Fill:   "#ff0000",
	}
}

// object is owned by a Scene; its track never leaves the package
type object struct {
	id         ObjectID
	name       string
	pose       anim.Transform
	track      *anim.Track
	appearance Appearance
}

// ObjectView is a read-only snapshot of an object
type ObjectView struct {
	ID         ObjectID
	Name       string
	Pose       anim.Transform
	Appearance Appearance
	Keyframes  int
}

func (o *object) view() ObjectView {
	return ObjectView{
		ID:         o.id,
		Name:       o.name,
		Pose:       o.pose,
		Appearance: o.appearance,
		Keyframes:  o.track.Len(),
	}
}
