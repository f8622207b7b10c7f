// Package scene holds the animatable objects of a stage together with
// their keyframe tracks. A Scene is owned by one host and is not safe for
// concurrent use; playback and editing run on the same goroutine.
package scene

import (
	"errors"
	"fmt"

	"github.com/ivlev/animstage/internal/anim"
)

var (
	// ErrInvalidReference is returned for operations on an unknown object id
	ErrInvalidReference = errors.New("invalid object reference")
	// ErrInvalidArgument is returned for non-positive frame numbers or lengths
	ErrInvalidArgument = errors.New("invalid argument")
)

// Scene is the unit of mutation for the editor and of playback for the clock
type Scene struct {
	objects     []*object
	byID        map[ObjectID]*object
	totalFrames int
}

// New creates an empty scene with the given length in frames
func New(totalFrames int) (*Scene, error) {
	if totalFrames < 1 {
		return nil, fmt.Errorf("total frames %d: %w", totalFrames, ErrInvalidArgument)
	}
	return &Scene{
		byID:        make(map[ObjectID]*object),
		totalFrames: totalFrames,
	}, nil
}

// TotalFrames returns the playback length
func (s *Scene) TotalFrames() int {
	return s.totalFrames
}

// SetTotalFrames changes the playback length. Keyframes past the new end
// are kept; they are simply unreachable until the scene grows again.
func (s *Scene) SetTotalFrames(n int) error {
	if n < 1 {
		return fmt.Errorf("total frames %d: %w", n, ErrInvalidArgument)
	}
	s.totalFrames = n
	return nil
}

// Len returns the number of objects
func (s *Scene) Len() int {
	return len(s.objects)
}

// AddObject appends an object with an empty track and returns its id
func (s *Scene) AddObject(initialPose anim.Transform, displayName string) ObjectID {
	obj := &object{
		id:         newObjectID(),
		name:       displayName,
		pose:       initialPose,
		track:      anim.NewTrack(),
		appearance: DefaultAppearance(),
	}
	s.objects = append(s.objects, obj)
	s.byID[obj.id] = obj
	return obj.id
}

// RemoveObject deletes an object and its track
func (s *Scene) RemoveObject(id ObjectID) error {
	if _, err := s.lookup(id); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	delete(s.byID, id)
	for i, o := range s.objects {
		if o.id == id {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			break
		}
	}
	return nil
}

// Object returns a snapshot of one object
func (s *Scene) Object(id ObjectID) (ObjectView, error) {
	obj, err := s.lookup(id)
	if err != nil {
		return ObjectView{}, err
	}
	return obj.view(), nil
}

// Objects returns snapshots of all objects in creation order
func (s *Scene) Objects() []ObjectView {
	out := make([]ObjectView, len(s.objects))
	for i, o := range s.objects {
		out[i] = o.view()
	}
	return out
}

// Pose returns the live pose of an object
func (s *Scene) Pose(id ObjectID) (anim.Transform, error) {
	obj, err := s.lookup(id)
	if err != nil {
		return anim.Transform{}, err
	}
	return obj.pose, nil
}

// SetPose replaces the live pose, as a move/scale/rotate tool does
func (s *Scene) SetPose(id ObjectID, pose anim.Transform) error {
	obj, err := s.lookup(id)
	if err != nil {
		return fmt.Errorf("set pose: %w", err)
	}
	obj.pose = pose
	return nil
}

// SetAppearance replaces the render attributes of an object
func (s *Scene) SetAppearance(id ObjectID, a Appearance) error {
	obj, err := s.lookup(id)
	if err != nil {
		return fmt.Errorf("set appearance: %w", err)
	}
	if a.Width <= 0 || a.Height <= 0 {
		return fmt.Errorf("appearance size %.2fx%.2f: %w", a.Width, a.Height, ErrInvalidArgument)
	}
	obj.appearance = a
	return nil
}

// SetEasing selects the interpolation curve of an object's track
func (s *Scene) SetEasing(id ObjectID, name string) error {
	obj, err := s.lookup(id)
	if err != nil {
		return fmt.Errorf("set easing: %w", err)
	}
	if err := obj.track.SetEasing(name); err != nil {
		return fmt.Errorf("set easing: %w: %w", ErrInvalidArgument, err)
	}
	return nil
}

// Easing returns the name of an object's interpolation curve
func (s *Scene) Easing(id ObjectID) (string, error) {
	obj, err := s.lookup(id)
	if err != nil {
		return "", err
	}
	return obj.track.EasingName(), nil
}

// RecordKeyframe captures the object's live pose at frame, replacing any
// keyframe already there.
func (s *Scene) RecordKeyframe(id ObjectID, frame int) error {
	if frame < 1 {
		return fmt.Errorf("record keyframe at frame %d: %w", frame, ErrInvalidArgument)
	}
	obj, err := s.lookup(id)
	if err != nil {
		return fmt.Errorf("record keyframe: %w", err)
	}
	obj.track.Set(frame, obj.pose)
	return nil
}

// RemoveKeyframe deletes the keyframe at frame. Removing a frame that
// carries no keyframe is not an error.
func (s *Scene) RemoveKeyframe(id ObjectID, frame int) error {
	obj, err := s.lookup(id)
	if err != nil {
		return fmt.Errorf("remove keyframe: %w", err)
	}
	obj.track.Delete(frame)
	return nil
}

// Keyframes returns the keyframed frame numbers of an object, ascending
func (s *Scene) Keyframes(id ObjectID) ([]int, error) {
	obj, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return obj.track.FrameNumbers(), nil
}

// Keyframe returns the pose stored at exactly frame
func (s *Scene) Keyframe(id ObjectID, frame int) (anim.Transform, bool, error) {
	obj, err := s.lookup(id)
	if err != nil {
		return anim.Transform{}, false, err
	}
	pose, ok := obj.track.Get(frame)
	return pose, ok, nil
}

// PoseAt resolves every object at frame without touching live poses
func (s *Scene) PoseAt(frame int) map[ObjectID]anim.Transform {
	out := make(map[ObjectID]anim.Transform, len(s.objects))
	for _, o := range s.objects {
		out[o.id] = o.track.Resolve(frame, o.pose)
	}
	return out
}

// ApplyFrame resolves every object at frame and commits the result as its
// live pose.
func (s *Scene) ApplyFrame(frame int) {
	for _, o := range s.objects {
		o.pose = o.track.Resolve(frame, o.pose)
	}
}

func (s *Scene) lookup(id ObjectID) (*object, error) {
	obj, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", id, ErrInvalidReference)
	}
	return obj, nil
}
