package stream

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ivlev/animstage/internal/anim"
	"github.com/ivlev/animstage/internal/scene"
)

const (
	headerSize = 6
	poseSize   = 16 + 4*4
)

// ObjectPose is one object's pose inside a PoseFrame
type ObjectPose struct {
	ID   scene.ObjectID
	Pose anim.Transform
}

// PoseFrame is the pose of every object at one playback frame
type PoseFrame struct {
	Frame int
	Poses []ObjectPose
}

// NewPoseFrame snapshots the poses of objs
func NewPoseFrame(frame int, objs []scene.ObjectView) *PoseFrame {
	f := &PoseFrame{Frame: frame, Poses: make([]ObjectPose, len(objs))}
	for i, obj := range objs {
		f.Poses[i] = ObjectPose{ID: obj.ID, Pose: obj.Pose}
	}
	return f
}

// MarshalBinary converts a PoseFrame into little-endian binary data:
// uint32 frame, uint16 count, then per object a 16-byte id followed by
// x, y, scale and rotation as float32.
func (f *PoseFrame) MarshalBinary() (data []byte, err error) {
	if len(f.Poses) > math.MaxUint16 {
		return nil, fmt.Errorf("too many objects for one frame: %d", len(f.Poses))
	}

	data = make([]byte, headerSize, headerSize+len(f.Poses)*poseSize)
	binary.LittleEndian.PutUint32(data, uint32(f.Frame))
	binary.LittleEndian.PutUint16(data[4:], uint16(len(f.Poses)))

	for _, p := range f.Poses {
		data = append(data, p.ID[:]...)
		for _, v := range []float64{p.Pose.X, p.Pose.Y, p.Pose.Scale, p.Pose.Rotation} {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(float32(v)))
		}
	}

	return data, nil
}

// UnmarshalBinary reads a frame written by MarshalBinary
func (f *PoseFrame) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("short pose frame: %d bytes", len(data))
	}
	count := int(binary.LittleEndian.Uint16(data[4:]))
	if len(data) != headerSize+count*poseSize {
		return fmt.Errorf("pose frame of %d objects has %d bytes", count, len(data))
	}

	f.Frame = int(binary.LittleEndian.Uint32(data))
	f.Poses = make([]ObjectPose, count)

	for i := range f.Poses {
		rec := data[headerSize+i*poseSize:]
		copy(f.Poses[i].ID[:], rec[:16])
		field := func(n int) float64 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[16+4*n:])))
		}
		f.Poses[i].Pose = anim.Transform{X: field(0), Y: field(1), Scale: field(2), Rotation: field(3)}
	}
	return nil
}
