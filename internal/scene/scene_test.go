package scene

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ivlev/animstage/internal/anim"
)

func newScene(t *testing.T, frames int) *Scene {
	t.Helper()
	s, err := New(frames)
	if err != nil {
		t.Fatalf("New(%d) failed: %v", frames, err)
	}
	return s
}

func TestNewRejectsNonPositiveLength(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := New(n); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("New(%d): expected ErrInvalidArgument, got %v", n, err)
		}
	}
}

func TestInterpolatedMoveScenario(t *testing.T) {
	s := newScene(t, 30)
	id := s.AddObject(anim.Identity(), "rect 0")

	if err := s.RecordKeyframe(id, 1); err != nil {
		t.Fatalf("RecordKeyframe(1) failed: %v", err)
	}
	if err := s.SetPose(id, anim.Transform{X: 100, Y: 0, Scale: 1, Rotation: 0}); err != nil {
		t.Fatalf("SetPose failed: %v", err)
	}
	if err := s.RecordKeyframe(id, 10); err != nil {
		t.Fatalf("RecordKeyframe(10) failed: %v", err)
	}

	got := s.PoseAt(5)[id]

	// Keyframes at 1 and 10 put frame 5 at t=(5-1)/(10-1).
	wantX := 100.0 * 4.0 / 9.0
	if math.Abs(got.X-wantX) > 1e-9 {
		t.Errorf("PoseAt(5).X: expected %f, got %f", wantX, got.X)
	}
	if got.Y != 0 || got.Scale != 1 || got.Rotation != 0 {
		t.Errorf("PoseAt(5): unexpected pose %v", got)
	}
}

func TestInterpolatedMoveScenarioAlignedFrames(t *testing.T) {
	s := newScene(t, 30)
	id := s.AddObject(anim.Identity(), "rect 0")

	// Frame 5 sits exactly halfway between 1 and 9.
	mustRecord(t, s, id, 1)
	mustSetPose(t, s, id, anim.Transform{X: 100, Scale: 1})
	mustRecord(t, s, id, 9)

	got := s.PoseAt(5)[id]
	if got != (anim.Transform{X: 50, Y: 0, Scale: 1, Rotation: 0}) {
		t.Errorf("PoseAt(5): expected {x:50 y:0 scale:1 rot:0}, got %v", got)
	}
}

func TestRotationScenarioLongWay(t *testing.T) {
	s := newScene(t, 30)
	id := s.AddObject(anim.Identity(), "rect 0")

	mustRecord(t, s, id, 1)
	mustSetPose(t, s, id, anim.Transform{X: 100, Scale: 1})
	mustRecord(t, s, id, 10)

	// Overwrites the keyframe at 10 with rotation 350.
	mustSetPose(t, s, id, anim.Transform{X: 100, Scale: 1, Rotation: 350})
	mustRecord(t, s, id, 10)
	mustSetPose(t, s, id, anim.Transform{X: 100, Scale: 1, Rotation: 10})
	mustRecord(t, s, id, 20)

	got := s.PoseAt(15)[id]
	if math.Abs(got.Rotation-180) > 1e-9 {
		t.Errorf("PoseAt(15).Rotation: expected 180, got %f", got.Rotation)
	}

	frames, _ := s.Keyframes(id)
	if want := []int{1, 10, 20}; !reflect.DeepEqual(frames, want) {
		t.Errorf("Expected keyframes %v, got %v", want, frames)
	}
}

func TestRecordKeyframeIdempotent(t *testing.T) {
	once := newScene(t, 10)
	twice := newScene(t, 10)
	pose := anim.Transform{X: 3, Y: 4, Scale: 2, Rotation: 30}

	a := once.AddObject(pose, "a")
	b := twice.AddObject(pose, "b")

	mustRecord(t, once, a, 4)
	mustRecord(t, twice, b, 4)
	mustRecord(t, twice, b, 4)

	fa, _ := once.Keyframes(a)
	fb, _ := twice.Keyframes(b)
	if !reflect.DeepEqual(fa, fb) {
		t.Errorf("Keyframe sets differ: %v vs %v", fa, fb)
	}
	ka, _, _ := once.Keyframe(a, 4)
	kb, _, _ := twice.Keyframe(b, 4)
	if ka != kb {
		t.Errorf("Keyframe poses differ: %v vs %v", ka, kb)
	}
}

func TestRecordKeyframeErrors(t *testing.T) {
	s := newScene(t, 10)
	id := s.AddObject(anim.Identity(), "a")

	if err := s.RecordKeyframe(id, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Frame 0: expected ErrInvalidArgument, got %v", err)
	}
	if err := s.RecordKeyframe(id, -3); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Frame -3: expected ErrInvalidArgument, got %v", err)
	}

	unknown := newObjectID()
	if err := s.RecordKeyframe(unknown, 1); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("Unknown id: expected ErrInvalidReference, got %v", err)
	}

	if frames, _ := s.Keyframes(id); len(frames) != 0 {
		t.Errorf("Rejected edits must not write keyframes, got %v", frames)
	}
}

func TestRecordKeyframeBeyondTotalFrames(t *testing.T) {
	s := newScene(t, 30)
	id := s.AddObject(anim.Identity(), "a")

	if err := s.RecordKeyframe(id, 500); err != nil {
		t.Fatalf("Keyframe past the end must be accepted, got %v", err)
	}
	if err := s.SetTotalFrames(10); err != nil {
		t.Fatalf("SetTotalFrames failed: %v", err)
	}
	if frames, _ := s.Keyframes(id); !reflect.DeepEqual(frames, []int{500}) {
		t.Errorf("Shrinking the scene must not prune keyframes, got %v", frames)
	}
}

func TestSetTotalFramesRejectsNonPositive(t *testing.T) {
	s := newScene(t, 24)

	for _, n := range []int{0, -5} {
		if err := s.SetTotalFrames(n); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("SetTotalFrames(%d): expected ErrInvalidArgument, got %v", n, err)
		}
		if s.TotalFrames() != 24 {
			t.Errorf("Rejected SetTotalFrames(%d) changed length to %d", n, s.TotalFrames())
		}
	}

	if err := s.SetTotalFrames(48); err != nil || s.TotalFrames() != 48 {
		t.Errorf("SetTotalFrames(48): err=%v total=%d", err, s.TotalFrames())
	}
}

func TestPoseAtDoesNotMutate(t *testing.T) {
	s := newScene(t, 20)
	id := s.AddObject(anim.Identity(), "a")
	mustRecord(t, s, id, 1)
	mustSetPose(t, s, id, anim.Transform{X: 90, Scale: 1})
	mustRecord(t, s, id, 10)

	before, _ := s.Pose(id)
	_ = s.PoseAt(4)
	after, _ := s.Pose(id)
	if before != after {
		t.Errorf("PoseAt mutated live pose: %v -> %v", before, after)
	}

	s.ApplyFrame(4)
	applied, _ := s.Pose(id)
	if math.Abs(applied.X-30) > 1e-9 {
		t.Errorf("ApplyFrame(4): expected X=30, got %f", applied.X)
	}
}

func TestPoseAtEmptyTrackUsesLivePose(t *testing.T) {
	s := newScene(t, 5)
	pose := anim.Transform{X: 12, Y: 34, Scale: 1, Rotation: 45}
	id := s.AddObject(pose, "static")

	for _, frame := range []int{-1, 0, 1, 5, 99} {
		if got := s.PoseAt(frame)[id]; got != pose {
			t.Errorf("PoseAt(%d): expected %v, got %v", frame, pose, got)
		}
	}
	s.ApplyFrame(3)
	if got, _ := s.Pose(id); got != pose {
		t.Errorf("ApplyFrame changed an object without keyframes: %v", got)
	}
}

func TestObjectsKeepCreationOrder(t *testing.T) {
	s := newScene(t, 5)
	names := []string{"rect 0", "image 1", "rect 2"}
	ids := make([]ObjectID, len(names))
	for i, n := range names {
		ids[i] = s.AddObject(anim.Identity(), n)
	}

	views := s.Objects()
	for i, v := range views {
		if v.Name != names[i] || v.ID != ids[i] {
			t.Errorf("Object %d: expected %s/%s, got %s/%s", i, names[i], ids[i], v.Name, v.ID)
		}
	}

	if err := s.RemoveObject(ids[1]); err != nil {
		t.Fatalf("RemoveObject failed: %v", err)
	}
	views = s.Objects()
	if len(views) != 2 || views[0].ID != ids[0] || views[1].ID != ids[2] {
		t.Errorf("Unexpected objects after removal: %+v", views)
	}
	if err := s.RemoveObject(ids[1]); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("Second removal: expected ErrInvalidReference, got %v", err)
	}
	if _, err := s.Pose(ids[1]); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("Pose of removed object: expected ErrInvalidReference, got %v", err)
	}
}

func TestAppearanceAndEasing(t *testing.T) {
	s := newScene(t, 5)
	id := s.AddObject(anim.Identity(), "a")

	view, _ := s.Object(id)
	if view.Appearance != DefaultAppearance() {
		t.Errorf("Expected default appearance, got %+v", view.Appearance)
	}

	img := Appearance{Kind: KindImage, Width: 64, Height: 32, Asset: "logo.png"}
	if err := s.SetAppearance(id, img); err != nil {
		t.Fatalf("SetAppearance failed: %v", err)
	}
	if err := s.SetAppearance(id, Appearance{Kind: KindRect}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Zero size: expected ErrInvalidArgument, got %v", err)
	}
	if view, _ := s.Object(id); view.Appearance != img {
		t.Errorf("Rejected appearance replaced the previous one: %+v", view.Appearance)
	}

	if err := s.SetEasing(id, "out-quad"); err != nil {
		t.Fatalf("SetEasing failed: %v", err)
	}
	if err := s.SetEasing(id, "nope"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Unknown easing: expected ErrInvalidArgument, got %v", err)
	}
	if err := s.SetEasing(id, "nope"); !errors.Is(err, anim.ErrUnknownEasing) {
		t.Errorf("Unknown easing: expected anim.ErrUnknownEasing in the chain, got %v", err)
	}
	if name, _ := s.Easing(id); name != "out-quad" {
		t.Errorf("Expected easing out-quad, got %s", name)
	}
}

func TestRemoveKeyframe(t *testing.T) {
	s := newScene(t, 10)
	id := s.AddObject(anim.Identity(), "a")
	mustRecord(t, s, id, 2)
	mustRecord(t, s, id, 6)

	if err := s.RemoveKeyframe(id, 2); err != nil {
		t.Fatalf("RemoveKeyframe failed: %v", err)
	}
	if err := s.RemoveKeyframe(id, 3); err != nil {
		t.Errorf("Removing an empty frame should succeed, got %v", err)
	}
	if frames, _ := s.Keyframes(id); !reflect.DeepEqual(frames, []int{6}) {
		t.Errorf("Expected [6], got %v", frames)
	}
}

func TestParseObjectID(t *testing.T) {
	s := newScene(t, 1)
	id := s.AddObject(anim.Identity(), "a")

	parsed, err := ParseObjectID(id.String())
	if err != nil || parsed != id {
		t.Errorf("ParseObjectID(%s) = %s, %v", id, parsed, err)
	}
	if _, err := ParseObjectID("not-a-uuid"); err == nil {
		t.Error("Expected parse error")
	}
}

func mustRecord(t *testing.T, s *Scene, id ObjectID, frame int) {
	t.Helper()
	if err := s.RecordKeyframe(id, frame); err != nil {
		t.Fatalf("RecordKeyframe(%d) failed: %v", frame, err)
	}
}

func mustSetPose(t *testing.T, s *Scene, id ObjectID, pose anim.Transform) {
	t.Helper()
	if err := s.SetPose(id, pose); err != nil {
		t.Fatalf("SetPose failed: %v", err)
	}
}
