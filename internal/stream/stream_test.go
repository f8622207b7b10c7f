package stream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ivlev/animstage/internal/anim"
	"github.com/ivlev/animstage/internal/scene"
)

func testViews(t *testing.T) []scene.ObjectView {
	t.Helper()
	sc, err := scene.New(10)
	if err != nil {
		t.Fatal(err)
	}
	sc.AddObject(anim.Transform{X: 1.5, Y: -2, Scale: 1, Rotation: 350}, "a")
	sc.AddObject(anim.Identity(), "b")
	return sc.Objects()
}

func TestPoseFrameLayout(t *testing.T) {
	views := testViews(t)
	data, err := NewPoseFrame(7, views).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	if len(data) != 6+2*32 {
		t.Fatalf("Expected %d bytes, got %d", 6+2*32, len(data))
	}
	if got := binary.LittleEndian.Uint32(data); got != 7 {
		t.Errorf("Frame: expected 7, got %d", got)
	}
	if got := binary.LittleEndian.Uint16(data[4:]); got != 2 {
		t.Errorf("Count: expected 2, got %d", got)
	}
	if !bytes.Equal(data[6:22], views[0].ID[:]) {
		t.Errorf("First id mismatch")
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(data[22+12:])); got != 350 {
		t.Errorf("First rotation: expected 350, got %f", got)
	}

	var back PoseFrame
	if err := back.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if back.Frame != 7 || len(back.Poses) != 2 || back.Poses[0].Pose != views[0].Pose || back.Poses[1].ID != views[1].ID {
		t.Errorf("Unexpected decoded frame: %+v", back)
	}
}

func TestPoseFrameRejectsTruncated(t *testing.T) {
	data, _ := NewPoseFrame(1, testViews(t)).MarshalBinary()

	var f PoseFrame
	if err := f.UnmarshalBinary(data[:len(data)-1]); err == nil {
		t.Error("Expected error for truncated data")
	}
	if err := f.UnmarshalBinary(data[:3]); err == nil {
		t.Error("Expected error for a short header")
	}
}

type fakeToken struct {
	mqtt.Token
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

type fakeClient struct {
	mqtt.Client
	topics       []string
	payloads     [][]byte
	err          error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload.([]byte))
	return &fakeToken{err: c.err}
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.disconnected = true
}

func TestMQTTPublisher(t *testing.T) {
	client := &fakeClient{}
	p := NewMQTTPublisher(client, "animstage/poses")

	views := testViews(t)
	for frame := 1; frame <= 3; frame++ {
		if err := p.PublishFrame(frame, views); err != nil {
			t.Fatalf("PublishFrame failed: %v", err)
		}
	}

	if len(client.payloads) != 3 || client.topics[0] != "animstage/poses" {
		t.Fatalf("Expected 3 messages on animstage/poses, got %d on %v", len(client.payloads), client.topics)
	}
	var f PoseFrame
	if err := f.UnmarshalBinary(client.payloads[2]); err != nil || f.Frame != 3 {
		t.Errorf("Unexpected last message: frame %d, err %v", f.Frame, err)
	}

	client.err = errors.New("broker gone")
	if err := p.PublishFrame(4, views); err == nil {
		t.Error("Expected publish error to be returned")
	}

	p.Close()
	if !client.disconnected {
		t.Error("Close must disconnect")
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.PublishFrame(1, nil); err != nil {
		t.Error(err)
	}
	if err := p.Close(); err != nil {
		t.Error(err)
	}
}
