package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/ivlev/animstage/internal/config"
)

// FrameSink receives rendered frames in order
type FrameSink interface {
	WriteFrame(img *image.RGBA) error
	// Close flushes the stream and fails if fewer frames than announced
	// were written.
	Close() error
	// Abort stops the stream and discards the partial output
	Abort() error
	Frames() int
}

type VideoEncoder interface {
	Open(ctx context.Context, path string, params config.ExportParams) (FrameSink, error)
}

// FFmpegEncoder streams raw RGBA frames into an ffmpeg process
type FFmpegEncoder struct {
	Codec   string
	Quality int
}

func (e *FFmpegEncoder) Open(ctx context.Context, path string, params config.ExportParams) (FrameSink, error) {
	if params.Width <= 0 || params.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", params.Width, params.Height)
	}
	if params.TotalFrames < 1 {
		return nil, fmt.Errorf("nothing to encode: %d frames", params.TotalFrames)
	}

	args := e.buildFFmpegArgs(path, params)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	sink := &ffmpegSink{cmd: cmd, path: path, params: params}
	cmd.Stdout = &sink.log
	cmd.Stderr = &sink.log

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	sink.stdin = stdin

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	return sink, nil
}

func (e *FFmpegEncoder) codec() string {
	if e.Codec == "" {
		return "libx264"
	}
	return e.Codec
}

func (e *FFmpegEncoder) buildFFmpegArgs(videoPath string, params config.ExportParams) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-i", "-",
	}
	if params.Filter != "" {
		args = append(args, "-vf", params.Filter)
	}
	args = append(args,
		"-frames:v", fmt.Sprintf("%d", params.TotalFrames),
		"-pix_fmt", "yuv420p",
		"-c:v", e.codec(),
	)

	// Quality switch depends on the encoder
	switch e.codec() {
	case "h264_videotoolbox":
		bitrate := e.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", e.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", e.Quality), "-preset", "medium")
	}

	args = append(args, videoPath)
	return args
}

type ffmpegSink struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	path   string
	params config.ExportParams
	log    bytes.Buffer
	frames int
	done   bool
}

func (s *ffmpegSink) WriteFrame(img *image.RGBA) error {
	if s.done {
		return fmt.Errorf("write to closed sink")
	}
	if b := img.Bounds(); b.Dx() != s.params.Width || b.Dy() != s.params.Height {
		return fmt.Errorf("frame %d is %dx%d, expected %dx%d", s.frames+1, b.Dx(), b.Dy(), s.params.Width, s.params.Height)
	}
	if s.frames >= s.params.TotalFrames {
		return fmt.Errorf("frame %d exceeds the announced %d frames", s.frames+1, s.params.TotalFrames)
	}
	if err := writeRawRGBA(s.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	s.frames++
	return nil
}

func (s *ffmpegSink) Frames() int {
	return s.frames
}

func (s *ffmpegSink) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.stdin.Close()

	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, tail(s.log.String()))
	}
	if s.frames != s.params.TotalFrames {
		return fmt.Errorf("wrote %d of %d frames", s.frames, s.params.TotalFrames)
	}
	return nil
}

func (s *ffmpegSink) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	s.stdin.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// tail keeps the last lines of the ffmpeg log for error messages
func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 8 {
		lines = lines[len(lines)-8:]
	}
	return strings.Join(lines, "\n")
}
