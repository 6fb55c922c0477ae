// Package ffmpeg streams raw frames into an ffmpeg child process over its
// stdin pipe. A full pipe blocks Push, which is how a slow encode throttles
// a fast generator.
package ffmpeg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/greenfx/greenfx/internal/domain"
	"github.com/greenfx/greenfx/internal/port"
)

var (
	ErrEmptyPath   = errors.New("empty path")
	ErrInvalidPath = errors.New("path contains null byte")
	ErrOutOfOrder  = errors.New("frame pushed out of sequence order")
	ErrClosed      = errors.New("encode session already finalized")
)

type Encoder struct {
	Width       int
	Height      int
	FPS         int
	CRF         int
	Preset      string
	Profile     string
	Level       string
	Tune        string
	PixelFormat string

	// Bin overrides the ffmpeg binary, for tests.
	Bin string
}

func NewEncoder(width, height, fps, crf int, preset, profile, level, tune, pixelFormat string) *Encoder {
	return &Encoder{
		Width:       width,
		Height:      height,
		FPS:         fps,
		CRF:         crf,
		Preset:      preset,
		Profile:     profile,
		Level:       level,
		Tune:        tune,
		PixelFormat: pixelFormat,
	}
}

func (e *Encoder) Open(outputPath string) (port.EncodeSession, error) {
	if err := validatePath(outputPath); err != nil {
		return nil, fmt.Errorf("invalid output path: %w", err)
	}

	bin := e.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.Command(bin, e.args(outputPath)...)

	stderr := &tailBuffer{limit: 4096}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open encoder stdin: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	return &session{
		cmd:        cmd,
		stdin:      stdin,
		stderr:     stderr,
		outputPath: outputPath,
		width:      e.Width,
		height:     e.Height,
	}, nil
}

func (e *Encoder) args(outputPath string) []string {
	return []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", e.Width, e.Height),
		"-framerate", fmt.Sprintf("%d", e.FPS),
		"-i", "-",
		"-an",
		"-c:v", "libx264",
		"-crf", fmt.Sprintf("%d", e.CRF),
		"-preset", e.Preset,
		"-profile:v", e.Profile,
		"-level:v", e.Level,
		"-tune", e.Tune,
		"-pix_fmt", e.PixelFormat,
		"-movflags", "+faststart",
		outputPath,
	}
}

type session struct {
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stderr     *tailBuffer
	outputPath string
	width      int
	height     int

	next   int
	closed bool
}

func (s *session) Push(frame *domain.Frame) error {
	if s.closed {
		return ErrClosed
	}
	if frame == nil || frame.Image == nil {
		return fmt.Errorf("nil frame")
	}
	if frame.Index != s.next {
		return fmt.Errorf("%w: got %d, want %d", ErrOutOfOrder, frame.Index, s.next)
	}
	b := frame.Image.Bounds()
	if b.Dx() != s.width || b.Dy() != s.height {
		return fmt.Errorf("frame %d is %dx%d, encoder expects %dx%d",
			frame.Index, b.Dx(), b.Dy(), s.width, s.height)
	}

	img := frame.Image
	rowBytes := s.width * 4
	if img.Stride == rowBytes {
		if _, err := s.stdin.Write(img.Pix); err != nil {
			return s.writeError(frame.Index, err)
		}
	} else {
		for y := 0; y < s.height; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+rowBytes]
			if _, err := s.stdin.Write(row); err != nil {
				return s.writeError(frame.Index, err)
			}
		}
	}

	s.next++
	return nil
}

func (s *session) writeError(index int, err error) error {
	return fmt.Errorf("write frame %d: %w%s", index, err, s.stderrSuffix())
}

func (s *session) Finalize() (string, int64, error) {
	if s.closed {
		return "", 0, ErrClosed
	}
	s.closed = true

	if err := s.stdin.Close(); err != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
		s.removePartial()
		return "", 0, fmt.Errorf("close encoder input: %w", err)
	}
	if err := s.cmd.Wait(); err != nil {
		s.removePartial()
		return "", 0, fmt.Errorf("ffmpeg: %w%s", err, s.stderrSuffix())
	}

	info, err := os.Stat(s.outputPath)
	if err != nil {
		return "", 0, fmt.Errorf("stat artifact: %w", err)
	}
	return s.outputPath, info.Size(), nil
}

func (s *session) Abort() {
	if s.closed {
		return
	}
	s.closed = true
	_ = s.stdin.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	s.removePartial()
}

// removePartial guarantees a failed encode never leaves a corrupt artifact
// behind.
func (s *session) removePartial() {
	_ = os.Remove(s.outputPath)
}

func (s *session) stderrSuffix() string {
	tail := strings.TrimSpace(s.stderr.String())
	if tail == "" {
		return ""
	}
	return "; ffmpeg output: " + tail
}

func validatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if strings.ContainsRune(path, 0) {
		return ErrInvalidPath
	}
	return nil
}

// tailBuffer keeps the last limit bytes written, enough to preserve the
// useful end of ffmpeg's stderr without growing unbounded.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

var _ port.FrameEncoder = (*Encoder)(nil)
