package frames

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
)

// framePattern is the numbered frame file layout inside a scratch directory.
const framePattern = "frame-%05d.png"

// Encoder turns a directory of numbered frames into video bytes. The encoder
// is the one external-process boundary of a render: it blocks until done and
// its failure is terminal for the request.
type Encoder interface {
	Encode(ctx context.Context, framesDir string, fps float64, outPath string) error
}

// FFmpeg encodes with an external ffmpeg binary at a fixed codec,
// pixel format, and profile. Only the frame rate is caller-supplied; the rest
// is pinned by the protocol so encoders agree across nodes.
type FFmpeg struct {
	// Path overrides the binary location; empty means "ffmpeg" on PATH.
	Path string
}

func (f FFmpeg) Encode(ctx context.Context, framesDir string, fps float64, outPath string) error {
	bin := f.Path
	if bin == "" {
		bin = "ffmpeg"
	}
	args := []string{
		"-y",
		"-framerate", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", filepath.Join(framesDir, framePattern),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-profile:v", "high",
		"-crf", "18",
		"-movflags", "+faststart",
		outPath,
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &EncodeError{Err: err, Stderr: tail(stderr.String(), 2048)}
	}
	return nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
