// Package frames orchestrates static and loop execution: it drives the
// execution context frame by frame, captures raster bytes, and for loop mode
// streams frames through an external video encoder.
package frames

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lumen.art/node/canon"
	"lumen.art/node/model"
	"lumen.art/node/rng"
	"lumen.art/node/sketch"
	"lumen.art/node/surface"
)

// State tracks sequencer progress. Transitions are linear:
// Init -> Setup -> {StaticFrame | LoopFrame xN} -> Encode (loop) -> Done,
// with any failure landing in Failed.
type State int

const (
	StateInit State = iota
	StateSetup
	StateStaticFrame
	StateLoopFrame
	StateEncode
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSetup:
		return "setup"
	case StateStaticFrame:
		return "static-frame"
	case StateLoopFrame:
		return "loop-frame"
	case StateEncode:
		return "encode"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultFPS applies when a loop snapshot does not specify a frame rate.
const DefaultFPS = 30

// Config holds the sequencer's environment. The zero value uses the system
// temp directory, the ffmpeg encoder, and the default execution timeout.
type Config struct {
	ScratchRoot string
	Encoder     Encoder
	Timeout     time.Duration
}

// Sequencer runs one snapshot to completion. One Sequencer per request.
type Sequencer struct {
	cfg   Config
	state State
}

func NewSequencer(cfg Config) *Sequencer {
	if cfg.Encoder == nil {
		cfg.Encoder = FFmpeg{}
	}
	return &Sequencer{cfg: cfg}
}

// State reports the last state reached, for logging and diagnostics.
func (s *Sequencer) State() State { return s.state }

// Run executes the snapshot and returns its render result. Loop precondition
// failures are reported before any frame work begins; a scratch directory, if
// allocated, is always removed.
func (s *Sequencer) Run(ctx context.Context, snap model.Snapshot) (*model.RenderResult, error) {
	s.state = StateInit

	fps := snap.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	if snap.Mode == model.ModeLoop && snap.TotalFrames < 2 {
		s.state = StateFailed
		return nil, &LoopError{Reason: fmt.Sprintf("totalFrames must be at least 2, got %d", snap.TotalFrames)}
	}

	env := sketch.Env{
		Canvas:      surface.New(),
		Stream:      seedStream(snap.Seed),
		Vars:        model.NormalizeVars(snap.Vars),
		TotalFrames: snap.TotalFrames,
		FPS:         fps,
	}
	sc, err := sketch.New(snap.Code, env, s.cfg.Timeout)
	if err != nil {
		s.state = StateFailed
		return nil, err
	}
	if snap.Mode == model.ModeLoop && !sc.HasDraw() {
		s.state = StateFailed
		return nil, &LoopError{Reason: "artist code defines no draw function"}
	}

	s.state = StateSetup
	if err := sc.RunSetup(); err != nil {
		s.state = StateFailed
		return nil, err
	}

	var res *model.RenderResult
	if snap.Mode == model.ModeLoop {
		res, err = s.runLoop(ctx, sc, env.Canvas, snap.TotalFrames, fps)
	} else {
		res, err = s.runStatic(sc, env.Canvas)
	}
	if err != nil {
		s.state = StateFailed
		return nil, err
	}
	s.state = StateDone
	return res, nil
}

func (s *Sequencer) runStatic(sc *sketch.Context, cv *surface.Canvas) (*model.RenderResult, error) {
	s.state = StateStaticFrame
	if sc.HasDraw() {
		if err := sc.RunDraw(0); err != nil {
			return nil, err
		}
	}
	img, err := cv.PNG()
	if err != nil {
		return nil, err
	}
	return &model.RenderResult{
		Mode:       model.ModeStatic,
		ImageBytes: img,
		ImageHash:  canon.SHA256Hex(img),
	}, nil
}

func (s *Sequencer) runLoop(ctx context.Context, sc *sketch.Context, cv *surface.Canvas, totalFrames int, fps float64) (*model.RenderResult, error) {
	dir, err := os.MkdirTemp(s.cfg.ScratchRoot, "lumen-render-")
	if err != nil {
		return nil, fmt.Errorf("frames: scratch directory: %w", err)
	}
	// Scoped resource: the scratch directory never outlives the request,
	// success or failure.
	defer os.RemoveAll(dir)

	var poster []byte
	s.state = StateLoopFrame
	for frame := 0; frame < totalFrames; frame++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := sc.RunDraw(frame); err != nil {
			return nil, err
		}
		img, err := cv.PNG()
		if err != nil {
			return nil, err
		}
		name := filepath.Join(dir, fmt.Sprintf(framePattern, frame))
		if err := os.WriteFile(name, img, 0o644); err != nil {
			return nil, err
		}
		if frame == 0 {
			poster = img
		}
	}

	s.state = StateEncode
	outPath := filepath.Join(dir, "out.mp4")
	if err := s.cfg.Encoder.Encode(ctx, dir, fps, outPath); err != nil {
		return nil, err
	}
	video, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("frames: reading encoded video: %w", err)
	}

	return &model.RenderResult{
		Mode:          model.ModeLoop,
		VideoBytes:    video,
		PosterBytes:   poster,
		AnimationHash: canon.SHA256Hex(video),
		PosterHash:    canon.SHA256Hex(poster),
	}, nil
}

// seedStream builds the seeded stream from a snapshot seed, which is either
// numeric or a string. Anything else seeds to zero.
func seedStream(seed any) *rng.Stream {
	switch v := seed.(type) {
	case string:
		return rng.NewFromString(v)
	case float64:
		return rng.NewFromNumber(v)
	case int:
		return rng.NewFromNumber(float64(v))
	case int64:
		return rng.NewFromNumber(float64(v))
	case uint32:
		return rng.New(v)
	default:
		return rng.New(0)
	}
}

// IsFatal reports whether err belongs to the execution error taxonomy, as
// opposed to a context cancellation from the caller.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
