// Package model defines the shared data model for one execution: the
// immutable input snapshot and the derived render result.
package model

// Mode selects static (one image) or loop (video plus poster) execution.
type Mode string

const (
	ModeStatic Mode = "static"
	ModeLoop   Mode = "loop"
)

// VarSlots is the fixed size of the artist parameter vector.
const VarSlots = 10

// Snapshot is the complete input to one execution. It is immutable once
// execution starts; Normalize returns the canonical form instead of mutating.
//
// Seed is either a number (float64 after JSON decoding) or a string.
type Snapshot struct {
	Code        string    `json:"code"`
	Seed        any       `json:"seed"`
	Vars        []float64 `json:"vars"`
	Mode        Mode      `json:"mode"`
	TotalFrames int       `json:"totalFrames,omitempty"`
	FPS         float64   `json:"fps,omitempty"`
}

// RenderResult is the derived artifact of one execution. Exactly one of the
// image or video field sets is populated, by Mode. Never mutated after
// creation.
type RenderResult struct {
	Mode Mode `json:"mode"`

	ImageBytes []byte `json:"imageBytes,omitempty"`
	ImageHash  string `json:"imageHash,omitempty"`

	VideoBytes    []byte `json:"videoBytes,omitempty"`
	PosterBytes   []byte `json:"posterBytes,omitempty"`
	AnimationHash string `json:"animationHash,omitempty"`
	PosterHash    string `json:"posterHash,omitempty"`
}
