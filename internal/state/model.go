package state

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"
)

// Position is a point on the drawing surface, in surface pixels.
type Position struct{ X, Y float32 }

// Frame is one still image of the animation. An empty Buffer means the
// frame has never been drawn on.
type Frame struct {
	ID     int    `json:"id"`
	Buffer []byte `json:"buffer,omitempty"`
}

// Empty reports whether the frame carries no image data.
func (f Frame) Empty() bool { return len(f.Buffer) == 0 }

// Clone returns a copy that shares no memory with f.
func (f Frame) Clone() Frame {
	return Frame{ID: f.ID, Buffer: cloneBuffer(f.Buffer)}
}

// Equal compares id and buffer contents.
func (f Frame) Equal(o Frame) bool {
	return f.ID == o.ID && bytes.Equal(f.Buffer, o.Buffer)
}

func cloneBuffer(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

type ToolKind string

const (
	ToolMarker ToolKind = "marker"
	ToolEraser ToolKind = "eraser"
)

const (
	MinStrokeWidth = 1
	MaxStrokeWidth = 50

	MinFPS = 1
	MaxFPS = 60

	MinOnionOpacity = 0.1
	MaxOnionOpacity = 0.7
)

// ToolState is the active drawing tool.
type ToolState struct {
	Kind  ToolKind
	Width int
	Color color.NRGBA
}

// DefaultTool matches a fresh editor: a 5px black marker.
func DefaultTool() ToolState {
	return ToolState{Kind: ToolMarker, Width: 5, Color: color.NRGBA{A: 255}}
}

// Normalize clamps the width and falls back to the marker for unknown kinds.
func (t ToolState) Normalize() ToolState {
	if t.Kind != ToolEraser {
		t.Kind = ToolMarker
	}
	t.Width = ClampStrokeWidth(t.Width)
	return t
}

func ClampStrokeWidth(w int) int {
	if w < MinStrokeWidth {
		return MinStrokeWidth
	}
	if w > MaxStrokeWidth {
		return MaxStrokeWidth
	}
	return w
}

// PlaybackState describes the flip-book preview.
type PlaybackState struct {
	Running bool
	FPS     int
}

func ClampFPS(fps int) int {
	if fps < MinFPS {
		return MinFPS
	}
	if fps > MaxFPS {
		return MaxFPS
	}
	return fps
}

// OnionSkinSettings controls the ghost of the preceding frame.
type OnionSkinSettings struct {
	Enabled bool
	Opacity float64
}

func ClampOpacity(v float64) float64 {
	if v < MinOnionOpacity {
		return MinOnionOpacity
	}
	if v > MaxOnionOpacity {
		return MaxOnionOpacity
	}
	return v
}

// ContextMenuState is the frame-targeted menu. The zero value is dismissed.
type ContextMenuState struct {
	Visible  bool
	Anchor   Position
	TargetID int
}

type Direction int

const (
	Next Direction = iota
	Prev
)

type Placement int

const (
	Before Placement = iota
	After
)

func (p Placement) String() string {
	if p == Before {
		return "before"
	}
	return "after"
}

// ParseHexColor parses "#rrggbb" or "#rgb" into an opaque color.
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	c := color.NRGBA{A: 255}
	var err error
	switch len(s) {
	case 6:
		_, err = fmt.Sscanf(s, "%2x%2x%2x", &c.R, &c.G, &c.B)
	case 3:
		_, err = fmt.Sscanf(s, "%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R *= 17
		c.G *= 17
		c.B *= 17
	default:
		err = fmt.Errorf("invalid length %d", len(s))
	}
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return c, nil
}

// HexColor formats c as "#rrggbb".
func HexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
