// Package surface is the raster drawing surface the editor paints on. It
// keeps two layers: the interactive frame layer that strokes land on, and
// a non-interactive ghost layer used for the onion skin.
package surface

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"FrameStudio/internal/state"

	"github.com/gogpu/gg"
	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
)

// BlendMode is how live stroke pixels combine with what is already there.
type BlendMode int

const (
	// BlendNormal paints over existing pixels (source-over).
	BlendNormal BlendMode = iota
	// BlendErase punches transparency through existing pixels
	// (destination-out).
	BlendErase
)

func (m BlendMode) String() string {
	if m == BlendErase {
		return "destination-out"
	}
	return "source-over"
}

func blendFor(k state.ToolKind) BlendMode {
	if k == state.ToolEraser {
		return BlendErase
	}
	return BlendNormal
}

// Surface wraps the gg contexts backing one editor canvas.
type Surface struct {
	width, height int

	dc      *gg.Context // frame layer
	ghost   *gg.Context // onion skin layer
	scratch *gg.Context // eraser coverage

	tool  state.ToolState
	blend BlendMode

	path     []state.Position
	stroking bool

	log zerolog.Logger
}

// New creates a transparent surface of the given size.
func New(width, height int, log zerolog.Logger) *Surface {
	s := &Surface{
		width:   width,
		height:  height,
		dc:      gg.NewContext(width, height),
		ghost:   gg.NewContext(width, height),
		scratch: gg.NewContext(width, height),
		log:     log,
	}
	s.SetTool(state.DefaultTool())
	s.dc.Clear()
	s.ghost.Clear()
	return s
}

func (s *Surface) Size() (int, int) { return s.width, s.height }

// SetTool changes the active tool; the blend mode follows the tool kind.
func (s *Surface) SetTool(t state.ToolState) {
	s.tool = t.Normalize()
	s.blend = blendFor(s.tool.Kind)
}

func (s *Surface) Tool() state.ToolState { return s.tool }

// BlendMode is the mode live drawing currently uses.
func (s *Surface) BlendMode() BlendMode { return s.blend }

// Stroking reports whether a stroke has begun and not yet ended.
func (s *Surface) Stroking() bool { return s.stroking }

// BeginStroke starts a new path and paints its first dab.
func (s *Surface) BeginStroke(p state.Position) {
	s.path = append(s.path[:0], p)
	s.stroking = true
	s.paint(p, p)
}

// ExtendStroke adds a point and paints the segment leading to it.
func (s *Surface) ExtendStroke(p state.Position) {
	if !s.stroking {
		return
	}
	prev := s.path[len(s.path)-1]
	s.path = append(s.path, p)
	s.paint(prev, p)
}

// EndStroke finishes the path and returns the rasterized frame layer.
// Rasterizing always happens in normal blend so the buffer holds the final
// pixels; the tool's blend mode is restored afterwards.
func (s *Surface) EndStroke() ([]byte, error) {
	if !s.stroking {
		return nil, fmt.Errorf("end stroke: no stroke in progress")
	}
	s.stroking = false
	points := len(s.path)
	s.path = s.path[:0]

	restore := s.blend
	s.blend = BlendNormal
	buf, err := s.Rasterize()
	s.blend = restore
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int("points", points).Str("tool", string(s.tool.Kind)).Int("bytes", len(buf)).Msg("stroke committed")
	return buf, nil
}

// CancelStroke drops the path without committing it. Pixels already
// painted stay until the next Clear or Load.
func (s *Surface) CancelStroke() {
	s.stroking = false
	s.path = s.path[:0]
}

// Clear makes the frame layer fully transparent.
func (s *Surface) Clear() {
	s.dc.Clear()
}

// Rasterize encodes the frame layer as PNG.
func (s *Surface) Rasterize() ([]byte, error) {
	_ = s.dc.FlushGPU()
	var buf bytes.Buffer
	if err := s.dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	return buf.Bytes(), nil
}

// Load replaces the frame layer with a decoded frame buffer, drawn in
// normal blend whatever the active tool is. An empty buffer just clears.
// On a DecodeError the layer is left cleared.
func (s *Surface) Load(id int, buf []byte) error {
	s.dc.Clear()
	if len(buf) == 0 {
		return nil
	}
	img, err := DecodePNG(id, buf)
	if err != nil {
		return err
	}

	restore := s.blend
	s.blend = BlendNormal
	defer func() { s.blend = restore }()

	rgba := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	if img.Bounds().Dx() == s.width && img.Bounds().Dy() == s.height {
		xdraw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, xdraw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(rgba, rgba.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	}
	copy(s.dc.ResizeTarget().Data(), rgba.Pix)
	return nil
}

// CompositeExternal draws a frame buffer onto the ghost layer at the given
// opacity. It is only used for the onion skin and never applies the tool's
// blend mode.
func (s *Surface) CompositeExternal(id int, buf []byte, opacity float64) error {
	img, err := DecodePNG(id, buf)
	if err != nil {
		return err
	}
	s.ghost.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		DstWidth:  float64(s.width),
		DstHeight: float64(s.height),
		Opacity:   opacity,
		BlendMode: gg.BlendNormal,
	})
	return nil
}

// ClearOverlay empties the ghost layer.
func (s *Surface) ClearOverlay() {
	s.ghost.Clear()
}

// Image is a snapshot of the frame layer.
func (s *Surface) Image() image.Image {
	_ = s.dc.FlushGPU()
	return s.dc.Image()
}

// Overlay is a snapshot of the ghost layer.
func (s *Surface) Overlay() image.Image {
	_ = s.ghost.FlushGPU()
	return s.ghost.Image()
}

// Close releases the gg contexts.
func (s *Surface) Close() error {
	for _, c := range []*gg.Context{s.dc, s.ghost, s.scratch} {
		if err := c.Close(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Surface) paint(from, to state.Position) {
	switch s.blend {
	case BlendErase:
		s.scratch.Clear()
		s.strokeSegment(s.scratch, from, to, color.White)
		s.punch(from, to)
	default:
		s.strokeSegment(s.dc, from, to, s.tool.Color)
	}
}

func (s *Surface) strokeSegment(dc *gg.Context, from, to state.Position, c color.Color) {
	w := float64(s.tool.Width)
	dc.SetColor(c)
	if from == to {
		dc.DrawCircle(float64(from.X), float64(from.Y), w/2)
		if err := dc.Fill(); err != nil {
			s.log.Warn().Err(err).Msg("fill dab")
		}
		return
	}
	dc.SetLineWidth(w)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	dc.MoveTo(float64(from.X), float64(from.Y))
	dc.LineTo(float64(to.X), float64(to.Y))
	if err := dc.Stroke(); err != nil {
		s.log.Warn().Err(err).Msg("stroke segment")
	}
}

// punch applies destination-out using the scratch layer's alpha as
// coverage. Pixmap data is premultiplied, so every channel scales.
func (s *Surface) punch(from, to state.Position) {
	_ = s.scratch.FlushGPU()
	dst := s.dc.ResizeTarget().Data()
	mask := s.scratch.ResizeTarget().Data()

	pad := float64(s.tool.Width)/2 + 2
	x0 := clampInt(int(math.Floor(math.Min(float64(from.X), float64(to.X))-pad)), 0, s.width)
	x1 := clampInt(int(math.Ceil(math.Max(float64(from.X), float64(to.X))+pad)), 0, s.width)
	y0 := clampInt(int(math.Floor(math.Min(float64(from.Y), float64(to.Y))-pad)), 0, s.height)
	y1 := clampInt(int(math.Ceil(math.Max(float64(from.Y), float64(to.Y))+pad)), 0, s.height)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			i := (y*s.width + x) * 4
			cover := uint32(mask[i+3])
			if cover == 0 {
				continue
			}
			keep := 255 - cover
			for c := 0; c < 4; c++ {
				dst[i+c] = uint8((uint32(dst[i+c])*keep + 127) / 255)
			}
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
