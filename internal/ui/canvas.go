package ui

import (
	"errors"
	"image/color"

	"FrameStudio/internal/state"
	"FrameStudio/internal/studio"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// CanvasWidget shows the onion layer under the current frame and turns
// mouse drags into strokes.
type CanvasWidget struct {
	widget.BaseWidget

	studio *studio.Studio
	size   fyne.Size

	background *canvas.Rectangle
	ghost      *canvas.Image
	frame      *canvas.Image

	pressed bool
	OnError func(error)
}

var _ fyne.Widget = (*CanvasWidget)(nil)
var _ fyne.Draggable = (*CanvasWidget)(nil)
var _ desktop.Mouseable = (*CanvasWidget)(nil)

func NewCanvasWidget(s *studio.Studio, width, height int) *CanvasWidget {
	c := &CanvasWidget{
		studio:     s,
		size:       fyne.NewSize(float32(width), float32(height)),
		background: canvas.NewRectangle(color.White),
		ghost:      canvas.NewImageFromImage(s.Overlay()),
		frame:      canvas.NewImageFromImage(s.Image()),
	}
	for _, img := range []*canvas.Image{c.ghost, c.frame} {
		img.FillMode = canvas.ImageFillStretch
		img.ScaleMode = canvas.ImageScalePixels
	}
	c.ExtendBaseWidget(c)
	return c
}

// Sync pulls fresh layer snapshots from the studio. Call on the UI
// goroutine.
func (c *CanvasWidget) Sync() {
	c.ghost.Image = c.studio.Overlay()
	c.frame.Image = c.studio.Image()
	c.ghost.Refresh()
	c.frame.Refresh()
}

func toPosition(p fyne.Position) state.Position {
	return state.Position{X: p.X, Y: p.Y}
}

func (c *CanvasWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	if err := c.studio.BeginStroke(toPosition(e.Position)); err != nil {
		c.report(err)
		return
	}
	c.pressed = true
}

func (c *CanvasWidget) Dragged(e *fyne.DragEvent) {
	if !c.pressed {
		return
	}
	c.studio.ExtendStroke(toPosition(e.Position))
}

func (c *CanvasWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		c.finish()
	}
}

func (c *CanvasWidget) DragEnd() { c.finish() }

func (c *CanvasWidget) finish() {
	if !c.pressed {
		return
	}
	c.pressed = false
	if err := c.studio.EndStroke(); err != nil {
		c.report(err)
	}
}

func (c *CanvasWidget) report(err error) {
	if errors.Is(err, state.ErrBusy) {
		return
	}
	if c.OnError != nil {
		c.OnError(err)
	}
}

func (c *CanvasWidget) CreateRenderer() fyne.WidgetRenderer {
	return &canvasRenderer{c: c}
}

type canvasRenderer struct {
	c *CanvasWidget
}

func (r *canvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.c.background, r.c.ghost, r.c.frame}
}

// Layers stay at the surface's pixel size so pointer positions map 1:1.
func (r *canvasRenderer) Layout(_ fyne.Size) {
	for _, o := range r.Objects() {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(r.c.size)
	}
}

func (r *canvasRenderer) MinSize() fyne.Size { return r.c.size }

func (r *canvasRenderer) Refresh() {
	r.c.ghost.Refresh()
	r.c.frame.Refresh()
}

func (r *canvasRenderer) Destroy() {}
