package ui

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"FrameStudio/internal/state"
	"FrameStudio/internal/studio"
	"FrameStudio/internal/surface"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

var (
	thumbSize      = fyne.NewSize(64, 48)
	currentBorder  = color.NRGBA{R: 33, G: 150, B: 243, A: 255}
	inactiveBorder = color.Gray{Y: 180}
)

// frameCell is one thumbnail in the strip. Primary tap selects the frame,
// secondary tap opens its menu.
type frameCell struct {
	widget.BaseWidget
	strip   *FrameStrip
	id      int
	index   int
	current bool

	thumb  *canvas.Image
	border *canvas.Rectangle
	label  *widget.Label
}

func newFrameCell(strip *FrameStrip, id int) *frameCell {
	c := &frameCell{
		strip:  strip,
		id:     id,
		index:  -1,
		thumb:  canvas.NewImageFromImage(nil),
		border: canvas.NewRectangle(color.Transparent),
		label:  widget.NewLabel(""),
	}
	c.thumb.FillMode = canvas.ImageFillContain
	c.thumb.SetMinSize(thumbSize)
	c.thumb.Hide()
	c.label.Alignment = fyne.TextAlignCenter
	c.paintBorder()
	c.ExtendBaseWidget(c)
	return c
}

func (c *frameCell) setIndex(i int) {
	if c.index == i {
		return
	}
	c.index = i
	c.label.SetText(fmt.Sprintf("%d", i+1))
}

func (c *frameCell) setCurrent(current bool) {
	if c.current == current {
		return
	}
	c.current = current
	c.paintBorder()
	c.border.Refresh()
}

func (c *frameCell) paintBorder() {
	c.border.StrokeWidth = 1
	c.border.StrokeColor = inactiveBorder
	if c.current {
		c.border.StrokeWidth = 3
		c.border.StrokeColor = currentBorder
	}
}

// setThumb swaps the picture; nil shows the blank card.
func (c *frameCell) setThumb(img image.Image) {
	if c.thumb.Image == img {
		return
	}
	c.thumb.Image = img
	if img == nil {
		c.thumb.Hide()
	} else {
		c.thumb.Show()
	}
	c.thumb.Refresh()
}

func (c *frameCell) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.White)
	bg.SetMinSize(thumbSize)
	card := container.NewStack(bg, c.thumb, c.border)
	return widget.NewSimpleRenderer(container.NewVBox(card, c.label))
}

func (c *frameCell) Tapped(_ *fyne.PointEvent) {
	c.strip.selectFrame(c.id)
}

func (c *frameCell) TappedSecondary(e *fyne.PointEvent) {
	c.strip.openMenu(c.id, e.AbsolutePosition)
}

// thumbnail is a decoded frame kept until its buffer changes.
type thumbnail struct {
	buf []byte
	img image.Image
}

// FrameStrip lists the frames in display order.
type FrameStrip struct {
	widget.BaseWidget

	studio   *studio.Studio
	cells    *fyne.Container
	scroll   *container.Scroll
	position *widget.Label

	byID   map[int]*frameCell
	thumbs map[int]thumbnail
	popup  *widget.PopUpMenu

	OnError func(error)
}

func NewFrameStrip(s *studio.Studio) *FrameStrip {
	fs := &FrameStrip{
		studio:   s,
		cells:    container.NewHBox(),
		position: widget.NewLabel(""),
		byID:     map[int]*frameCell{},
		thumbs:   map[int]thumbnail{},
	}
	fs.scroll = container.NewHScroll(fs.cells)
	fs.ExtendBaseWidget(fs)
	fs.Rebuild()
	return fs
}

// Rebuild lays the cells out again after frames were added, removed or
// reordered. Cells and decoded thumbnails are reused by frame id. Call on
// the UI goroutine.
func (fs *FrameStrip) Rebuild() {
	frames := fs.studio.Frames()
	cur := fs.studio.CurrentID()

	live := make(map[int]*frameCell, len(frames))
	objects := make([]fyne.CanvasObject, 0, len(frames))
	for i, f := range frames {
		c, ok := fs.byID[f.ID]
		if !ok {
			c = newFrameCell(fs, f.ID)
		}
		c.setIndex(i)
		c.setCurrent(f.ID == cur)
		c.setThumb(fs.thumbFor(f))
		live[f.ID] = c
		objects = append(objects, c)
	}
	for id := range fs.thumbs {
		if _, ok := live[id]; !ok {
			delete(fs.thumbs, id)
		}
	}
	fs.byID = live

	fs.cells.Objects = objects
	fs.cells.Refresh()
	fs.showPosition(len(frames))
}

// Update handles a change to frame id alone: its pixels were committed or
// it became current. Only that thumbnail is reconsidered and the highlight
// moves; the rest of the strip is untouched.
func (fs *FrameStrip) Update(id int) {
	n := fs.studio.Len()
	c, ok := fs.byID[id]
	if !ok || len(fs.byID) != n {
		fs.Rebuild()
		return
	}
	if f, err := fs.studio.Frame(id); err == nil {
		c.setThumb(fs.thumbFor(f))
	}
	cur := fs.studio.CurrentID()
	for _, o := range fs.cells.Objects {
		cell := o.(*frameCell)
		cell.setCurrent(cell.id == cur)
	}
	fs.showPosition(n)
}

// thumbFor decodes f only when its buffer differs from the cached one.
// Blank and undecodable frames get no picture.
func (fs *FrameStrip) thumbFor(f state.Frame) image.Image {
	if f.Empty() {
		delete(fs.thumbs, f.ID)
		return nil
	}
	if t, ok := fs.thumbs[f.ID]; ok && bytes.Equal(t.buf, f.Buffer) {
		return t.img
	}
	img, err := surface.DecodePNG(f.ID, f.Buffer)
	if err != nil {
		delete(fs.thumbs, f.ID)
		return nil
	}
	fs.thumbs[f.ID] = thumbnail{buf: f.Buffer, img: img}
	return img
}

func (fs *FrameStrip) showPosition(n int) {
	fs.position.SetText(fmt.Sprintf("Frame %d / %d", fs.studio.Position(), n))
}

func (fs *FrameStrip) selectFrame(id int) {
	if err := fs.studio.SelectFrame(id); err != nil {
		fs.report(err)
	}
}

// menuFor builds the frame menu for id. Paste entries are disabled while
// the clipboard is empty. The pop-up closes itself before running an
// action, so paste re-targets id first.
func (fs *FrameStrip) menuFor(id int, at fyne.Position) *fyne.Menu {
	run := func(fn func() error) func() {
		return func() {
			if err := fn(); err != nil {
				fs.report(err)
			}
		}
	}
	paste := func(fn func() error) func() {
		return run(func() error {
			fs.studio.OpenMenu(id, state.Position{X: at.X, Y: at.Y})
			return fn()
		})
	}
	pasteBefore := fyne.NewMenuItem("Paste Before", paste(fs.studio.PasteBefore))
	pasteAfter := fyne.NewMenuItem("Paste After", paste(fs.studio.PasteAfter))
	if !fs.studio.HasClipboard() {
		pasteBefore.Disabled = true
		pasteAfter.Disabled = true
	}

	return fyne.NewMenu("",
		fyne.NewMenuItem("Copy", func() { fs.studio.Copy(id) }),
		pasteBefore,
		pasteAfter,
		fyne.NewMenuItem("Duplicate", run(func() error { return fs.studio.Duplicate(id) })),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Cancel", fs.studio.Dismiss),
	)
}

// openMenu shows the frame menu. However the pop-up goes away, by an
// action or a tap outside it, the studio's menu state is dismissed too.
func (fs *FrameStrip) openMenu(id int, at fyne.Position) {
	fs.studio.OpenMenu(id, state.Position{X: at.X, Y: at.Y})
	if !fs.studio.Menu().Visible {
		return
	}
	c := fyne.CurrentApp().Driver().CanvasForObject(fs)
	if c == nil {
		fs.studio.Dismiss()
		return
	}
	if fs.popup != nil {
		fs.popup.Hide()
	}
	pop := widget.NewPopUpMenu(fs.menuFor(id, at), c)
	hide := pop.OnDismiss
	pop.OnDismiss = func() {
		if hide != nil {
			hide()
		}
		fs.studio.Dismiss()
	}
	fs.popup = pop
	pop.ShowAtPosition(at)
}

func (fs *FrameStrip) report(err error) {
	if fs.OnError != nil {
		fs.OnError(err)
	}
}

func (fs *FrameStrip) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewBorder(nil, nil, fs.position, nil, fs.scroll))
}
