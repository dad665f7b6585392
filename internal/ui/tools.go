package ui

import (
	"image/color"
	"strconv"

	"FrameStudio/internal/state"
	"FrameStudio/internal/studio"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// palette is the swatch row, in display order.
var palette = []color.NRGBA{
	{A: 255},                 // Black
	{R: 255, A: 255},         // Red
	{G: 255, A: 255},         // Green
	{B: 255, A: 255},         // Blue
	{R: 255, G: 255, A: 255}, // Yellow
}

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    color.NRGBA
	OnTapped func(color.NRGBA)
}

func newColorSwatch(c color.NRGBA, tapped func(color.NRGBA)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// Toolbar holds the drawing, onion skin and playback controls.
type Toolbar struct {
	studio *studio.Studio

	tool     *widget.Label
	size     *widget.Slider
	onion    *widget.Check
	opacity  *widget.Slider
	fps      *widget.Entry
	play     *widget.Button
	mutating []fyne.Disableable

	// set while Sync writes widget values, so their callbacks stay quiet
	syncing bool

	OnError func(error)
}

func NewToolbar(s *studio.Studio) *Toolbar {
	return &Toolbar{studio: s}
}

// Build lays out the controls. Frame and export actions come from the
// editor because they need the window.
func (t *Toolbar) Build(onAdd, onDelete, onExport, onSheet func()) fyne.CanvasObject {
	tools := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() {
			t.studio.SetToolKind(state.ToolMarker)
		}), // Marker
		widget.NewToolbarAction(theme.ContentClearIcon(), func() {
			t.studio.SetToolKind(state.ToolEraser)
		}), // Eraser
	)
	t.tool = widget.NewLabel("")

	// --- Color Palette ---
	onColorTapped := func(c color.NRGBA) {
		if err := t.studio.SetColor(state.HexColor(c)); err != nil {
			t.report(err)
			return
		}
		t.studio.SetToolKind(state.ToolMarker)
	}
	colorBox := container.NewHBox()
	for _, c := range palette {
		colorBox.Add(newColorSwatch(c, onColorTapped))
	}

	// --- Stroke Width Slider ---
	t.size = widget.NewSlider(state.MinStrokeWidth, state.MaxStrokeWidth)
	t.size.Step = 1
	t.size.OnChanged = func(val float64) {
		if !t.syncing {
			t.studio.SetStrokeWidth(int(val))
		}
	}
	sizeBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), t.size)

	// --- Onion skin ---
	t.onion = widget.NewCheck("Onion skin", func(on bool) {
		if !t.syncing {
			t.studio.SetOnionSkin(on)
		}
	})
	t.opacity = widget.NewSlider(state.MinOnionOpacity, state.MaxOnionOpacity)
	t.opacity.Step = 0.05
	t.opacity.OnChanged = func(v float64) {
		if !t.syncing {
			t.studio.SetOnionOpacity(v)
		}
	}
	opacityBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(110, 35)), t.opacity)

	// --- Playback ---
	t.fps = widget.NewEntry()
	t.fps.OnSubmitted = func(text string) {
		n, err := strconv.Atoi(text)
		if err != nil {
			t.Sync()
			return
		}
		t.studio.SetFPS(n)
	}
	fpsBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(60, 35)), t.fps)

	t.play = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() {
		if err := t.studio.TogglePlay(); err != nil {
			t.report(err)
		}
	})
	prev := widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() {
		t.studio.Navigate(state.Prev)
	})
	next := widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() {
		t.studio.Navigate(state.Next)
	})

	// --- Frames and export ---
	add := widget.NewButtonWithIcon("", theme.ContentAddIcon(), onAdd)
	del := widget.NewButtonWithIcon("", theme.DeleteIcon(), onDelete)
	export := widget.NewButtonWithIcon("Export", theme.DocumentSaveIcon(), onExport)
	sheet := widget.NewButtonWithIcon("Sheet", theme.DocumentPrintIcon(), onSheet)
	t.mutating = []fyne.Disableable{add, del, export, sheet, t.play}

	t.Sync()

	// --- Assemble everything ---
	return container.NewVBox(
		container.NewHBox(
			widget.NewLabel("Tool:"),
			tools,
			t.tool,
			widget.NewSeparator(),
			widget.NewLabel("Color:"),
			colorBox,
			widget.NewSeparator(),
			widget.NewLabel("Size:"),
			sizeBox,
			layout.NewSpacer(),
		),
		container.NewHBox(
			prev, t.play, next,
			widget.NewLabel("FPS:"), fpsBox,
			widget.NewSeparator(),
			t.onion, opacityBox,
			widget.NewSeparator(),
			add, del,
			layout.NewSpacer(),
			export, sheet,
		),
	)
}

// Sync copies studio state into the controls. Call on the UI goroutine.
func (t *Toolbar) Sync() {
	t.syncing = true
	defer func() { t.syncing = false }()

	tool := t.studio.Tool()
	t.tool.SetText(string(tool.Kind))
	t.size.SetValue(float64(tool.Width))

	// while playing the check shows what will come back on stop
	onion := t.studio.Onion()
	pb := t.studio.Playback()
	t.onion.SetChecked(onion.Enabled || (pb.Running && t.onion.Checked))
	t.opacity.SetValue(onion.Opacity)

	t.fps.SetText(strconv.Itoa(pb.FPS))
	if pb.Running {
		t.play.SetIcon(theme.MediaPauseIcon())
	} else {
		t.play.SetIcon(theme.MediaPlayIcon())
	}

	busy := t.studio.Exporting()
	for _, w := range t.mutating {
		if busy {
			w.Disable()
		} else {
			w.Enable()
		}
	}
}

func (t *Toolbar) report(err error) {
	if t.OnError != nil {
		t.OnError(err)
	}
}
