package ui

import (
	"testing"

	"FrameStudio/internal/state"
	"FrameStudio/internal/studio"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStudio(t *testing.T) *studio.Studio {
	t.Helper()
	test.NewTempApp(t)
	s := studio.New(studio.Options{Width: 32, Height: 24, Log: zerolog.Nop()})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func primary(x, y float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	}
}

func TestCanvasDragDrawsOnCurrentFrame(t *testing.T) {
	s := newTestStudio(t)
	c := NewCanvasWidget(s, 32, 24)

	c.MouseDown(primary(2, 12))
	c.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(30, 12)}})
	c.DragEnd()
	c.MouseUp(primary(30, 12))

	assert.False(t, s.Frames()[0].Empty())
	assert.Equal(t, fyne.NewSize(32, 24), c.MinSize())
}

func TestCanvasIgnoresSecondaryButton(t *testing.T) {
	s := newTestStudio(t)
	c := NewCanvasWidget(s, 32, 24)

	c.MouseDown(&desktop.MouseEvent{Button: desktop.MouseButtonSecondary})
	c.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(30, 12)}})
	c.DragEnd()

	assert.True(t, s.Frames()[0].Empty())
}

func TestFrameStripRebuild(t *testing.T) {
	s := newTestStudio(t)
	fs := NewFrameStrip(s)
	_, err := s.AddFrame()
	require.NoError(t, err)
	_, err = s.AddFrame()
	require.NoError(t, err)

	fs.Rebuild()

	require.Len(t, fs.cells.Objects, 3)
	assert.Equal(t, "Frame 3 / 3", fs.position.Text)
	assert.True(t, fs.cells.Objects[2].(*frameCell).current)
	assert.False(t, fs.cells.Objects[0].(*frameCell).current)

	test.Tap(fs.cells.Objects[0].(*frameCell))
	assert.Equal(t, 1, s.CurrentID())
}

func TestFrameMenu(t *testing.T) {
	s := newTestStudio(t)
	fs := NewFrameStrip(s)

	m := fs.menuFor(1, fyne.Position{})
	require.Len(t, m.Items, 6)
	assert.Equal(t, "Copy", m.Items[0].Label)
	assert.True(t, m.Items[1].Disabled, "paste before without clipboard")
	assert.True(t, m.Items[2].Disabled, "paste after without clipboard")

	m.Items[0].Action()
	m = fs.menuFor(1, fyne.Position{})
	assert.False(t, m.Items[1].Disabled)

	m.Items[2].Action()
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Menu().Visible)

	m.Items[3].Action()
	assert.Equal(t, 3, s.Len())
}

func TestToolbarControls(t *testing.T) {
	s := newTestStudio(t)
	tb := NewToolbar(s)
	noop := func() {}
	tb.Build(noop, noop, noop, noop)

	assert.Equal(t, "12", tb.fps.Text)
	assert.Equal(t, float64(5), tb.size.Value)

	test.Tap(tb.onion)
	assert.True(t, s.Onion().Enabled)

	tb.fps.OnSubmitted("24")
	assert.Equal(t, 24, s.Playback().FPS)

	tb.fps.OnSubmitted("fast")
	assert.Equal(t, 24, s.Playback().FPS)
	assert.Equal(t, "24", tb.fps.Text)

	s.SetStrokeWidth(12)
	tb.Sync()
	assert.Equal(t, float64(12), tb.size.Value)
	assert.Equal(t, "marker", tb.tool.Text)
}

func TestToolbarDisablesWhileExporting(t *testing.T) {
	s := newTestStudio(t)
	tb := NewToolbar(s)
	noop := func() {}
	tb.Build(noop, noop, noop, noop)

	_, release, err := s.BeginExport()
	require.NoError(t, err)
	tb.Sync()
	for _, w := range tb.mutating {
		assert.True(t, w.Disabled())
	}

	release()
	tb.Sync()
	for _, w := range tb.mutating {
		assert.False(t, w.Disabled())
	}
}

func stroke(t *testing.T, s *studio.Studio, y float32) {
	t.Helper()
	require.NoError(t, s.BeginStroke(state.Position{X: 2, Y: y}))
	s.ExtendStroke(state.Position{X: 30, Y: y})
	require.NoError(t, s.EndStroke())
}

func cellAt(fs *FrameStrip, i int) *frameCell {
	return fs.cells.Objects[i].(*frameCell)
}

func TestFrameStripUpdateTouchesOneCell(t *testing.T) {
	s := newTestStudio(t)
	stroke(t, s, 4)
	for i := 0; i < 2; i++ {
		_, err := s.AddFrame()
		require.NoError(t, err)
		stroke(t, s, 8)
	}
	fs := NewFrameStrip(s)
	first, second, third := cellAt(fs, 0), cellAt(fs, 1), cellAt(fs, 2)
	firstImg, thirdImg := first.thumb.Image, third.thumb.Image
	require.NotNil(t, firstImg)
	require.NotNil(t, thirdImg)

	stroke(t, s, 16)
	fs.Update(3)

	assert.Same(t, first, cellAt(fs, 0))
	assert.Same(t, third, cellAt(fs, 2))
	assert.Equal(t, firstImg, first.thumb.Image, "untouched frame keeps its thumbnail")
	assert.NotEqual(t, thirdImg, third.thumb.Image, "drawn frame gets a fresh thumbnail")

	require.NoError(t, s.SelectFrame(2))
	fs.Update(2)
	assert.True(t, second.current)
	assert.False(t, third.current)
	assert.Equal(t, "Frame 2 / 3", fs.position.Text)
}

func TestFrameStripRebuildReusesThumbnails(t *testing.T) {
	s := newTestStudio(t)
	stroke(t, s, 4)
	fs := NewFrameStrip(s)
	cell := cellAt(fs, 0)
	img := cell.thumb.Image
	require.NotNil(t, img)

	_, err := s.AddFrame()
	require.NoError(t, err)
	fs.Rebuild()

	require.Len(t, fs.cells.Objects, 2)
	assert.Same(t, cell, cellAt(fs, 0))
	assert.Equal(t, img, cell.thumb.Image)
	assert.Nil(t, cellAt(fs, 1).thumb.Image, "blank frame has no picture")

	require.NoError(t, s.DeleteFrame(1))
	fs.Rebuild()
	assert.NotContains(t, fs.thumbs, 1)
}

func TestClosingPopUpDismissesMenu(t *testing.T) {
	s := newTestStudio(t)
	_, err := s.AddFrame()
	require.NoError(t, err)
	fs := NewFrameStrip(s)
	w := test.NewWindow(fs)
	t.Cleanup(w.Close)

	fs.openMenu(2, fyne.NewPos(10, 10))
	require.NotNil(t, fs.popup)
	require.True(t, s.Menu().Visible)
	assert.Equal(t, 2, s.Menu().TargetID)

	fs.popup.OnDismiss()

	assert.Equal(t, state.ContextMenuState{}, s.Menu())
	assert.Equal(t, 2, s.Len())
}

func TestPasteRunsAfterPopUpCloses(t *testing.T) {
	s := newTestStudio(t)
	_, err := s.AddFrame()
	require.NoError(t, err)
	fs := NewFrameStrip(s)
	w := test.NewWindow(fs)
	t.Cleanup(w.Close)

	s.Copy(2)
	fs.openMenu(1, fyne.NewPos(10, 10))
	fs.popup.OnDismiss()
	fs.menuFor(1, fyne.NewPos(10, 10)).Items[2].Action()

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 3, s.CurrentID())
	assert.False(t, s.Menu().Visible)
}
