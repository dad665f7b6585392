package studio

import (
	"image/color"
	"testing"

	"FrameStudio/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyPasteAfter(t *testing.T) {
	s, _ := newStudio(t)
	a := pngOf(t, color.NRGBA{R: 255, A: 255})
	b := pngOf(t, color.NRGBA{G: 255, A: 255})
	withFrames(t, s, nil, a, b)

	s.Copy(2)
	assert.False(t, s.Menu().Visible, "copy dismisses the menu")
	s.OpenMenu(1, state.Position{X: 40, Y: 80})
	require.NoError(t, s.PasteAfter())

	frames := s.Frames()
	assert.Equal(t, []int{1, 4, 2, 3}, frameIDs(frames))
	assert.Equal(t, a, frames[1].Buffer)
	assert.Equal(t, 4, s.CurrentID())
	assert.Equal(t, 4, s.Len())
	assert.False(t, s.Menu().Visible)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, color.NRGBAModel.Convert(s.Image().At(1, 1)), "pasted frame rendered")
}

func TestCopyPasteAfterProperties(t *testing.T) {
	s, _ := newStudio(t)
	withFrames(t, s, pngOf(t, color.NRGBA{A: 255}), pngOf(t, color.NRGBA{B: 9, A: 255}))
	before := s.Frames()

	s.Copy(1)
	s.OpenMenu(1, state.Position{})
	require.NoError(t, s.PasteAfter())

	after := s.Frames()
	require.Len(t, after, len(before)+1)
	assert.Equal(t, after[0].ID, 1)
	assert.Equal(t, before[0].Buffer, after[1].Buffer)
	for _, f := range before {
		assert.NotEqual(t, f.ID, after[1].ID)
	}
}

func TestPasteBefore(t *testing.T) {
	s, _ := newStudio(t)
	withFrames(t, s, nil, nil, pngOf(t, color.NRGBA{B: 255, A: 255}))

	s.Copy(3)
	s.OpenMenu(2, state.Position{})
	require.NoError(t, s.PasteBefore())

	assert.Equal(t, []int{1, 4, 2, 3}, frameIDs(s.Frames()))
	assert.Equal(t, 4, s.CurrentID())
}

func TestPasteWithoutClipboardIsNoop(t *testing.T) {
	s, _ := newStudio(t)
	withFrames(t, s, nil, nil)
	s.OpenMenu(1, state.Position{})

	require.NoError(t, s.PasteAfter())

	assert.Equal(t, []int{1, 2}, frameIDs(s.Frames()))
	assert.False(t, s.Menu().Visible)
}

func TestPasteWithoutTargetIsNoop(t *testing.T) {
	s, _ := newStudio(t)
	withFrames(t, s, nil, nil)
	s.Copy(1)

	require.NoError(t, s.PasteBefore())

	assert.Equal(t, 2, s.Len())
}

func TestPasteWithStaleTargetIsNoop(t *testing.T) {
	s, _ := newStudio(t)
	withFrames(t, s, nil, nil, nil)
	s.Copy(1)
	s.OpenMenu(3, state.Position{})
	s.mu.Lock()
	_, err := s.timeline.DeleteFrame(3)
	s.mu.Unlock()
	require.NoError(t, err)

	require.NoError(t, s.PasteAfter())

	assert.Equal(t, []int{1, 2}, frameIDs(s.Frames()))
	assert.False(t, s.Menu().Visible)
}

func TestDuplicateMatchesCopyThenPaste(t *testing.T) {
	a := pngOf(t, color.NRGBA{R: 200, A: 255})
	b := pngOf(t, color.NRGBA{G: 200, A: 255})

	manual, _ := newStudio(t)
	withFrames(t, manual, a, b, nil)
	manual.Copy(2)
	manual.OpenMenu(2, state.Position{})
	require.NoError(t, manual.PasteAfter())

	dup, _ := newStudio(t)
	withFrames(t, dup, a, b, nil)
	require.NoError(t, dup.Duplicate(2))

	assert.Equal(t, manual.Frames(), dup.Frames())
	assert.Equal(t, manual.CurrentID(), dup.CurrentID())
	assert.Equal(t, []int{1, 2, 4, 3}, frameIDs(dup.Frames()))
	assert.False(t, dup.Menu().Visible)
}

func TestDuplicateUnknownFrame(t *testing.T) {
	s, _ := newStudio(t)
	require.NoError(t, s.Duplicate(9))
	assert.Equal(t, 1, s.Len())
}

func TestOpenMenuReplacesPrevious(t *testing.T) {
	s, _ := newStudio(t)
	withFrames(t, s, nil, nil)

	s.OpenMenu(1, state.Position{X: 1, Y: 1})
	s.OpenMenu(2, state.Position{X: 5, Y: 6})

	m := s.Menu()
	assert.True(t, m.Visible)
	assert.Equal(t, 2, m.TargetID)
	assert.Equal(t, state.Position{X: 5, Y: 6}, m.Anchor)

	s.OpenMenu(99, state.Position{})
	assert.False(t, s.Menu().Visible)
}

func TestDismissDoesNotMutate(t *testing.T) {
	s, _ := newStudio(t)
	withFrames(t, s, nil, nil)
	before := s.Frames()
	s.OpenMenu(2, state.Position{})

	s.Dismiss()

	assert.Equal(t, state.ContextMenuState{}, s.Menu())
	assert.Equal(t, before, s.Frames())
}

func TestCopyIsDeep(t *testing.T) {
	s, _ := newStudio(t)
	withFrames(t, s, pngOf(t, color.NRGBA{R: 255, A: 255}))
	s.Copy(1)
	original := s.Frames()[0].Buffer

	drawLine(t, s)
	s.OpenMenu(1, state.Position{})
	require.NoError(t, s.PasteAfter())

	frames := s.Frames()
	assert.Equal(t, original, frames[1].Buffer)
	assert.NotEqual(t, frames[0].Buffer, frames[1].Buffer)
}
