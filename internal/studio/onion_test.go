package studio

import (
	"image/color"
	"testing"

	"FrameStudio/internal/state"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGhostSource(t *testing.T) {
	tl := state.NewTimeline(zerolog.Nop())
	tl.AddFrame()
	tl.AddFrame()
	on := state.OnionSkinSettings{Enabled: true, Opacity: 0.3}

	tests := []struct {
		name    string
		current int
		onion   state.OnionSkinSettings
		playing bool
		want    int
		ok      bool
	}{
		{"previous frame", 3, on, false, 2, true},
		{"first frame", 1, on, false, 0, false},
		{"disabled", 3, state.OnionSkinSettings{Opacity: 0.3}, false, 0, false},
		{"playing", 2, on, true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tl.SetCurrent(tt.current))
			f, ok := ghostSource(tl, tt.onion, tt.playing)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, f.ID)
		})
	}
}

func TestOnionSkinShowsPreviousFrame(t *testing.T) {
	s, _ := newStudio(t)
	withFrames(t, s, pngOf(t, color.NRGBA{R: 255, A: 255}), nil)
	require.NoError(t, s.SelectFrame(2))

	s.SetOnionSkin(true)

	id, ok := s.GhostFrame()
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.True(t, s.OnionVisible())
	a := color.NRGBAModel.Convert(s.Overlay().At(10, 10)).(color.NRGBA).A
	assert.Greater(t, a, uint8(0))
	assert.Less(t, a, uint8(255))
	assert.Equal(t, uint8(0), color.NRGBAModel.Convert(s.Image().At(10, 10)).(color.NRGBA).A)
}

func TestOnionSkinNeverOnFirstFrame(t *testing.T) {
	s, _ := newStudio(t)
	withFrames(t, s, pngOf(t, color.NRGBA{R: 255, A: 255}), pngOf(t, color.NRGBA{B: 255, A: 255}))
	s.SetOnionSkin(true)

	_, ok := s.GhostFrame()
	assert.False(t, ok)
	assert.Equal(t, uint8(0), color.NRGBAModel.Convert(s.Overlay().At(10, 10)).(color.NRGBA).A)
}

func TestOnionSkinFollowsCurrentFrame(t *testing.T) {
	s, _ := newStudio(t)
	withFrames(t, s, pngOf(t, color.NRGBA{R: 255, A: 255}), pngOf(t, color.NRGBA{B: 255, A: 255}), nil)
	s.SetOnionSkin(true)

	s.Navigate(state.Next)
	id, _ := s.GhostFrame()
	assert.Equal(t, 1, id)

	s.Navigate(state.Next)
	id, _ = s.GhostFrame()
	assert.Equal(t, 2, id)

	s.SetOnionSkin(false)
	_, ok := s.GhostFrame()
	assert.False(t, ok)
}

func TestOnionSkinSkipsBlankAndCorrupt(t *testing.T) {
	s, _ := newStudio(t)
	withFrames(t, s, nil, []byte("junk"), nil)
	s.SetOnionSkin(true)

	require.NoError(t, s.SelectFrame(2))
	_, ok := s.GhostFrame()
	assert.False(t, ok, "blank previous frame")

	require.NoError(t, s.SelectFrame(3))
	_, ok = s.GhostFrame()
	assert.False(t, ok, "undecodable previous frame is skipped")
	assert.Equal(t, 3, s.CurrentID())
}

func TestOnionOpacityClamped(t *testing.T) {
	s, _ := newStudio(t)
	s.SetOnionOpacity(0.95)
	assert.InDelta(t, 0.7, s.Onion().Opacity, 1e-9)
	s.SetOnionOpacity(0.01)
	assert.InDelta(t, 0.1, s.Onion().Opacity, 1e-9)
}
