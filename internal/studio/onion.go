package studio

import (
	"FrameStudio/internal/state"
)

// ghostSource picks the frame to ghost under the current one: the frame
// right before it in display order. Nothing is ghosted when the onion skin
// is off, while playing, or on the first frame.
func ghostSource(tl *state.Timeline, o state.OnionSkinSettings, playing bool) (state.Frame, bool) {
	if !o.Enabled || playing {
		return state.Frame{}, false
	}
	return tl.Previous(tl.CurrentID())
}

// refreshOnionLocked recomputes the ghost layer from scratch.
func (s *Studio) refreshOnionLocked() {
	s.surface.ClearOverlay()
	prev := s.ghostID
	s.ghostID = 0
	defer func() {
		if prev != s.ghostID {
			s.notify(EventOnion, s.ghostID)
		}
	}()

	f, ok := ghostSource(s.timeline, s.onion, s.playback.Running)
	if !ok {
		return
	}
	if f.Empty() {
		s.log.Debug().Int("frame", f.ID).Msg("onion skin: previous frame is blank")
		return
	}
	if err := s.surface.CompositeExternal(f.ID, f.Buffer, s.onion.Opacity); err != nil {
		s.log.Warn().Err(err).Int("frame", f.ID).Msg("onion skin: skipping frame")
		return
	}
	s.ghostID = f.ID
}

// SetOnionSkin turns the ghost on or off. While playing the choice is
// remembered and applied when playback stops.
func (s *Studio) SetOnionSkin(enabled bool) {
	_ = s.do(func() error {
		s.dismissLocked()
		if s.playback.Running {
			s.onionBeforePlay = enabled
			return nil
		}
		s.onion.Enabled = enabled
		s.refreshOnionLocked()
		s.notify(EventOnion, s.ghostID)
		return nil
	})
}

func (s *Studio) ToggleOnionSkin() {
	s.mu.Lock()
	enabled := s.onion.Enabled
	if s.playback.Running {
		enabled = s.onionBeforePlay
	}
	s.mu.Unlock()
	s.SetOnionSkin(!enabled)
}

// SetOnionOpacity clamps v to [0.1, 0.7] and redraws the ghost.
func (s *Studio) SetOnionOpacity(v float64) {
	_ = s.do(func() error {
		s.dismissLocked()
		s.onion.Opacity = state.ClampOpacity(v)
		s.refreshOnionLocked()
		s.notify(EventOnion, s.ghostID)
		return nil
	})
}

// GhostFrame reports which frame the onion layer currently shows.
func (s *Studio) GhostFrame() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ghostID, s.ghostID != 0
}

// OnionVisible reports whether a ghost is drawn under the current frame.
func (s *Studio) OnionVisible() bool {
	_, ok := s.GhostFrame()
	return ok
}
