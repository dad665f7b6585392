package studio

import (
	"errors"

	"FrameStudio/internal/state"
)

// OpenMenu shows the frame menu for id at pos, replacing any open menu.
// An unknown id leaves the menu closed.
func (s *Studio) OpenMenu(id int, pos state.Position) {
	_ = s.do(func() error {
		if s.timeline.IndexOf(id) < 0 {
			s.log.Debug().Int("frame", id).Msg("menu: unknown frame")
			s.dismissLocked()
			return nil
		}
		s.menu = state.ContextMenuState{Visible: true, Anchor: pos, TargetID: id}
		s.notify(EventMenu, id)
		return nil
	})
}

// Dismiss closes the menu without touching the timeline.
func (s *Studio) Dismiss() {
	_ = s.do(func() error {
		s.dismissLocked()
		return nil
	})
}

func (s *Studio) dismissLocked() {
	if s.menu == (state.ContextMenuState{}) {
		return
	}
	s.menu = state.ContextMenuState{}
	s.notify(EventMenu, 0)
}

// Copy puts a deep copy of the frame's image in the clipboard and closes
// the menu.
func (s *Studio) Copy(id int) {
	_ = s.do(func() error {
		s.copyLocked(id)
		return nil
	})
}

func (s *Studio) copyLocked(id int) {
	defer s.dismissLocked()
	if err := s.timeline.Copy(id); err != nil {
		s.log.Debug().Err(err).Msg("copy: ignoring")
	}
}

// PasteBefore inserts the clipboard frame before the menu target.
func (s *Studio) PasteBefore() error {
	return s.do(func() error { return s.pasteLocked(state.Before) })
}

// PasteAfter inserts the clipboard frame after the menu target.
func (s *Studio) PasteAfter() error {
	return s.do(func() error { return s.pasteLocked(state.After) })
}

// Duplicate is Copy(id) followed by PasteAfter with id as the target.
func (s *Studio) Duplicate(id int) error {
	return s.do(func() error {
		if s.exporting {
			s.dismissLocked()
			return state.ErrBusy
		}
		s.copyLocked(id)
		if s.timeline.IndexOf(id) >= 0 {
			s.menu = state.ContextMenuState{Visible: true, TargetID: id}
		}
		return s.pasteLocked(state.After)
	})
}

// pasteLocked silently does nothing when the clipboard is empty or the
// target is gone. The menu is always dismissed.
func (s *Studio) pasteLocked(p state.Placement) error {
	defer s.dismissLocked()
	if s.exporting {
		return state.ErrBusy
	}

	buf, ok := s.timeline.Clipboard()
	if !ok || !s.menu.Visible {
		return nil
	}
	target := s.menu.TargetID
	if s.timeline.IndexOf(target) < 0 {
		return nil
	}

	s.stopPlaybackLocked()
	f, err := s.timeline.InsertAt(p, target, buf)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.timeline.SetCurrent(f.ID); err != nil {
		return err
	}
	s.showLocked(f)
	s.notify(EventTimeline, f.ID)
	s.log.Debug().Int("frame", f.ID).Int("anchor", target).Str("placement", p.String()).Msg("pasted frame")
	return nil
}
