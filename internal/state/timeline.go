package state

import (
	"sync"

	"github.com/rs/zerolog"
)

// Timeline is the ordered sequence of frames. Slice order is display and
// playback order. It always holds at least one frame and its current id
// always names one of them.
type Timeline struct {
	frames    []Frame
	current   int
	clipboard []byte
	copied    bool
	clock     idClock
	log       zerolog.Logger
	mu        sync.RWMutex
}

// NewTimeline returns a timeline holding a single blank frame.
func NewTimeline(log zerolog.Logger) *Timeline {
	t := &Timeline{log: log}
	first := Frame{ID: t.clock.Next()}
	t.frames = []Frame{first}
	t.current = first.ID
	return t
}

func (t *Timeline) indexOf(id int) int {
	for i, f := range t.frames {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// AddFrame appends a blank frame and makes it current.
func (t *Timeline) AddFrame() Frame {
	t.mu.Lock()
	defer t.mu.Unlock()

	f := Frame{ID: t.clock.Next()}
	t.frames = append(t.frames, f)
	t.current = f.ID
	t.log.Debug().Int("frame", f.ID).Int("frames", len(t.frames)).Msg("frame added")
	return f
}

// DeleteFrame removes the frame with the given id. Deleting the only frame
// is a no-op and reports false. If the current frame goes, the first
// remaining frame becomes current.
func (t *Timeline) DeleteFrame(id int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexOf(id)
	if idx < 0 {
		return false, &NotFoundError{ID: id}
	}
	if len(t.frames) <= 1 {
		t.log.Debug().Int("frame", id).Msg("refusing to delete the last frame")
		return false, nil
	}

	t.frames = append(t.frames[:idx], t.frames[idx+1:]...)
	if t.current == id {
		t.current = t.frames[0].ID
	}
	t.log.Debug().Int("frame", id).Int("current", t.current).Msg("frame deleted")
	return true, nil
}

// SetCurrent moves the cursor. On NotFoundError the cursor does not move.
func (t *Timeline) SetCurrent(id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.indexOf(id) < 0 {
		return &NotFoundError{ID: id}
	}
	t.current = id
	return nil
}

// Navigate moves the cursor to the adjacent frame, wrapping at both ends,
// and returns the new current frame.
func (t *Timeline) Navigate(dir Direction) Frame {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.frames)
	idx := t.indexOf(t.current)
	if dir == Prev {
		idx = (idx - 1 + n) % n
	} else {
		idx = (idx + 1) % n
	}
	t.current = t.frames[idx].ID
	return t.frames[idx].Clone()
}

// InsertAt places a new frame holding a copy of buf next to the anchor.
// The cursor is left alone.
func (t *Timeline) InsertAt(p Placement, anchorID int, buf []byte) (Frame, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexOf(anchorID)
	if idx < 0 {
		return Frame{}, &NotFoundError{ID: anchorID}
	}
	if p == After {
		idx++
	}

	f := Frame{ID: t.clock.Next(), Buffer: cloneBuffer(buf)}
	t.frames = append(t.frames, Frame{})
	copy(t.frames[idx+1:], t.frames[idx:])
	t.frames[idx] = f

	t.log.Debug().Int("frame", f.ID).Int("anchor", anchorID).Str("placement", p.String()).Msg("frame inserted")
	return f.Clone(), nil
}

// SetBuffer replaces the image data of one frame.
func (t *Timeline) SetBuffer(id int, buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexOf(id)
	if idx < 0 {
		return &NotFoundError{ID: id}
	}
	t.frames[idx].Buffer = cloneBuffer(buf)
	return nil
}

// Copy stores a deep copy of the frame's buffer in the clipboard slot.
func (t *Timeline) Copy(id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexOf(id)
	if idx < 0 {
		return &NotFoundError{ID: id}
	}
	t.clipboard = cloneBuffer(t.frames[idx].Buffer)
	t.copied = true
	return nil
}

// Clipboard returns a copy of the clipboard buffer and whether a frame has
// been copied at all. A copied blank frame yields (nil, true).
func (t *Timeline) Clipboard() ([]byte, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneBuffer(t.clipboard), t.copied
}

func (t *Timeline) HasClipboard() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.copied
}

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.frames)
}

// Frames returns a deep copy of the frames in display order.
func (t *Timeline) Frames() []Frame {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Frame, len(t.frames))
	for i, f := range t.frames {
		out[i] = f.Clone()
	}
	return out
}

func (t *Timeline) CurrentID() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

func (t *Timeline) Current() Frame {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frames[t.indexOf(t.current)].Clone()
}

// IndexOf returns the display position of id, or -1.
func (t *Timeline) IndexOf(id int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.indexOf(id)
}

func (t *Timeline) Frame(id int) (Frame, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := t.indexOf(id)
	if idx < 0 {
		return Frame{}, &NotFoundError{ID: id}
	}
	return t.frames[idx].Clone(), nil
}

// Previous returns the frame displayed right before id. ok is false when
// id is first or absent.
func (t *Timeline) Previous(id int) (f Frame, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := t.indexOf(id)
	if idx <= 0 {
		return Frame{}, false
	}
	return t.frames[idx-1].Clone(), true
}

// LastID is the most recently issued frame id.
func (t *Timeline) LastID() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.clock.Last()
}
