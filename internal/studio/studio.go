// Package studio owns the whole editing session: the timeline, the tool,
// playback, onion skin, context menu and export guard. Every method takes
// the same lock, so one input event finishes mutating before the next
// one (or a playback tick) starts.
package studio

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"time"

	"FrameStudio/internal/state"
	"FrameStudio/internal/surface"

	"github.com/rs/zerolog"
)

type EventKind int

const (
	EventFrame    EventKind = iota // current frame or its pixels changed
	EventTimeline                  // frames added, removed or reordered
	EventTool
	EventOnion
	EventPlayback
	EventMenu
	EventExport
	EventStroke // live stroke segment on the current frame, not yet committed
)

// Event tells the host what to redraw.
type Event struct {
	Kind    EventKind
	FrameID int
}

type Options struct {
	Width, Height int
	FPS           int
	Tool          state.ToolState
	OnionOpacity  float64
	NewTicker     TickerFunc
	Log           zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 640
	}
	if o.Height <= 0 {
		o.Height = 480
	}
	if o.FPS == 0 {
		o.FPS = 12
	}
	def := state.DefaultTool()
	if o.Tool.Kind == "" {
		o.Tool.Kind = def.Kind
	}
	if o.Tool.Width == 0 {
		o.Tool.Width = def.Width
	}
	if o.Tool.Color == (color.NRGBA{}) {
		o.Tool.Color = def.Color
	}
	if o.OnionOpacity == 0 {
		o.OnionOpacity = 0.3
	}
	if o.NewTicker == nil {
		o.NewTicker = NewTimeTicker
	}
	return o
}

// Studio is the editing session aggregate.
type Studio struct {
	mu sync.Mutex

	timeline *state.Timeline
	surface  *surface.Surface

	tool     state.ToolState
	playback state.PlaybackState
	onion    state.OnionSkinSettings
	menu     state.ContextMenuState

	onionBeforePlay bool
	ghostID         int
	playGen         uint64
	scheduler       *Scheduler

	exporting bool
	sessionID string

	pending  []Event
	onChange func(Event)
	log      zerolog.Logger
}

// New starts a session with one blank frame.
func New(opts Options) *Studio {
	opts = opts.withDefaults()
	s := &Studio{
		timeline:  state.NewTimeline(opts.Log.With().Str("component", "timeline").Logger()),
		surface:   surface.New(opts.Width, opts.Height, opts.Log.With().Str("component", "surface").Logger()),
		tool:      opts.Tool.Normalize(),
		playback:  state.PlaybackState{FPS: state.ClampFPS(opts.FPS)},
		onion:     state.OnionSkinSettings{Opacity: state.ClampOpacity(opts.OnionOpacity)},
		scheduler: NewScheduler(opts.NewTicker, opts.Log),
		sessionID: state.NewSessionID(),
		log:       opts.Log,
	}
	s.surface.SetTool(s.tool)
	s.log.Info().Str("session", s.sessionID).Int("width", opts.Width).Int("height", opts.Height).Msg("studio ready")
	return s
}

// SetOnChange registers the host callback. It runs after the lock is
// released, so it may call back into the studio.
func (s *Studio) SetOnChange(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// do runs fn under the lock and then delivers the events it queued.
func (s *Studio) do(fn func() error) error {
	s.mu.Lock()
	err := fn()
	events := s.pending
	s.pending = nil
	cb := s.onChange
	s.mu.Unlock()

	if cb != nil {
		for _, ev := range events {
			cb(ev)
		}
	}
	return err
}

func (s *Studio) notify(kind EventKind, frameID int) {
	s.pending = append(s.pending, Event{Kind: kind, FrameID: frameID})
}

// Close stops playback and frees the surface.
func (s *Studio) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopPlaybackLocked()
	return s.surface.Close()
}

// --- drawing ---

// BeginStroke starts a stroke on the current frame. Strokes are ignored
// while the flip-book is playing.
func (s *Studio) BeginStroke(p state.Position) error {
	return s.do(func() error {
		s.dismissLocked()
		if s.exporting {
			return state.ErrBusy
		}
		if s.playback.Running {
			return nil
		}
		s.surface.BeginStroke(p)
		return nil
	})
}

func (s *Studio) ExtendStroke(p state.Position) {
	_ = s.do(func() error {
		if !s.surface.Stroking() {
			return nil
		}
		s.surface.ExtendStroke(p)
		s.notify(EventStroke, s.timeline.CurrentID())
		return nil
	})
}

// EndStroke commits the stroke into the current frame, and only that one.
func (s *Studio) EndStroke() error {
	return s.do(func() error {
		if !s.surface.Stroking() {
			return nil
		}
		if s.exporting {
			s.surface.CancelStroke()
			return state.ErrBusy
		}
		buf, err := s.surface.EndStroke()
		if err != nil {
			return err
		}
		id := s.timeline.CurrentID()
		if err := s.timeline.SetBuffer(id, buf); err != nil {
			return err
		}
		s.notify(EventFrame, id)
		return nil
	})
}

func (s *Studio) SetTool(t state.ToolState) {
	_ = s.do(func() error {
		s.dismissLocked()
		s.tool = t.Normalize()
		s.surface.SetTool(s.tool)
		s.notify(EventTool, 0)
		return nil
	})
}

func (s *Studio) SetToolKind(k state.ToolKind) {
	t := s.Tool()
	t.Kind = k
	s.SetTool(t)
}

func (s *Studio) SetStrokeWidth(w int) {
	t := s.Tool()
	t.Width = w
	s.SetTool(t)
}

func (s *Studio) SetColor(c string) error {
	col, err := state.ParseHexColor(c)
	if err != nil {
		return err
	}
	t := s.Tool()
	t.Color = col
	s.SetTool(t)
	return nil
}

// --- frames ---

// AddFrame appends a blank frame, makes it current and shows it.
func (s *Studio) AddFrame() (state.Frame, error) {
	var f state.Frame
	err := s.do(func() error {
		s.dismissLocked()
		if s.exporting {
			return state.ErrBusy
		}
		s.stopPlaybackLocked()
		f = s.timeline.AddFrame()
		s.showLocked(f)
		s.notify(EventTimeline, f.ID)
		return nil
	})
	return f, err
}

// DeleteFrame removes a frame. Deleting the last one left does nothing.
func (s *Studio) DeleteFrame(id int) error {
	return s.do(func() error {
		if s.exporting {
			return state.ErrBusy
		}
		s.stopPlaybackLocked()
		deleted, err := s.timeline.DeleteFrame(id)
		if err != nil {
			return err
		}
		if !deleted {
			return nil
		}
		if s.menu.TargetID == id {
			s.dismissLocked()
		}
		s.showLocked(s.timeline.Current())
		s.notify(EventTimeline, id)
		return nil
	})
}

// SelectFrame makes id current and renders it. Like navigation it only
// reads frame buffers, so it stays available during an export.
func (s *Studio) SelectFrame(id int) error {
	return s.do(func() error {
		s.dismissLocked()
		if err := s.timeline.SetCurrent(id); err != nil {
			return err
		}
		s.surface.CancelStroke()
		s.showLocked(s.timeline.Current())
		return nil
	})
}

// Navigate steps to the neighbouring frame, wrapping around.
func (s *Studio) Navigate(dir state.Direction) state.Frame {
	var f state.Frame
	_ = s.do(func() error {
		s.dismissLocked()
		s.surface.CancelStroke()
		f = s.timeline.Navigate(dir)
		s.showLocked(f)
		return nil
	})
	return f
}

// showLocked renders f onto the surface in normal blend and refreshes the
// ghost. A frame that fails to decode is logged and shown blank.
func (s *Studio) showLocked(f state.Frame) {
	if err := s.surface.Load(f.ID, f.Buffer); err != nil {
		var de *state.DecodeError
		if errors.As(err, &de) {
			s.log.Warn().Err(err).Int("frame", f.ID).Msg("skipping frame render")
		} else {
			s.log.Error().Err(err).Int("frame", f.ID).Msg("render frame")
		}
	}
	s.refreshOnionLocked()
	s.notify(EventFrame, f.ID)
}

// --- read side ---

// Frame returns a copy of one frame.
func (s *Studio) Frame(id int) (state.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Frame(id)
}

func (s *Studio) Frames() []state.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Frames()
}

func (s *Studio) CurrentID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.CurrentID()
}

func (s *Studio) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Len()
}

// Position returns the 1-based display position of the current frame.
func (s *Studio) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.IndexOf(s.timeline.CurrentID()) + 1
}

func (s *Studio) Tool() state.ToolState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

func (s *Studio) BlendMode() surface.BlendMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface.BlendMode()
}

func (s *Studio) Playback() state.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playback
}

func (s *Studio) Onion() state.OnionSkinSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onion
}

func (s *Studio) Menu() state.ContextMenuState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.menu
}

func (s *Studio) HasClipboard() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.HasClipboard()
}

func (s *Studio) Exporting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exporting
}

func (s *Studio) SessionID() string { return s.sessionID }

// Image is the frame layer as currently drawn.
func (s *Studio) Image() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface.Image()
}

// Overlay is the onion skin layer.
func (s *Studio) Overlay() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface.Overlay()
}

func interval(fps int) time.Duration {
	return time.Second / time.Duration(state.ClampFPS(fps))
}
