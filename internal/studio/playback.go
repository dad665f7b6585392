package studio

import (
	"sync"
	"time"

	"FrameStudio/internal/state"

	"github.com/rs/zerolog"
)

// Ticker is the part of time.Ticker the scheduler needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFunc func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the production TickerFunc.
func NewTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// Scheduler runs one periodic callback at a time.
type Scheduler struct {
	mu        sync.Mutex
	newTicker TickerFunc
	stop      chan struct{}
	interval  time.Duration
	log       zerolog.Logger
}

func NewScheduler(newTicker TickerFunc, log zerolog.Logger) *Scheduler {
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	return &Scheduler{newTicker: newTicker, log: log}
}

// Start begins calling fn every interval. It reports false, and starts
// nothing, if a schedule is already running.
func (s *Scheduler) Start(interval time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return false
	}
	s.startLocked(interval, fn)
	return true
}

// Restart replaces the running schedule, if any, with a new interval.
func (s *Scheduler) Restart(interval time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.startLocked(interval, fn)
}

// Stop cancels the schedule. It does not wait for a callback already in
// flight; callers guard against late ticks themselves.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Scheduler) startLocked(interval time.Duration, fn func()) {
	stop := make(chan struct{})
	t := s.newTicker(interval)
	s.stop = stop
	s.interval = interval
	s.log.Debug().Dur("interval", interval).Msg("scheduler started")

	go func() {
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C():
				select {
				case <-stop:
					return
				default:
				}
				fn()
			}
		}
	}()
}

func (s *Scheduler) stopLocked() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
	s.log.Debug().Msg("scheduler stopped")
}

// Play starts the flip-book. Calling it while playing does nothing. The
// onion skin is switched off for the duration and restored on stop.
func (s *Studio) Play() error {
	return s.do(func() error {
		s.dismissLocked()
		if s.exporting {
			return state.ErrBusy
		}
		if s.playback.Running {
			return nil
		}
		s.surface.CancelStroke()
		s.onionBeforePlay = s.onion.Enabled
		s.onion.Enabled = false
		s.playback.Running = true
		s.startTicksLocked(false)
		s.refreshOnionLocked()
		s.notify(EventPlayback, s.timeline.CurrentID())
		s.log.Info().Int("fps", s.playback.FPS).Int("frames", s.timeline.Len()).Msg("playback started")
		return nil
	})
}

// Pause stops the flip-book on the frame it reached.
func (s *Studio) Pause() {
	_ = s.do(func() error {
		s.dismissLocked()
		s.stopPlaybackLocked()
		return nil
	})
}

// Stop is Pause under another name; both end in the stopped state.
func (s *Studio) Stop() { s.Pause() }

func (s *Studio) TogglePlay() error {
	if s.Playback().Running {
		s.Pause()
		return nil
	}
	return s.Play()
}

// SetFPS clamps fps to [1, 60]. While playing the interval restarts so the
// next tick uses the new rate.
func (s *Studio) SetFPS(fps int) {
	_ = s.do(func() error {
		s.dismissLocked()
		s.playback.FPS = state.ClampFPS(fps)
		if s.playback.Running {
			s.startTicksLocked(true)
		}
		s.notify(EventPlayback, s.timeline.CurrentID())
		return nil
	})
}

// Tick advances playback by one frame, wrapping from last to first. The
// scheduler calls it; tests may call it directly. It does nothing when
// stopped.
func (s *Studio) Tick() {
	_ = s.do(func() error {
		s.tickLocked()
		return nil
	})
}

func (s *Studio) tickLocked() {
	if !s.playback.Running {
		return
	}
	f := s.timeline.Navigate(state.Next)
	s.showLocked(f)
}

func (s *Studio) startTicksLocked(restart bool) {
	s.playGen++
	gen := s.playGen
	fn := func() {
		_ = s.do(func() error {
			if gen != s.playGen {
				return nil
			}
			s.tickLocked()
			return nil
		})
	}
	if restart {
		s.scheduler.Restart(interval(s.playback.FPS), fn)
		return
	}
	if !s.scheduler.Start(interval(s.playback.FPS), fn) {
		s.scheduler.Restart(interval(s.playback.FPS), fn)
	}
}

// stopPlaybackLocked cancels ticks and restores the onion skin flag.
func (s *Studio) stopPlaybackLocked() {
	if !s.playback.Running {
		return
	}
	s.playGen++
	s.scheduler.Stop()
	s.playback.Running = false
	s.onion.Enabled = s.onionBeforePlay
	s.showLocked(s.timeline.Current())
	s.notify(EventPlayback, s.timeline.CurrentID())
	s.log.Info().Int("frame", s.timeline.CurrentID()).Msg("playback stopped")
}
