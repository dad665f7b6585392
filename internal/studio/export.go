package studio

import (
	"context"
	"sync"

	"FrameStudio/internal/export"
	"FrameStudio/internal/state"
)

// Snapshot is the timeline as it stood when an export began.
type Snapshot struct {
	Frames    []state.Frame
	FPS       int
	SessionID string
}

// BeginExport stops playback, raises the busy flag and hands back a deep
// copy of the frames. Mutating controls return state.ErrBusy until release
// is called.
func (s *Studio) BeginExport() (Snapshot, func(), error) {
	var snap Snapshot
	err := s.do(func() error {
		if s.exporting {
			return state.ErrBusy
		}
		s.stopPlaybackLocked()
		s.surface.CancelStroke()
		s.dismissLocked()
		s.exporting = true
		snap = Snapshot{
			Frames:    s.timeline.Frames(),
			FPS:       s.playback.FPS,
			SessionID: s.sessionID,
		}
		s.notify(EventExport, 0)
		return nil
	})
	if err != nil {
		return Snapshot{}, func() {}, err
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			_ = s.do(func() error {
				s.exporting = false
				s.notify(EventExport, 0)
				return nil
			})
		})
	}
	return snap, release, nil
}

// ExportArchive builds the zip of frame images plus metadata.
func (s *Studio) ExportArchive(ctx context.Context, opts export.Options, progress export.ProgressFunc) (*export.Blob, error) {
	snap, release, err := s.BeginExport()
	if err != nil {
		return nil, err
	}
	defer release()

	if opts.SessionID == "" {
		opts.SessionID = snap.SessionID
	}
	blob, err := export.Archive(ctx, snap.Frames, snap.FPS, opts, progress)
	if err != nil {
		s.log.Error().Err(err).Msg("export failed")
		return nil, err
	}
	s.log.Info().Str("file", blob.Name).Int("bytes", len(blob.Data)).Msg("export finished")
	return blob, nil
}

// ExportContactSheet renders every drawn frame onto a printable PDF.
func (s *Studio) ExportContactSheet(ctx context.Context, opts export.SheetOptions) (*export.Blob, error) {
	snap, release, err := s.BeginExport()
	if err != nil {
		return nil, err
	}
	defer release()

	blob, err := export.ContactSheet(ctx, snap.Frames, snap.FPS, opts)
	if err != nil {
		s.log.Error().Err(err).Msg("contact sheet failed")
		return nil, err
	}
	return blob, nil
}
