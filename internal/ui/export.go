package ui

import (
	"context"
	"errors"
	"fmt"

	"FrameStudio/internal/export"
	"FrameStudio/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

func (e *Editor) exportArchive() {
	name := e.opts.Export.FileName
	if name == "" {
		name = export.DefaultArchiveName
	}
	e.saveAs(name, func(ctx context.Context, progress export.ProgressFunc) (*export.Blob, error) {
		return e.studio.ExportArchive(ctx, e.opts.Export, progress)
	})
}

func (e *Editor) exportSheet() {
	name := e.opts.Sheet.FileName
	if name == "" {
		name = export.DefaultSheetName
	}
	e.saveAs(name, func(ctx context.Context, _ export.ProgressFunc) (*export.Blob, error) {
		return e.studio.ExportContactSheet(ctx, e.opts.Sheet)
	})
}

type buildFunc func(ctx context.Context, progress export.ProgressFunc) (*export.Blob, error)

// saveAs asks for a destination, then builds the file off the UI goroutine
// with a progress dialog up.
func (e *Editor) saveAs(name string, build buildFunc) {
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil {
			e.showError(err)
			return
		}
		if w == nil {
			return // cancelled
		}
		go e.runExport(w, build)
	}, e.win)
	d.SetFileName(name)
	d.Show()
}

func (e *Editor) runExport(w fyne.URIWriteCloser, build buildFunc) {
	defer func() {
		if err := w.Close(); err != nil {
			e.log.Error().Err(err).Msg("close export file")
		}
	}()

	bar := widget.NewProgressBar()
	var progress dialog.Dialog
	fyne.DoAndWait(func() {
		progress = dialog.NewCustomWithoutButtons("Exporting", bar, e.win)
		progress.Show()
	})
	e.setStatus("Exporting...")

	blob, err := build(context.Background(), func(p int) {
		fyne.Do(func() { bar.SetValue(float64(p) / 100) })
	})
	fyne.Do(progress.Hide)

	if err != nil {
		if errors.Is(err, state.ErrNoFrames) {
			e.setStatus("Nothing to export")
			fyne.Do(func() {
				dialog.ShowInformation("Nothing to export", "No frames to export!", e.win)
			})
			return
		}
		e.setStatus("Export failed")
		e.showError(err)
		return
	}

	if _, err := blob.WriteTo(w); err != nil {
		e.setStatus("Export failed")
		e.showError(fmt.Errorf("write %s: %w", w.URI().Name(), err))
		return
	}
	e.log.Info().Str("uri", w.URI().String()).Int("bytes", len(blob.Data)).Msg("export saved")
	e.setStatus(fmt.Sprintf("Saved %s", w.URI().Name()))
	fyne.Do(func() {
		dialog.ShowInformation("Export complete", fmt.Sprintf("Your animation has been saved as %s.", w.URI().Name()), e.win)
	})
}
