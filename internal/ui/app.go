package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FrameStudio/internal/export"
	"FrameStudio/internal/net"
	"FrameStudio/internal/state"
	"FrameStudio/internal/studio"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
)

type Options struct {
	Title         string
	Width, Height int
	Export        export.Options
	Sheet         export.SheetOptions

	// HubURL, when set, is watched for the viewer count.
	HubURL string
	// ShareAddr is shown so others on the LAN can join the hub.
	ShareAddr string

	Log zerolog.Logger
}

// Editor wires the studio to the window.
type Editor struct {
	studio *studio.Studio
	opts   Options
	win    fyne.Window

	canvas  *CanvasWidget
	strip   *FrameStrip
	toolbar *Toolbar
	status  *widget.Label
	viewers *widget.Label

	log zerolog.Logger
}

func NewEditor(a fyne.App, s *studio.Studio, opts Options) *Editor {
	if opts.Title == "" {
		opts.Title = "FrameStudio"
	}
	e := &Editor{
		studio:  s,
		opts:    opts,
		win:     a.NewWindow(opts.Title),
		status:  widget.NewLabel("Ready"),
		viewers: widget.NewLabel(""),
		log:     opts.Log,
	}

	e.canvas = NewCanvasWidget(s, opts.Width, opts.Height)
	e.canvas.OnError = e.showError
	e.strip = NewFrameStrip(s)
	e.strip.OnError = e.showError
	e.toolbar = NewToolbar(s)
	e.toolbar.OnError = e.showError

	bar := e.toolbar.Build(e.addFrame, e.deleteFrame, e.exportArchive, e.exportSheet)
	footer := container.NewVBox(e.strip, container.NewHBox(e.status, widget.NewSeparator(), e.viewers))
	if opts.ShareAddr != "" {
		footer.Add(widget.NewLabel("Share: " + opts.ShareAddr))
	}
	content := container.NewBorder(bar, footer, nil, nil, container.NewCenter(e.canvas))

	e.win.SetContent(content)
	e.win.Resize(fyne.NewSize(float32(opts.Width)+80, float32(opts.Height)+260))

	s.SetOnChange(e.onChange)
	return e
}

// onChange runs on whatever goroutine changed the studio, playback ticks
// included, so all widget work is handed to fyne.Do. Stroke segments only
// repaint the canvas; the strip is laid out again only when the timeline
// itself changes.
func (e *Editor) onChange(ev studio.Event) {
	fyne.Do(func() {
		switch ev.Kind {
		case studio.EventStroke, studio.EventOnion:
			e.canvas.Sync()
		case studio.EventFrame:
			e.canvas.Sync()
			e.strip.Update(ev.FrameID)
		case studio.EventTimeline:
			e.strip.Rebuild()
			e.canvas.Sync()
		case studio.EventTool, studio.EventPlayback:
			e.toolbar.Sync()
		case studio.EventExport:
			e.toolbar.Sync()
		case studio.EventMenu:
		}
	})
}

func (e *Editor) addFrame() {
	if _, err := e.studio.AddFrame(); err != nil {
		e.showError(err)
	}
}

func (e *Editor) deleteFrame() {
	if err := e.studio.DeleteFrame(e.studio.CurrentID()); err != nil {
		e.showError(err)
	}
}

func (e *Editor) setStatus(text string) {
	fyne.Do(func() { e.status.SetText(text) })
}

func (e *Editor) showError(err error) {
	if errors.Is(err, state.ErrBusy) {
		e.setStatus("Export in progress")
		return
	}
	e.log.Error().Err(err).Msg("editor action failed")
	fyne.Do(func() { dialog.ShowError(err, e.win) })
}

// watchViewers keeps the viewer label current until ctx is done.
func (e *Editor) watchViewers(ctx context.Context) {
	for {
		err := net.Watch(ctx, e.opts.HubURL, func(n int) {
			fyne.Do(func() { e.viewers.SetText(fmt.Sprintf("Viewers: %d", n)) })
		})
		if ctx.Err() != nil {
			return
		}
		e.log.Debug().Err(err).Msg("viewer count unavailable, retrying")
		select {
		case <-ctx.Done():
			return
		case <-time.After(3 * time.Second):
		}
	}
}

func (e *Editor) ShowAndRun() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if e.opts.HubURL != "" {
		go e.watchViewers(ctx)
	}
	e.win.ShowAndRun()
}

// RunApp opens the editor window and blocks until it closes.
func RunApp(s *studio.Studio, opts Options) {
	a := app.NewWithID("io.framestudio.editor")
	NewEditor(a, s, opts).ShowAndRun()
}
