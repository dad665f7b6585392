package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"FrameStudio/internal/state"
	"FrameStudio/internal/surface"

	"github.com/jung-kurt/gofpdf"
)

const DefaultSheetName = "animation_sheet.pdf"

// SheetOptions lays out the PDF contact sheet.
type SheetOptions struct {
	FileName string
	Columns  int
	Title    string
	Order    Order
	Now      func() time.Time
}

func (o SheetOptions) withDefaults() SheetOptions {
	if o.FileName == "" {
		o.FileName = DefaultSheetName
	}
	if o.Columns <= 0 {
		o.Columns = 4
	}
	if o.Title == "" {
		o.Title = "FrameStudio animation"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// ContactSheet prints the drawn frames as a grid on A4 landscape pages,
// each on a white card labelled with its sequence number. Blank frames
// keep their number but get no card.
func ContactSheet(ctx context.Context, frames []state.Frame, fps int, opts SheetOptions) (*Blob, error) {
	if !hasContent(frames) {
		return nil, &state.NoFramesError{}
	}
	opts = opts.withDefaults()
	fps = state.ClampFPS(fps)
	ordered := orderFrames(frames, opts.Order)

	const (
		margin = 10.0
		gap    = 6.0
		label  = 6.0
	)

	p := gofpdf.New("L", "mm", "A4", "")
	p.SetTitle(opts.Title, true)
	p.SetCreator("FrameStudio", true)
	p.SetMargins(margin, margin, margin)
	p.SetAutoPageBreak(false, margin)
	p.SetFooterFunc(func() {
		p.SetY(-margin)
		p.SetFont("Helvetica", "I", 8)
		p.CellFormat(0, 5, fmt.Sprintf("%d frames at %d fps, %.2f s  |  page %d",
			len(ordered), fps, Duration(len(ordered), fps), p.PageNo()), "", 0, "C", false, 0, "")
	})

	pageW, pageH := p.GetPageSize()
	cellW := (pageW - 2*margin - float64(opts.Columns-1)*gap) / float64(opts.Columns)

	p.AddPage()
	p.SetFont("Helvetica", "B", 14)
	p.CellFormat(0, 8, opts.Title, "", 1, "L", false, 0, "")
	p.SetFont("Helvetica", "", 9)
	p.CellFormat(0, 5, opts.Now().Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	top := p.GetY() + 2

	x, y := margin, top
	col := 0
	for i, f := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, &state.ExportError{Stage: "sheet", Err: err}
		}
		if f.Empty() {
			continue
		}
		cfg, err := surface.CheckPNG(f.ID, f.Buffer)
		if err != nil {
			return nil, &state.ExportError{Stage: "decode", Err: err}
		}
		cellH := cellW
		if cfg.Width > 0 {
			cellH = cellW * float64(cfg.Height) / float64(cfg.Width)
		}
		if y+cellH+label > pageH-margin-gap {
			p.AddPage()
			x, y, col = margin, margin, 0
		}

		p.SetDrawColor(180, 180, 180)
		p.SetFillColor(255, 255, 255)
		p.Rect(x, y, cellW, cellH, "FD")

		name := fmt.Sprintf("frame-%d", f.ID)
		imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
		p.RegisterImageOptionsReader(name, imgOpts, bytes.NewReader(f.Buffer))
		p.ImageOptions(name, x, y, cellW, cellH, false, imgOpts, 0, "")

		p.SetFont("Helvetica", "", 8)
		p.Text(x, y+cellH+4, fmt.Sprintf("Frame %d", i+1))

		col++
		x += cellW + gap
		if col == opts.Columns {
			col = 0
			x = margin
			y += cellH + label + gap
		}
	}

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, &state.ExportError{Stage: "pdf", Err: err}
	}
	return &Blob{Name: opts.FileName, MIMEType: "application/pdf", Data: buf.Bytes()}, nil
}
