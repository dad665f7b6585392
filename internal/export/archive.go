// Package export turns a timeline snapshot into downloadable files: a zip
// of numbered PNG frames with an info sheet, or a printable PDF contact
// sheet. Neither touches the frames it is given.
package export

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"FrameStudio/internal/state"
	"FrameStudio/internal/surface"
)

const (
	DefaultArchiveName      = "animation_frames.zip"
	DefaultCompressionLevel = 6
	InfoFileName            = "animation_info.txt"
)

// Order selects the frame order used for numbering.
type Order int

const (
	// OrderByID sorts frames by ascending id before numbering.
	OrderByID Order = iota
	// OrderByDisplay keeps the timeline's display order.
	OrderByDisplay
)

// ParseOrder maps a config value to an Order; unknown values mean by id.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), "display") {
		return OrderByDisplay
	}
	return OrderByID
}

// ProgressFunc receives a percentage after each frame is processed.
type ProgressFunc func(percent int)

type Options struct {
	FileName         string
	CompressionLevel int
	Order            Order
	SessionID        string
	Now              func() time.Time
}

func (o Options) withDefaults() Options {
	if o.FileName == "" {
		o.FileName = DefaultArchiveName
	}
	if o.CompressionLevel < flate.HuffmanOnly || o.CompressionLevel > flate.BestCompression || o.CompressionLevel == 0 {
		o.CompressionLevel = DefaultCompressionLevel
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Blob is an in-memory file ready to hand to the user.
type Blob struct {
	Name     string
	MIMEType string
	Data     []byte
}

func (b *Blob) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Data)
	return int64(n), err
}

// Archive packs every non-blank frame as frame_NNN.png plus an info file.
// Numbering counts every frame, blank ones included, so a blank frame
// leaves a gap in the sequence.
func Archive(ctx context.Context, frames []state.Frame, fps int, opts Options, progress ProgressFunc) (*Blob, error) {
	if !hasContent(frames) {
		return nil, &state.NoFramesError{}
	}
	opts = opts.withDefaults()
	fps = state.ClampFPS(fps)
	now := opts.Now()

	ordered := orderFrames(frames, opts.Order)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, opts.CompressionLevel)
	})

	total := len(ordered)
	for i, f := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, &state.ExportError{Stage: "frames", Err: err}
		}
		if !f.Empty() {
			if _, err := surface.CheckPNG(f.ID, f.Buffer); err != nil {
				return nil, &state.ExportError{Stage: "decode", Err: err}
			}
			if err := addFile(zw, FrameFileName(i+1), f.Buffer, now); err != nil {
				return nil, &state.ExportError{Stage: "write", Err: err}
			}
		}
		if progress != nil {
			progress(percent(i+1, total))
		}
	}

	info := Metadata(total, fps, opts.SessionID, now)
	if err := addFile(zw, InfoFileName, []byte(info), now); err != nil {
		return nil, &state.ExportError{Stage: "metadata", Err: err}
	}
	if err := zw.Close(); err != nil {
		return nil, &state.ExportError{Stage: "compress", Err: err}
	}

	return &Blob{Name: opts.FileName, MIMEType: "application/zip", Data: buf.Bytes()}, nil
}

// FrameFileName is the archive entry for sequence number seq (1-based).
func FrameFileName(seq int) string {
	return fmt.Sprintf("frame_%03d.png", seq)
}

// Duration is the recommended playback length of count frames at fps.
func Duration(count, fps int) float64 {
	return float64(count) / float64(state.ClampFPS(fps))
}

// Metadata renders the info file stored next to the frames.
func Metadata(count, fps int, sessionID string, now time.Time) string {
	var b strings.Builder
	b.WriteString("Animation exported from FrameStudio\n")
	fmt.Fprintf(&b, "Date: %s\n", now.Format("2006-01-02 15:04:05"))
	if sessionID != "" {
		fmt.Fprintf(&b, "Session: %s\n", sessionID)
	}
	fmt.Fprintf(&b, "Frames: %d\n", count)
	fmt.Fprintf(&b, "FPS: %d\n", fps)
	fmt.Fprintf(&b, "Recommended duration: %.2f seconds\n", Duration(count, fps))
	b.WriteString("\nThis archive holds still frames only. To turn them into a GIF or video, ")
	b.WriteString("use an external tool such as GIMP, ffmpeg or an online converter.\n")
	return b.String()
}

func addFile(zw *zip.Writer, name string, data []byte, mod time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: mod,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func hasContent(frames []state.Frame) bool {
	for _, f := range frames {
		if !f.Empty() {
			return true
		}
	}
	return false
}

// orderFrames copies the frame headers; buffers are shared read-only.
func orderFrames(frames []state.Frame, o Order) []state.Frame {
	out := make([]state.Frame, len(frames))
	copy(out, frames)
	if o == OrderByID {
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	return out
}

func percent(done, total int) int {
	return int(math.Round(float64(done) / float64(total) * 100))
}
