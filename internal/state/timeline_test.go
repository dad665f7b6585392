package state

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(frames []Frame) []int {
	out := make([]int, len(frames))
	for i, f := range frames {
		out[i] = f.ID
	}
	return out
}

func newTimeline(t *testing.T, n int) *Timeline {
	t.Helper()
	tl := NewTimeline(zerolog.Nop())
	for i := 1; i < n; i++ {
		tl.AddFrame()
	}
	require.Equal(t, n, tl.Len())
	return tl
}

func TestNewTimeline(t *testing.T) {
	tl := NewTimeline(zerolog.Nop())
	assert.Equal(t, 1, tl.Len())
	assert.Equal(t, 1, tl.CurrentID())
	assert.True(t, tl.Current().Empty())
	assert.False(t, tl.HasClipboard())
}

func TestAddFrame(t *testing.T) {
	tl := newTimeline(t, 1)
	require.NoError(t, tl.SetBuffer(1, []byte("drawn")))

	f := tl.AddFrame()

	assert.Equal(t, 2, tl.Len())
	assert.True(t, f.Empty())
	assert.Equal(t, f.ID, tl.CurrentID())
	first, err := tl.Frame(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("drawn"), first.Buffer, "other frames keep their data")
}

func TestDeleteFrame_SoleFrameIsNoop(t *testing.T) {
	tl := newTimeline(t, 1)
	require.NoError(t, tl.SetBuffer(1, []byte("x")))
	before := tl.Frames()

	deleted, err := tl.DeleteFrame(1)

	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, before, tl.Frames())
	assert.Equal(t, 1, tl.CurrentID())
}

func TestDeleteFrame_CurrentMovesToFirst(t *testing.T) {
	tl := newTimeline(t, 3)
	require.NoError(t, tl.SetCurrent(2))

	deleted, err := tl.DeleteFrame(2)

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []int{1, 3}, ids(tl.Frames()))
	assert.Equal(t, 1, tl.CurrentID())
}

func TestDeleteFrame_KeepsCurrentWhenOtherDeleted(t *testing.T) {
	tl := newTimeline(t, 3)

	_, err := tl.DeleteFrame(1)

	require.NoError(t, err)
	assert.Equal(t, 3, tl.CurrentID())
}

func TestDeleteFrame_Unknown(t *testing.T) {
	tl := newTimeline(t, 2)
	_, err := tl.DeleteFrame(42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, tl.Len())
}

func TestIDsAreNeverReused(t *testing.T) {
	tl := newTimeline(t, 3)
	_, err := tl.DeleteFrame(3)
	require.NoError(t, err)

	f := tl.AddFrame()

	assert.Equal(t, 4, f.ID, "max+1 would have produced 3 again")
	assert.Equal(t, 4, tl.LastID())
}

func TestSetCurrent_Unknown(t *testing.T) {
	tl := newTimeline(t, 3)
	require.NoError(t, tl.SetCurrent(2))

	err := tl.SetCurrent(99)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, 99, nf.ID)
	assert.Equal(t, 2, tl.CurrentID())
}

func TestNavigate_Wraps(t *testing.T) {
	tl := newTimeline(t, 3)
	require.NoError(t, tl.SetCurrent(1))

	tests := []struct {
		dir  Direction
		want int
	}{
		{Prev, 3},
		{Prev, 2},
		{Next, 3},
		{Next, 1},
		{Next, 2},
	}
	for _, tt := range tests {
		f := tl.Navigate(tt.dir)
		assert.Equal(t, tt.want, f.ID)
		assert.Equal(t, tt.want, tl.CurrentID())
	}
}

func TestInsertAt(t *testing.T) {
	tests := []struct {
		name      string
		placement Placement
		anchor    int
		want      []int
	}{
		{"after first", After, 1, []int{1, 4, 2, 3}},
		{"before first", Before, 1, []int{4, 1, 2, 3}},
		{"after last", After, 3, []int{1, 2, 3, 4}},
		{"before middle", Before, 2, []int{1, 4, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := newTimeline(t, 3)
			buf := []byte("copied")

			f, err := tl.InsertAt(tt.placement, tt.anchor, buf)

			require.NoError(t, err)
			assert.Equal(t, 4, f.ID)
			assert.Equal(t, tt.want, ids(tl.Frames()))
			assert.Equal(t, 3, tl.CurrentID(), "insert does not move the cursor")

			buf[0] = 'X'
			got, err := tl.Frame(4)
			require.NoError(t, err)
			assert.Equal(t, []byte("copied"), got.Buffer)
		})
	}
}

func TestInsertAt_StaleAnchor(t *testing.T) {
	tl := newTimeline(t, 2)
	_, err := tl.InsertAt(After, 7, []byte("x"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, tl.Len())
}

func TestClipboardIsDeepCopy(t *testing.T) {
	tl := newTimeline(t, 2)
	require.NoError(t, tl.SetBuffer(1, []byte("abc")))
	require.NoError(t, tl.Copy(1))
	require.NoError(t, tl.SetBuffer(1, []byte("zzz")))

	buf, ok := tl.Clipboard()

	assert.True(t, ok)
	assert.Equal(t, []byte("abc"), buf)
	assert.ErrorIs(t, tl.Copy(9), ErrNotFound)
}

func TestFramesReturnsSnapshot(t *testing.T) {
	tl := newTimeline(t, 1)
	require.NoError(t, tl.SetBuffer(1, []byte("abc")))

	frames := tl.Frames()
	frames[0].Buffer[0] = 'Z'

	f, _ := tl.Frame(1)
	assert.Equal(t, []byte("abc"), f.Buffer)
}

func TestPrevious(t *testing.T) {
	tl := newTimeline(t, 3)

	_, ok := tl.Previous(1)
	assert.False(t, ok)

	f, ok := tl.Previous(3)
	assert.True(t, ok)
	assert.Equal(t, 2, f.ID)
}

func TestLengthNeverDropsBelowOne(t *testing.T) {
	tl := newTimeline(t, 4)
	for _, id := range []int{1, 2, 3, 4, 4, 3} {
		_, _ = tl.DeleteFrame(id)
		assert.GreaterOrEqual(t, tl.Len(), 1)
		assert.GreaterOrEqual(t, tl.IndexOf(tl.CurrentID()), 0)
	}
	assert.Equal(t, []int{4}, ids(tl.Frames()))
}
