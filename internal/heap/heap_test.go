package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/awesome-interesting-projects/kiss/internal/object"
)

func TestRegisterAppendsAndTracksLen(t *testing.T) {
	h := New(4)
	assert.Equal(t, 0, h.Len())

	c := h.Register(object.NewCons(object.T, object.Nil))
	assert.Equal(t, 1, h.Len())
	assert.Same(t, c, h.Roots()[0])
}

func TestWatermarkAndRewindDiscardsIntermediates(t *testing.T) {
	h := New(4)
	h.Register(object.NewFloat(1))
	wm := h.Watermark()
	h.Register(object.NewFloat(2))
	h.Register(object.NewFloat(3))
	assert.Equal(t, 3, h.Len())

	h.Rewind(wm)
	assert.Equal(t, wm, h.Len())
}

func TestCompactMovesHeapOwnedResultIntoWatermarkSlot(t *testing.T) {
	h := New(4)
	wm := h.Watermark()
	intermediate := h.Register(object.NewCons(object.NewFixnum(1), object.Nil))
	result := h.Register(object.NewCons(object.NewFixnum(2), object.Nil))
	assert.Equal(t, wm+2, h.Len())

	h.Compact(wm, result)
	assert.Equal(t, wm+1, h.Len())
	assert.Same(t, result, h.Roots()[wm])
	_ = intermediate
}

func TestCompactDropsIntermediatesWhenResultIsNotHeapOwned(t *testing.T) {
	h := New(4)
	wm := h.Watermark()
	h.Register(object.NewCons(object.NewFixnum(1), object.Nil))

	h.Compact(wm, object.Nil) // symbols (including nil/t) are never heap-owned
	assert.Equal(t, wm, h.Len())
}

func TestCompactNoopWhenNothingGrewPastWatermark(t *testing.T) {
	h := New(4)
	wm := h.Watermark()
	h.Compact(wm, object.Nil)
	assert.Equal(t, wm, h.Len())
}

func TestSoftLimit(t *testing.T) {
	h := New(1, WithSoftLimit(2))
	assert.False(t, h.OverSoftLimit())
	h.Register(object.NewFixnum(1))
	assert.False(t, h.OverSoftLimit())
	h.Register(object.NewFixnum(2))
	assert.False(t, h.OverSoftLimit())
	h.Register(object.NewFixnum(3))
	assert.True(t, h.OverSoftLimit())
}

func TestDefaultSoftLimit(t *testing.T) {
	h := New(1)
	assert.False(t, h.OverSoftLimit())
}
