package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameTableTakeFreeLowestFirst(t *testing.T) {
	ft := NewFrameTable(4)

	for want := 0; want < 4; want++ {
		i := ft.TakeFree()
		require.Equal(t, want, i)
		ft.Install(i, key("A", want))
	}
	assert.Equal(t, -1, ft.TakeFree(), "full table has no free frame")
	assert.True(t, ft.Full())

	ft.Release(2)
	ft.Release(0)
	ft.Release(3)
	require.NoError(t, ft.check("test"))

	assert.Equal(t, 0, ft.TakeFree())
	assert.Equal(t, 2, ft.TakeFree())
	assert.Equal(t, 3, ft.TakeFree())
}

func TestFrameTableLookupAndEvict(t *testing.T) {
	ft := NewFrameTable(2)
	ft.Install(ft.TakeFree(), key("A", 0))
	ft.Install(ft.TakeFree(), key("B", 0))

	assert.Equal(t, 1, ft.Lookup(key("B", 0)))
	assert.Equal(t, -1, ft.Lookup(key("C", 0)))

	old, ok := ft.Evict(1)
	require.True(t, ok)
	assert.Equal(t, key("B", 0), old)
	assert.Equal(t, -1, ft.Lookup(key("B", 0)))
	assert.Equal(t, 1, ft.Occupied())

	_, ok = ft.Evict(1)
	assert.False(t, ok, "evicting an empty frame reports nothing")

	ft.Install(1, key("C", 0))
	require.NoError(t, ft.check("test"))
	assert.Equal(t, []*PageKey{ptr(key("A", 0)), ptr(key("C", 0))}, ft.Snapshot())
}

func TestFrameTableReset(t *testing.T) {
	ft := NewFrameTable(3)
	ft.Install(ft.TakeFree(), key("A", 0))
	ft.Install(ft.TakeFree(), key("A", 1))

	ft.Reset()

	assert.Zero(t, ft.Occupied())
	assert.Equal(t, make([]*PageKey, 3), ft.Snapshot())
	assert.Equal(t, 0, ft.TakeFree())
}

func TestFrameTableCheckDetectsDesync(t *testing.T) {
	ft := NewFrameTable(2)
	ft.Install(ft.TakeFree(), key("A", 0))

	delete(ft.index, key("A", 0))

	err := ft.check("test")
	require.Error(t, err)
	assert.True(t, IsErrorCode(err, ErrCodeInvariantViolation))
}

func TestFrameTableInvalidSize(t *testing.T) {
	assert.Panics(t, func() { NewFrameTable(0) })
}
