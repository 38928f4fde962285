package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type point struct {
	X, Y int64
}

func TestAllocReturnsZeroedValues(t *testing.T) {
	var a Arena[point]
	h1, p1 := a.Alloc()
	h2, p2 := a.Alloc()
	require.True(t, h1.IsValid())
	require.NotEqual(t, h1, h2)
	require.Equal(t, point{}, *p1)
	p1.X = 3
	p2.Y = 4
	got, ok := a.Get(h1)
	require.True(t, ok)
	require.Equal(t, int64(3), got.X)
	require.Equal(t, 2, a.Len())
	require.Equal(t, 1, a.Blocks())
}

func TestBlocksAreAtLeastOneMegabyte(t *testing.T) {
	var a Arena[point]
	perBlock := BlockBytes / 16
	for i := 0; i < perBlock; i++ {
		a.Alloc()
	}
	require.Equal(t, 1, a.Blocks())
	a.Alloc()
	require.Equal(t, 2, a.Blocks())
}

func TestAllocSliceLargerThanBlock(t *testing.T) {
	var a Arena[byte]
	s := a.AllocSlice(BlockBytes + 10)
	require.Len(t, s, BlockBytes+10)
	require.Equal(t, BlockBytes+10, cap(s))
	require.Equal(t, 1, a.Blocks())
	small := a.AllocSlice(4)
	require.Equal(t, 2, a.Blocks())
	require.Equal(t, 4, cap(small))
}

func TestAllocSliceDoesNotAlias(t *testing.T) {
	var a Arena[int]
	s1 := a.AllocSlice(2)
	s2 := a.AllocSlice(2)
	s1 = append(s1, 7)
	require.Equal(t, []int{0, 0}, s2)
	require.Len(t, s1, 3)
}

func TestReleaseInvalidatesHandles(t *testing.T) {
	var a Arena[point]
	h, _ := a.Alloc()
	a.Release()
	_, ok := a.Get(h)
	require.False(t, ok)
	require.Equal(t, 0, a.Blocks())

	h2, _ := a.Alloc()
	require.Equal(t, uint32(0), h2.Index)
	require.NotEqual(t, h.Gen, h2.Gen)
	_, ok = a.Get(h2)
	require.True(t, ok)
}
