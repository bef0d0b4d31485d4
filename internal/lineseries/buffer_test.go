package lineseries

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferForwardAndGet(t *testing.T) {
	b := NewBuffer(ModeFull)
	b.Forward(1)
	b.Set(0, 1.0)
	b.Forward(1)
	b.Set(0, 2.0)
	b.Forward(1)
	b.Set(0, 3.0)

	require.Equal(t, 3, b.Len())
	require.Equal(t, 3.0, b.Get(0))
	require.Equal(t, 2.0, b.Get(1))
	require.Equal(t, 1.0, b.Get(2))
	require.True(t, math.IsNaN(b.Get(3)))
}

func TestBufferRewindAndHome(t *testing.T) {
	b := NewBuffer(ModeFull)
	for i := 0; i < 5; i++ {
		b.Forward(1)
		b.Set(0, float64(i))
	}
	b.Rewind(2)
	require.Equal(t, 0.0, b.Get(2))
	b.Home()
	require.Equal(t, 0, b.Len())
}

func TestBufferGetStrictOutOfRange(t *testing.T) {
	b := NewBuffer(ModeFull)
	b.Forward(1)
	b.Set(0, 1.0)
	_, err := b.GetStrict(5)
	require.Error(t, err)
	v, err := b.GetStrict(0)
	require.NoError(t, err)
	require.Equal(t, 1.0, v)
}

func TestLineOpAddNext(t *testing.T) {
	a := NewBuffer(ModeFull)
	b := NewBuffer(ModeFull)
	a.Forward(1)
	a.Set(0, 2.0)
	b.Forward(1)
	b.Set(0, 3.0)
	op := Add(a, b, ModeFull)
	op.Next()
	require.Equal(t, 5.0, op.Out().Get(0))
}

func TestLineOpDivSafeZeroOverZero(t *testing.T) {
	a := NewBuffer(ModeFull)
	b := NewBuffer(ModeFull)
	a.Forward(1)
	a.Set(0, 0.0)
	b.Forward(1)
	b.Set(0, 0.0)
	op := DivSafe(a, b, ModeFull)
	op.Next()
	require.Equal(t, 0.0, op.Out().Get(0))
}
