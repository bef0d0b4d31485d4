package linetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	dt := Encode(in)
	out := Decode(dt)
	require.WithinDuration(t, in, out, time.Millisecond)
}

func TestNoneAndMaxSentinels(t *testing.T) {
	require.True(t, Before(None, Encode(time.Now())))
	require.True(t, Before(Encode(time.Now()), Max))
}

func TestSameInstantTolerance(t *testing.T) {
	in := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := Encode(in)
	b := Encode(in.Add(time.Microsecond / 10))
	require.True(t, SameInstant(a, b))
}
