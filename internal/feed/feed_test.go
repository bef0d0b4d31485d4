package feed

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTestCSV(t *testing.T, rows string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "bars-*.csv")
	require.NoError(t, err)
	_, err = f.WriteString(rows)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

const sampleCSV = `time,open,high,low,close,volume
2024-01-01T00:00:00Z,10,12,9,11,100
2024-01-02T00:00:00Z,11,13,10,12,110
2024-01-03T00:00:00Z,12,14,11,13,120
`

func TestCSVFeedLoadsBarsInOrder(t *testing.T) {
	path := writeTestCSV(t, sampleCSV)
	prod, err := NewCSVProducer(path)
	require.NoError(t, err)
	f := NewFeed("test", prod)

	var closes []float64
	for {
		ok, end, err := f.Load()
		require.NoError(t, err)
		if end {
			break
		}
		require.True(t, ok)
		closes = append(closes, f.Line(LineClose).Get(0))
	}
	require.Equal(t, []float64{11, 12, 13}, closes)
}

func TestCSVFeedPreloadThenHome(t *testing.T) {
	path := writeTestCSV(t, sampleCSV)
	prod, err := NewCSVProducer(path)
	require.NoError(t, err)
	f := NewFeed("test", prod)
	require.NoError(t, f.Preload())
	require.Equal(t, 0, f.Len())
	require.Equal(t, 3, f.Buflen())
}

func TestBarUpdateAggregatesOHLCV(t *testing.T) {
	b := NewOpenBar(Bar{Datetime: time.Unix(0, 0), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 5})
	b.Update(Bar{Datetime: time.Unix(60, 0), Open: 10.5, High: 12, Low: 10, Close: 11, Volume: 7})
	require.Equal(t, 12.0, b.High)
	require.Equal(t, 9.0, b.Low)
	require.Equal(t, 11.0, b.Close)
	require.Equal(t, 12.0, b.Volume)
}
