package writer

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVWriterWritesHeaderThenRows(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf, []string{"close"}, []string{"sma"})

	require.NoError(t, w.WriteRow([]float64{10.5, math.NaN()}))
	require.NoError(t, w.WriteRow([]float64{11.0, 10.8}))
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "id,close,sma", lines[0])
	require.Equal(t, "1,10.5,", lines[1])
	require.Equal(t, "2,11,10.8", lines[2])
}
