// Package writer implements the optional per-tick CSV writer described in
// spec §6: rows in column order id, per-data fields, per-strategy fields,
// flushed on each tick after strategy Next.
package writer

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
)

// CSVWriter appends one row per tick: a monotonically increasing id, the
// data fields supplied for that tick, and the strategy fields (indicator
// values). NaN values are written as empty fields, matching the original's
// csv_filternan default.
type CSVWriter struct {
	w       *csv.Writer
	headers []string
	id      int
	wrote   bool
}

// NewCSVWriter wraps dst with a csv.Writer and the given column headers
// (after the implicit leading "id" column).
func NewCSVWriter(dst io.Writer, dataFields, strategyFields []string) *CSVWriter {
	headers := append([]string{"id"}, dataFields...)
	headers = append(headers, strategyFields...)
	return &CSVWriter{w: csv.NewWriter(dst), headers: headers}
}

// WriteRow appends one tick's values, in the same order as the headers
// passed to NewCSVWriter (data fields, then strategy fields). The writer
// writes its header row lazily on the first call.
func (c *CSVWriter) WriteRow(values []float64) error {
	if !c.wrote {
		if err := c.w.Write(c.headers); err != nil {
			return err
		}
		c.wrote = true
	}
	c.id++
	row := make([]string, 0, len(values)+1)
	row = append(row, strconv.Itoa(c.id))
	for _, v := range values {
		if math.IsNaN(v) {
			row = append(row, "")
			continue
		}
		row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
	}
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes any buffered output. The underlying io.Writer's own close
// (if it has one) is the caller's responsibility.
func (c *CSVWriter) Close() error {
	c.w.Flush()
	return c.w.Error()
}
