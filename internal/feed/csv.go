package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CSVProducer is the out-of-core CSV adapter implementing Producer. Column
// headers are case-insensitive; time accepts RFC3339 or unix seconds. This
// mirrors the teacher's loadCSV helper, reshaped to satisfy the Producer
// contract instead of returning a slice up front.
type CSVProducer struct {
	bars []Bar
	pos  int
}

// NewCSVProducer reads and sorts the full CSV eagerly (this adapter is
// always "preloadable"; IsLive reports false).
func NewCSVProducer(path string) (*CSVProducer, error) {
	bars, err := loadCSVBars(path)
	if err != nil {
		return nil, err
	}
	return &CSVProducer{bars: bars, pos: -1}, nil
}

func (c *CSVProducer) Start() error { return nil }
func (c *CSVProducer) Stop() error  { return nil }
func (c *CSVProducer) IsLive() bool { return false }
func (c *CSVProducer) GetNotifications() []Notification { return nil }

func (c *CSVProducer) Load() (LoadResult, error) {
	c.pos++
	if c.pos >= len(c.bars) {
		return LoadResult{End: true}, nil
	}
	return LoadResult{Bar: c.bars[c.pos], HasBar: true}, nil
}

func loadCSVBars(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []Bar
	var headers []string
	rowIdx := 0

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if rowIdx == 0 {
			headers = rec
			rowIdx++
			continue
		}
		row := map[string]string{}
		for j, h := range headers {
			k := strings.ToLower(strings.TrimSpace(h))
			if j < len(rec) {
				row[k] = strings.TrimSpace(rec[j])
			}
		}
		ts := firstNonEmpty(row, "time", "timestamp", "datetime")
		op := firstNonEmpty(row, "open")
		hp := firstNonEmpty(row, "high")
		lp := firstNonEmpty(row, "low")
		cp := firstNonEmpty(row, "close")
		vp := firstNonEmpty(row, "volume", "vol")
		oi := firstNonEmpty(row, "openinterest", "oi")
		if ts == "" || op == "" || cp == "" {
			continue
		}
		tt, err := parseTimeFlexible(ts)
		if err != nil {
			continue
		}
		o, _ := strconv.ParseFloat(op, 64)
		h, _ := strconv.ParseFloat(hp, 64)
		l, _ := strconv.ParseFloat(lp, 64)
		cl, _ := strconv.ParseFloat(cp, 64)
		v, _ := strconv.ParseFloat(vp, 64)
		o2, _ := strconv.ParseFloat(oi, 64)
		out = append(out, Bar{Datetime: tt, Open: o, High: h, Low: l, Close: cl, Volume: v, OpenInterest: o2})
		rowIdx++
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Datetime.Before(out[j].Datetime) })
	return out, nil
}

func parseTimeFlexible(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time: %s", s)
}

func firstNonEmpty(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
