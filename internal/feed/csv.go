package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinsim/trade-engine/internal/model"
)

// LoadCSV reads bars from a provider export. The first row is a header;
// it must contain timestamp, open, and close columns (any order, extra
// columns such as high/low/volume are ignored). Timestamps are RFC 3339.
func LoadCSV(r io.Reader) ([]model.PriceBar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("feed: read csv header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"timestamp", "open", "close"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("feed: csv missing %q column", required)
		}
	}

	var bars []model.PriceBar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("feed: csv line %d: %w", line, err)
		}

		ts, err := time.Parse(time.RFC3339, rec[cols["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("feed: csv line %d: bad timestamp: %w", line, err)
		}
		open, err := decimal.NewFromString(rec[cols["open"]])
		if err != nil {
			return nil, fmt.Errorf("feed: csv line %d: bad open: %w", line, err)
		}
		closing, err := decimal.NewFromString(rec[cols["close"]])
		if err != nil {
			return nil, fmt.Errorf("feed: csv line %d: bad close: %w", line, err)
		}

		bars = append(bars, model.PriceBar{Open: open, Close: closing, Timestamp: ts})
	}

	return bars, nil
}
