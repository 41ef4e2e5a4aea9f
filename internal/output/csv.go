package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/rgehrsitz/viability/internal/domain"
)

// CSVBandsFormatter writes one row per age with the balance percentiles
type CSVBandsFormatter struct{}

func (c CSVBandsFormatter) Name() string { return "csv" }

func (c CSVBandsFormatter) Format(r *Report) ([]byte, error) {
	if r == nil || r.Result == nil {
		return nil, fmt.Errorf("no result to format")
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	header := []string{"age", "trials"}
	for _, p := range domain.BandPercentiles {
		header = append(header, "p"+strconv.Itoa(int(p*100+0.5)))
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, b := range r.Result.PercentileBands {
		row := []string{strconv.Itoa(b.Age), strconv.Itoa(b.Trials)}
		for _, v := range b.Values() {
			row = append(row, v.StringFixed(2))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
