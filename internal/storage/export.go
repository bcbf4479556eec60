package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/pidlab/internal/dynamo"
)

var csvHeader = []string{"time", "y"}

// WriteCSV writes a time,y table with full float precision.
func WriteCSV(w io.Writer, times, output []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i := range times {
		row := []string{
			strconv.FormatFloat(times[i], 'g', -1, 64),
			strconv.FormatFloat(output[i], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV.
func ReadCSV(r *csv.Reader) (times, output []float64, err error) {
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("response csv: missing header")
	}

	times = make([]float64, 0, len(records)-1)
	output = make([]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != 2 {
			return nil, nil, fmt.Errorf("response csv: row %d has %d fields", i+1, len(record))
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("response csv: row %d: %w", i+1, err)
		}
		y, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("response csv: row %d: %w", i+1, err)
		}
		times = append(times, t)
		output = append(output, y)
	}
	return times, output, nil
}

type ExportData struct {
	RunMetadata
	Times  []float64 `json:"times"`
	Output []float64 `json:"output"`
}

// ExportJSON writes metadata and samples as one JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	meta.Metrics = finite(meta.Metrics)
	data := ExportData{
		RunMetadata: meta,
		Times:       result.Times,
		Output:      result.Output,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
