package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// encodeCSV serializes rows (header included) to csv bytes
func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeCSV parses csv bytes back into rows
func decodeCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	return rows, nil
}
