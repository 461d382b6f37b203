package distmat

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Record is one line of the pair table. A and B are the stems of the
// refined files, like 0_1abc_GLC_401_A.
type Record struct {
	A, B string
	RMSD float64
}

var recordHeader = []string{"structure1", "structure2", "rmsd"}

// RecordWriter writes the pair table as csv, one record at a time, so
// a long run leaves a partial table behind if it dies.
type RecordWriter struct {
	w *csv.Writer
}

// NewRecordWriter writes the header straight away.
func NewRecordWriter(w io.Writer) (*RecordWriter, error) {
	rw := &RecordWriter{w: csv.NewWriter(w)}
	if err := rw.w.Write(recordHeader); err != nil {
		return nil, err
	}
	return rw, nil
}

func (rw *RecordWriter) Write(r Record) error {
	return rw.w.Write([]string{r.A, r.B, strconv.FormatFloat(r.RMSD, 'g', -1, 64)})
}

// Flush must be called at the end.
func (rw *RecordWriter) Flush() error {
	rw.w.Flush()
	return rw.w.Error()
}

// ReadRecords reads a table written by RecordWriter.
func ReadRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(recordHeader)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty pair table")
	}
	for i, h := range recordHeader {
		if rows[0][i] != h {
			return nil, fmt.Errorf("pair table header: got %q, want %q", rows[0][i], h)
		}
	}
	recs := make([]Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		v, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("pair table line %d: %w", n+2, err)
		}
		recs = append(recs, Record{A: row[0], B: row[1], RMSD: v})
	}
	return recs, nil
}
