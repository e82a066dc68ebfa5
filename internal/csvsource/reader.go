// Package csvsource implements the lazy, forward-only CSV row reader used by
// the source stage (§4.5). It wraps encoding/csv, which already tolerates
// RFC-4180 quoted multi-line fields, and terminates the sequence with the
// fireevent end-of-file sentinel row rather than a bare io.EOF.
package csvsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/calebebrim/fireevents-pipeline/internal/fireevent"
)

// Reader yields rows from a single CSV file, one at a time, and is not
// restartable: once exhausted it must be discarded, matching §4.5's
// "non-restartable sequence".
type Reader struct {
	file   *os.File
	csv    *csv.Reader
	header []string
	sent   bool // the end-of-file sentinel has already been yielded
	done   bool // the sentinel has been yielded and consumed
}

// Open reads the header row from path and returns a Reader positioned at the
// first data row.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvsource: open %s: %w", path, err)
	}
	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("csvsource: read header of %s: %w", path, err)
	}
	return &Reader{file: f, csv: cr, header: header}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Next returns the next raw row. Once the file is exhausted it returns the
// end-of-file sentinel exactly once; any subsequent call returns io.EOF.
func (r *Reader) Next() (fireevent.RawRow, error) {
	if r.done {
		return fireevent.RawRow{}, io.EOF
	}
	record, err := r.csv.Read()
	if err == io.EOF {
		r.done = true
		r.sent = true
		return fireevent.EndOfFileRow(), nil
	}
	if err != nil {
		return fireevent.RawRow{}, fmt.Errorf("csvsource: read row: %w", err)
	}
	return fireevent.NewRawRow(r.header, record), nil
}
