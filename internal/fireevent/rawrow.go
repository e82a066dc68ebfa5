package fireevent

import (
	"bytes"
	"encoding/json"
)

// EndOfFileMarker is the distinguished attribute carried by the sentinel row
// the CSV reader yields once a file is exhausted (§3 Raw Row).
const EndOfFileMarker = "_end_"

// RawRow is an ordered mapping of column name to string value, as produced by
// the CSV reader. Field order is preserved (matching the CSV header order) so
// JSON serialisation round-trips deterministically.
type RawRow struct {
	columns []string
	values  map[string]string
}

// NewRawRow builds a RawRow from parallel header/value slices.
func NewRawRow(columns, values []string) RawRow {
	m := make(map[string]string, len(columns))
	cols := make([]string, 0, len(columns))
	for i, c := range columns {
		if i >= len(values) {
			break
		}
		if _, seen := m[c]; !seen {
			cols = append(cols, c)
		}
		m[c] = values[i]
	}
	return RawRow{columns: cols, values: m}
}

// EndOfFileRow is the sentinel row signalling a file's end.
func EndOfFileRow() RawRow {
	return RawRow{
		columns: []string{EndOfFileMarker},
		values:  map[string]string{EndOfFileMarker: "true"},
	}
}

// IsEndOfFile reports whether this row is the end-of-file sentinel.
func (r RawRow) IsEndOfFile() bool {
	_, ok := r.values[EndOfFileMarker]
	return ok
}

// Get returns the string value for a column, or "" if absent.
func (r RawRow) Get(column string) string {
	return r.values[column]
}

// Has reports whether the column is present in the row at all.
func (r RawRow) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// Columns returns the ordered column names.
func (r RawRow) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// MarshalJSON emits the row as a JSON object with keys in column order.
func (r RawRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[c])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a RawRow from a JSON object. The column order of
// the decoded row is not the object's key order (keys are collected from a
// map), so callers that require a specific column order should not
// round-trip through this path; it exists to decode raw-topic messages.
func (r *RawRow) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	cols := make([]string, 0, len(m))
	for k := range m {
		cols = append(cols, k)
	}
	r.columns = cols
	r.values = m
	return nil
}
