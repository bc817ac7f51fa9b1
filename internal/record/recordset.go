// Package record provides the in-memory tabular result type that query and
// transfer operations hand back to callers.
package record

import (
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Recordset holds one tabular query result: ordered column names and rows.
type Recordset struct {
	Columns []string
	Rows    [][]any
}

// FromRows drains an open *sql.Rows into a Recordset. The rows are closed
// when the function returns. []byte cells are converted to string so results
// render and compare cleanly.
func FromRows(rows *sql.Rows) (*Recordset, error) {
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	rs := &Recordset{Columns: cols}

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]any, len(cols))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		rs.Rows = append(rs.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return rs, nil
}

// Len returns the number of rows.
func (r *Recordset) Len() int {
	return len(r.Rows)
}

// HasColumn reports whether a column with the given name exists.
func (r *Recordset) HasColumn(name string) bool {
	for _, c := range r.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddID prepends a 1-based "id" column. No-op when an id column exists.
func (r *Recordset) AddID() {
	if r.HasColumn("id") {
		return
	}
	r.Columns = append([]string{"id"}, r.Columns...)
	for i := range r.Rows {
		r.Rows[i] = append([]any{int64(i + 1)}, r.Rows[i]...)
	}
}

// AddTimestamp appends a "created_at" column filled with the given time.
// No-op when a created_at column exists.
func (r *Recordset) AddTimestamp(now time.Time) {
	if r.HasColumn("created_at") {
		return
	}
	r.Columns = append(r.Columns, "created_at")
	ts := now.Format("2006-01-02 15:04:05")
	for i := range r.Rows {
		r.Rows[i] = append(r.Rows[i], ts)
	}
}

// Clone returns a deep copy. Transfer operations that mutate column layout
// work on a copy so the caller's Recordset stays untouched.
func (r *Recordset) Clone() *Recordset {
	out := &Recordset{
		Columns: append([]string(nil), r.Columns...),
		Rows:    make([][]any, len(r.Rows)),
	}
	for i, row := range r.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}
	return out
}

// Render writes the recordset to w as a text table.
func (r *Recordset) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, len(r.Columns))
	for i, c := range r.Columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, row := range r.Rows {
		t.AppendRow(table.Row(row))
	}

	t.Render()
}
