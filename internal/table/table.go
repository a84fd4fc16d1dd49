package table

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Table is an immutable, column-major dataset. Every derivation returns a new
// Table and leaves the receiver untouched.
type Table struct {
	name  string
	cols  []string
	index map[string]int
	data  [][]Value
	rows  int
}

// New builds a table from row-major data. Every row must have one value per column.
func New(name string, columns []string, rows [][]Value) (*Table, error) {
	data := make([][]Value, len(columns))
	for c := range data {
		data[c] = make([]Value, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", r+1, len(row), len(columns))
		}
		for c, v := range row {
			data[c][r] = v
		}
	}
	return build(name, columns, data, len(rows))
}

// FromColumns builds a table from column-major data of equal length.
func FromColumns(name string, columns []string, data [][]Value) (*Table, error) {
	if len(data) != len(columns) {
		return nil, fmt.Errorf("%d columns named but %d provided", len(columns), len(data))
	}
	n := 0
	for c, col := range data {
		if c == 0 {
			n = len(col)
		} else if len(col) != n {
			return nil, fmt.Errorf("column %q has %d values, want %d", columns[c], len(col), n)
		}
	}
	cp := make([][]Value, len(data))
	for c, col := range data {
		cp[c] = append([]Value(nil), col...)
	}
	return build(name, columns, cp, n)
}

func build(name string, columns []string, data [][]Value, rows int) (*Table, error) {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := idx[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		idx[c] = i
	}
	return &Table{
		name:  name,
		cols:  append([]string(nil), columns...),
		index: idx,
		data:  data,
		rows:  rows,
	}, nil
}

func (t *Table) Name() string { return t.name }
func (t *Table) NumRows() int { return t.rows }
func (t *Table) NumCols() int { return len(t.cols) }

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t == nil || t.rows == 0 }

// Columns returns the ordered column names.
func (t *Table) Columns() []string { return append([]string(nil), t.cols...) }

// Has reports whether the named column exists.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Column returns a copy of the named column.
func (t *Table) Column(col string) ([]Value, bool) {
	i, ok := t.index[col]
	if !ok {
		return nil, false
	}
	return append([]Value(nil), t.data[i]...), true
}

// Value returns the cell at row r of column col, or null when the column is absent.
func (t *Table) Value(r int, col string) Value {
	i, ok := t.index[col]
	if !ok || r < 0 || r >= t.rows {
		return Value{}
	}
	return t.data[i][r]
}

// Row returns a copy of row r in column order.
func (t *Table) Row(r int) []Value {
	out := make([]Value, len(t.cols))
	for c := range t.cols {
		out[c] = t.data[c][r]
	}
	return out
}

// Where returns the rows for which keep reports true.
func (t *Table) Where(keep func(r int) bool) *Table {
	var rows []int
	for r := 0; r < t.rows; r++ {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return t.Select(rows)
}

// Select returns the given rows, in the given order.
func (t *Table) Select(rows []int) *Table {
	data := make([][]Value, len(t.cols))
	for c := range t.cols {
		col := make([]Value, len(rows))
		for i, r := range rows {
			col[i] = t.data[c][r]
		}
		data[c] = col
	}
	return &Table{name: t.name, cols: t.Columns(), index: t.index, data: data, rows: len(rows)}
}

// WithColumn returns a table where col holds vals. An existing column is
// replaced in place; a new one is appended.
func (t *Table) WithColumn(col string, vals []Value) (*Table, error) {
	if len(vals) != t.rows {
		return nil, fmt.Errorf("column %q has %d values, want %d", col, len(vals), t.rows)
	}
	data := make([][]Value, len(t.cols))
	copy(data, t.data)
	cols := t.Columns()
	if i, ok := t.index[col]; ok {
		data[i] = append([]Value(nil), vals...)
		return &Table{name: t.name, cols: cols, index: t.index, data: data, rows: t.rows}, nil
	}
	data = append(data, append([]Value(nil), vals...))
	return build(t.name, append(cols, col), data, t.rows)
}

// Renamed returns the same data under a different dataset name.
func (t *Table) Renamed(name string) *Table {
	cp := *t
	cp.name = name
	return &cp
}

// Fingerprint hashes the table name, header and every cell. Equal
// fingerprints mean equal content.
func (t *Table) Fingerprint() string {
	h := sha1.New()
	h.Write([]byte(t.name))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(t.cols, "\x1f")))
	h.Write([]byte{0})
	for r := 0; r < t.rows; r++ {
		for c := range t.cols {
			v := t.data[c][r]
			h.Write([]byte{byte(v.kind)})
			h.Write([]byte(v.Text()))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Records returns one map per row keyed by column name.
func (t *Table) Records() []map[string]Value {
	out := make([]map[string]Value, t.rows)
	for r := range out {
		m := make(map[string]Value, len(t.cols))
		for c, name := range t.cols {
			m[name] = t.data[c][r]
		}
		out[r] = m
	}
	return out
}

func (t *Table) MarshalJSON() ([]byte, error) {
	rows := make([][]Value, t.rows)
	for r := range rows {
		rows[r] = t.Row(r)
	}
	return json.Marshal(struct {
		Name    string    `json:"name"`
		Columns []string  `json:"columns"`
		Rows    [][]Value `json:"rows"`
	}{t.name, t.cols, rows})
}
