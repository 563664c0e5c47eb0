package flowval

import "fmt"

// Dataset is the tabular extension of the interchange format: a fixed,
// ordered set of named columns and a list of rows. Cells hold canonical
// scalar values.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// NewDataset creates an empty dataset with the given column order.
// Duplicate column names are rejected.
func NewDataset(columns ...string) (*Dataset, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}
	return &Dataset{
		columns: append([]string(nil), columns...),
		index:   index,
	}, nil
}

// Columns returns the column names in declaration order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// HasColumn reports whether the dataset declares the named column.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// AppendRow adds a row. The cell count must match the column count.
func (d *Dataset) AppendRow(cells ...any) error {
	if len(cells) != len(d.columns) {
		return fmt.Errorf("row has %d cells, dataset has %d columns", len(cells), len(d.columns))
	}
	d.rows = append(d.rows, append([]any(nil), cells...))
	return nil
}

// Cell returns the value at the given row for the named column.
func (d *Dataset) Cell(row int, column string) (any, error) {
	i, ok := d.index[column]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", column)
	}
	if row < 0 || row >= len(d.rows) {
		return nil, fmt.Errorf("row %d out of range (%d rows)", row, len(d.rows))
	}
	return d.rows[row][i], nil
}

// Column returns all values of the named column in row order.
func (d *Dataset) Column(name string) ([]any, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	out := make([]any, len(d.rows))
	for r, row := range d.rows {
		out[r] = row[i]
	}
	return out, nil
}

// Rows returns a copy of all rows in insertion order.
func (d *Dataset) Rows() [][]any {
	out := make([][]any, len(d.rows))
	for i, row := range d.rows {
		out[i] = append([]any(nil), row...)
	}
	return out
}

func (d *Dataset) String() string {
	return fmt.Sprintf("Dataset(columns=%v, rows=%d)", d.columns, len(d.rows))
}
