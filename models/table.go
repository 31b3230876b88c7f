package models

// Table is an ordered, read-only collection of rows sharing one schema.
// Derived tables share row pointers with their parent; rows must not be
// modified once the table has been built.
type Table struct {
	columns []Column
	index   map[string]int
	rows    []*Row
}

// NewTable builds a table over the given schema and rows.
func NewTable(columns []Column, rows []*Row) *Table {
	t := &Table{
		columns: columns,
		index:   make(map[string]int, len(columns)),
		rows:    rows,
	}
	for i, c := range columns {
		t.index[c.Name] = i
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return len(t.rows) == 0 }

// Columns returns the schema in declaration order.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column looks up a column by its exact name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Row returns the i-th row.
func (t *Table) Row(i int) *Row { return t.rows[i] }

// Rows returns a copy of the row slice; the rows themselves are shared.
func (t *Table) Rows() []*Row {
	out := make([]*Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Derive returns a new table over the same schema holding the given rows.
func (t *Table) Derive(rows []*Row) *Table {
	return &Table{columns: t.columns, index: t.index, rows: rows}
}

// Concat returns a new table with the rows of t followed by the rows of other.
// The schema of t is kept.
func (t *Table) Concat(other *Table) *Table {
	rows := make([]*Row, 0, t.Len()+other.Len())
	rows = append(rows, t.rows...)
	rows = append(rows, other.rows...)
	return t.Derive(rows)
}
