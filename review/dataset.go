package review

// RowID is the load-time position of a row. It identifies the row for edits
// no matter how the view is filtered.
type RowID int

// Column describes one spreadsheet column.
type Column struct {
	Name string
	Kind ColumnKind
}

// Dataset is an immutable table loaded from a spreadsheet.
type Dataset struct {
	source  string
	columns []Column
	byName  map[string]int
	roles   map[Role]int
	rows    [][]Value
}

func newDataset(source string, columns []Column, roles map[Role]int, rows [][]Value) *Dataset {
	byName := make(map[string]int, len(columns))
	for i, col := range columns {
		byName[col.Name] = i
	}
	return &Dataset{source: source, columns: columns, byName: byName, roles: roles, rows: rows}
}

// Source returns the file name the dataset was loaded from.
func (d *Dataset) Source() string { return d.source }

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Columns returns a copy of the column descriptors in file order.
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// ColumnIndex resolves a role name or a literal header to a column index.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	if idx, ok := d.roles[Role(name)]; ok {
		return idx, true
	}
	idx, ok := d.byName[name]
	return idx, ok
}

// RoleColumn returns the header used for a role in this dataset.
func (d *Dataset) RoleColumn(role Role) (string, bool) {
	idx, ok := d.roles[role]
	if !ok {
		return "", false
	}
	return d.columns[idx].Name, true
}

// Record returns a copy of the row with the given identity.
func (d *Dataset) Record(id RowID) (Record, bool) {
	if int(id) < 0 || int(id) >= len(d.rows) {
		return Record{}, false
	}
	return Record{ID: id, data: d, values: cloneValues(d.rows[id])}, true
}

func (d *Dataset) isVerdict(col int) bool {
	return col == d.roles[RoleGTVerdict] || col == d.roles[RoleReasonVerdict]
}

// Record is one row of a dataset. Modified is set when the row comes from
// the overlay of edited rows.
type Record struct {
	ID       RowID
	Modified bool

	data   *Dataset
	values []Value
}

// Get returns the cell for a role name or header.
func (r Record) Get(name string) (Value, bool) {
	if r.data == nil {
		return Value{}, false
	}
	idx, ok := r.data.ColumnIndex(name)
	if !ok || idx >= len(r.values) {
		return Value{}, false
	}
	return r.values[idx], true
}

// Text returns the display text of a cell, or "" when the column is absent.
func (r Record) Text(name string) string {
	v, ok := r.Get(name)
	if !ok {
		return ""
	}
	return v.String()
}

// Columns returns the column descriptors of the owning dataset.
func (r Record) Columns() []Column {
	if r.data == nil {
		return nil
	}
	return r.data.Columns()
}

// Values returns a copy of the cells in column order.
func (r Record) Values() []Value {
	return cloneValues(r.values)
}

func (r Record) clone() Record {
	r.values = cloneValues(r.values)
	return r
}

func cloneValues(values []Value) []Value {
	out := make([]Value, len(values))
	copy(out, values)
	return out
}
