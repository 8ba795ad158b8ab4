package review

// Overlay holds full copies of edited rows keyed by their original identity,
// in the order they were first edited. The loaded dataset is never mutated.
type Overlay struct {
	order []RowID
	rows  map[RowID]Record
}

// NewOverlay returns an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{rows: make(map[RowID]Record)}
}

// Len returns the number of modified rows.
func (o *Overlay) Len() int { return len(o.order) }

// Get returns the modified copy of a row.
func (o *Overlay) Get(id RowID) (Record, bool) {
	rec, ok := o.rows[id]
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// Upsert stores rec under its identity, replacing an earlier edit of the
// same row. It reports whether the row was new to the overlay.
func (o *Overlay) Upsert(rec Record) bool {
	rec = rec.clone()
	rec.Modified = true
	_, exists := o.rows[rec.ID]
	o.rows[rec.ID] = rec
	if !exists {
		o.order = append(o.order, rec.ID)
	}
	return !exists
}

// Remove drops the edit of a row and reports whether one existed.
func (o *Overlay) Remove(id RowID) bool {
	if _, ok := o.rows[id]; !ok {
		return false
	}
	delete(o.rows, id)
	for i, existing := range o.order {
		if existing == id {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return true
}

// Records returns the modified rows in first-edit order.
func (o *Overlay) Records() []Record {
	out := make([]Record, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, o.rows[id].clone())
	}
	return out
}
