package review

// Cursor is a position within a view of n records. Position n means the
// review of the view is complete.
type Cursor struct {
	pos  int
	size int
}

// NewCursor returns a cursor at the first of n records.
func NewCursor(n int) Cursor {
	if n < 0 {
		n = 0
	}
	return Cursor{size: n}
}

// Position returns the current index.
func (c *Cursor) Position() int { return c.pos }

// Len returns the number of records in the view.
func (c *Cursor) Len() int { return c.size }

// Done reports whether the cursor is past the last record.
func (c *Cursor) Done() bool { return c.pos >= c.size }

// Next advances by one record and reports whether the position moved.
func (c *Cursor) Next() bool {
	if c.pos >= c.size {
		return false
	}
	c.pos++
	return true
}

// Previous steps back by one record and reports whether the position moved.
func (c *Cursor) Previous() bool {
	if c.pos == 0 {
		return false
	}
	c.pos--
	return true
}

// Seek moves to i, clamped to [0, Len].
func (c *Cursor) Seek(i int) {
	switch {
	case i < 0:
		c.pos = 0
	case i > c.size:
		c.pos = c.size
	default:
		c.pos = i
	}
}
