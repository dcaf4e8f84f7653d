package read

// Cursor is a bounds-checked reader over a byte slice. The heavy parsers
// walk raw light-parse buffers through it instead of doing bare index
// arithmetic; a read past the end reports ok=false rather than panicking
// on malformed input.
type Cursor struct {
	buf []byte
	pos int
}

func NewCursor(b []byte) Cursor { return Cursor{buf: b} }

// Get returns the next byte and advances.
func (c *Cursor) Get() (byte, bool) {
	if c.pos >= len(c.buf) {
		return 0, false
	}
	b := c.buf[c.pos]
	c.pos++
	return b, true
}

// Peek returns the next byte without advancing.
func (c *Cursor) Peek() (byte, bool) {
	if c.pos >= len(c.buf) {
		return 0, false
	}
	return c.buf[c.pos], true
}

// Pos is the number of bytes consumed so far.
func (c *Cursor) Pos() int { return c.pos }

// Remaining is the number of unconsumed bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }
