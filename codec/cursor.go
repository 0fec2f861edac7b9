package codec

import (
	"fmt"

	"github.com/coreproto/tl/tl"
)

// Cursor is the byte-stream reader threaded through Deserialize. It never
// copies the backing buffer; recursive calls narrow the view by advancing
// pos, which is how getLength-style consumed-byte accounting falls out for
// free.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf for reading from the beginning.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the number of bytes consumed so far.
func (cur *Cursor) Pos() int { return cur.pos }

func (cur *Cursor) take(n int) ([]byte, error) {
	if n < 0 || cur.pos+n > len(cur.buf) {
		return nil, fmt.Errorf("tl codec: read %d bytes at offset %d: %w", n, cur.pos, tl.ErrStreamHandle)
	}
	b := cur.buf[cur.pos : cur.pos+n]
	cur.pos += n
	return b, nil
}

func (cur *Cursor) remaining() []byte {
	return cur.buf[cur.pos:]
}

func (cur *Cursor) advance(n int) {
	cur.pos += n
}
