package kmod

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// moduleBytes builds a header by hand so tests can produce values the
// encoder refuses to write.
func moduleBytes(magic []byte, version uint64, runtimeVersion string, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Write(magic)
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], version)
	buf.Write(v[:])
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(runtimeVersion)))
	buf.Write(l[:])
	buf.WriteString(runtimeVersion)
	buf.Write(payload)
	return buf.Bytes()
}

// bytesCodec hands back whatever follows the header.
type bytesCodec struct {
	decodeErr error
	encodeErr error
	decodes   int
	lastLC    LoadContext
}

func (c *bytesCodec) Decode(r io.Reader, lc LoadContext) ([]byte, error) {
	c.decodes++
	c.lastLC = lc
	if c.decodeErr != nil {
		return nil, c.decodeErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	return b, nil
}

func (c *bytesCodec) Encode(w io.Writer, content []byte) error {
	if c.encodeErr != nil {
		return c.encodeErr
	}
	_, err := w.Write(content)
	return err
}

var errWrite = errors.New("write refused")

// failingWriter fails on the failAt-th call to Write.
type failingWriter struct {
	failAt int
	calls  int
	buf    bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.calls == w.failAt {
		return 0, errWrite
	}
	return w.buf.Write(p)
}
