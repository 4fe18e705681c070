package kmod

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// MaxStringLen is the largest string the uint16 length prefix may declare.
const MaxStringLen = 32767

const lengthPrefixLen = 2

func readExact(r io.Reader, n int, field string) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, newError(KindTruncatedRead, field, "unable to read %d bytes, only got %d", n, got)
		}
		return nil, &Error{
			Kind:   KindTruncatedRead,
			Field:  field,
			Detail: fmt.Sprintf("read failed after %d of %d bytes", got, n),
			Err:    err,
		}
	}
	return buf, nil
}

func readLengthPrefixedString(r io.Reader, field string) (string, error) {
	lenBuf, err := readExact(r, lengthPrefixLen, field+" length")
	if err != nil {
		return "", err
	}
	n := int(binary.BigEndian.Uint16(lenBuf))
	if n > MaxStringLen {
		return "", newError(KindInvalidHeader, field, "declared length %d exceeds %d", n, MaxStringLen)
	}
	b, err := readExact(r, n, field)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", newError(KindInvalidEncoding, field, "not valid UTF-8: %q", b)
	}
	return string(b), nil
}

func writeLengthPrefixedString(w io.Writer, s string) error {
	if len(s) > MaxStringLen {
		return newError(KindStringTooLong, "", "%d bytes exceeds maximum of %d", len(s), MaxStringLen)
	}
	buf := make([]byte, lengthPrefixLen+len(s))
	binary.BigEndian.PutUint16(buf[0:lengthPrefixLen], uint16(len(s)))
	copy(buf[lengthPrefixLen:], s)
	_, err := w.Write(buf)
	return err
}
