// Package content provides content codecs for knowledge module payloads.
package content

import (
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/kmodctl/internal/kmod"
)

var (
	ErrEmptyPayload    = errors.New("content: empty payload")
	ErrPayloadTooLarge = errors.New("content: payload too large")
)

// Raw passes the payload through untouched. It frames bytes produced by
// an external engine without interpreting them. MaxBytes of zero means
// no limit.
type Raw struct {
	MaxBytes int64
}

var _ kmod.ContentCodec[[]byte] = Raw{}

func (c Raw) Decode(r io.Reader, _ kmod.LoadContext) ([]byte, error) {
	src := r
	if c.MaxBytes > 0 {
		src = io.LimitReader(r, c.MaxBytes+1)
	}
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("content: read payload: %w", err)
	}
	if c.MaxBytes > 0 && int64(len(b)) > c.MaxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, c.MaxBytes)
	}
	if len(b) == 0 {
		return nil, ErrEmptyPayload
	}
	return b, nil
}

func (c Raw) Encode(w io.Writer, payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if c.MaxBytes > 0 && int64(len(payload)) > c.MaxBytes {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	_, err := w.Write(payload)
	return err
}
