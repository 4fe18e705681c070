package kmod

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(&buf, "5.1.1"))

	want := []byte{
		'D', 'R', 'L', 'K', 'M', 'O', 'D', 0x00,
		0, 0, 0, 0, 0, 0, 0, 1,
		0x00, 0x05,
		'5', '.', '1', '.', '1',
	}
	assert.Equal(t, want, buf.Bytes())
}

func TestDecodeHeaderRoundTripSupportedVersions(t *testing.T) {
	for _, v := range []uint64{1, 2, 7, 1 << 40} {
		t.Run(fmt.Sprintf("version_%d", v), func(t *testing.T) {
			raw := moduleBytes(Magic[:], v, "5.1.1X", []byte("payload"))
			r := bytes.NewReader(raw)

			h, err := DecodeHeader(r)
			require.NoError(t, err)
			assert.Equal(t, Magic, h.Magic)
			assert.Equal(t, v, h.FormatVersion)
			assert.Equal(t, "5.1.1X", h.RuntimeVersion)
			assert.Equal(t, 24, h.Len())

			gate := Gate{Supported: VersionSet{v}, Runtime: StaticRuntime{Version: "5.1.1X"}}
			require.NoError(t, gate.Check(h))

			rest, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "payload", string(rest))
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(&buf, "8.44.0.Final"))

	h, err := DecodeHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, Header{Magic: Magic, FormatVersion: CurrentFormatVersion, RuntimeVersion: "8.44.0.Final"}, h)
	assert.Zero(t, buf.Len())
}

func TestDecodeHeaderTruncationNamesField(t *testing.T) {
	raw := moduleBytes(Magic[:], 1, "5.1.1X", nil)
	require.Len(t, raw, 24)

	for k := 0; k < len(raw); k++ {
		var want string
		switch {
		case k < 8:
			want = FieldMagic
		case k < 16:
			want = FieldFormatVersion
		case k < 18:
			want = FieldRuntimeVersion + " length"
		default:
			want = FieldRuntimeVersion
		}

		_, err := DecodeHeader(bytes.NewReader(raw[:k]))
		require.Errorf(t, err, "truncated at %d", k)
		assert.Truef(t, errors.Is(err, ErrTruncatedRead), "truncated at %d: %v", k, err)

		var kerr *Error
		require.True(t, errors.As(err, &kerr))
		assert.Equalf(t, want, kerr.Field, "truncated at %d", k)
	}
}

func TestDecodeHeaderShortRuntimeVersion(t *testing.T) {
	raw := moduleBytes(Magic[:], 1, "0123456789", nil)
	raw = raw[:len(raw)-1]

	_, err := DecodeHeader(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrTruncatedRead)
	assert.Equal(t, KindTruncatedRead, KindOf(err))
	assert.Contains(t, err.Error(), FieldRuntimeVersion)
	assert.Contains(t, err.Error(), "unable to read 10 bytes, only got 9")
}

func TestDecodeHeaderInvalidUTF8(t *testing.T) {
	raw := moduleBytes(Magic[:], 1, "\xff\xfe", nil)

	_, err := DecodeHeader(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestDecodeHeaderDeclaredLengthTooLarge(t *testing.T) {
	raw := moduleBytes(Magic[:], 1, "", nil)
	raw[16], raw[17] = 0xFF, 0xFF

	_, err := DecodeHeader(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrInvalidHeader)
}

func TestDecodeHeaderIOErrorIsWrapped(t *testing.T) {
	cause := errors.New("disk on fire")
	r := io.MultiReader(bytes.NewReader(Magic[:4]), &errReader{err: cause})

	_, err := DecodeHeader(r)
	require.ErrorIs(t, err, ErrTruncatedRead)
	require.ErrorIs(t, err, cause)
}

func TestEncodeHeaderRejectsLongRuntimeVersion(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeHeader(&buf, strings.Repeat("x", MaxStringLen+1))
	require.ErrorIs(t, err, ErrStringTooLong)
	assert.Zero(t, buf.Len())

	require.NoError(t, EncodeHeader(&buf, strings.Repeat("x", MaxStringLen)))
	assert.Equal(t, FixedHeaderLen+MaxStringLen, buf.Len())
}

func TestEncodeHeaderPropagatesWriteError(t *testing.T) {
	for failAt := 1; failAt <= 2; failAt++ {
		w := &failingWriter{failAt: failAt}
		require.ErrorIs(t, EncodeHeader(w, "1.0"), errWrite)
	}
}

func TestWriteLengthPrefixedStringBoundary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLengthPrefixedString(&buf, ""))
	assert.Equal(t, []byte{0, 0}, buf.Bytes())

	s, err := readLengthPrefixedString(&buf, "empty")
	require.NoError(t, err)
	assert.Empty(t, s)
}

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }
