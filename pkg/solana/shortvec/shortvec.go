// Package shortvec implements the compact-u16 length encoding used for every
// count in the transaction wire format.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// MaxEncodedLen is the largest number of bytes a compact-u16 value occupies.
const MaxEncodedLen = 3

var (
	ErrOutOfRange   = errors.Errorf("length out of range [0, %d]", math.MaxUint16)
	ErrNonCanonical = errors.New("non-canonical length encoding")
	ErrTooLong      = errors.Errorf("length encoding longer than %d bytes", MaxEncodedLen)
)

// EncodedLen returns the number of bytes EncodeLen writes for v.
func EncodedLen(v int) int {
	switch {
	case v < 1<<7:
		return 1
	case v < 1<<14:
		return 2
	default:
		return 3
	}
}

// EncodeLen writes v to w as a compact-u16.
func EncodeLen(w io.Writer, v int) (int, error) {
	if v < 0 || v > math.MaxUint16 {
		return 0, errors.Wrapf(ErrOutOfRange, "%d", v)
	}

	var buf [MaxEncodedLen]byte
	n := EncodedLen(v)
	for i := 0; i < n; i++ {
		buf[i] = byte(v>>(7*i)) & 0x7f
		if i < n-1 {
			buf[i] |= 0x80
		}
	}

	return w.Write(buf[:n])
}

// DecodeLen reads a compact-u16 from r.
//
// Encodings with a redundant zero continuation byte, or that overflow 16 bits,
// are rejected so every length has exactly one accepted encoding.
func DecodeLen(r io.Reader) (int, error) {
	var (
		b   [1]byte
		val int
	)

	for i := 0; i < MaxEncodedLen; i++ {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}

		if i > 0 && b[0] == 0 {
			return 0, ErrNonCanonical
		}

		val |= int(b[0]&0x7f) << (7 * i)
		if b[0]&0x80 != 0 {
			continue
		}

		if val > math.MaxUint16 {
			return 0, errors.Wrapf(ErrOutOfRange, "%d", val)
		}
		return val, nil
	}

	return 0, ErrTooLong
}
