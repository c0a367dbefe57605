// Package ident normalizes backend identifiers.
//
// The chat backend may send an identifier either as its canonical string or
// as the raw 16-byte value (serialized as a JSON array of numbers). Canonical
// converts both to the same 8-4-4-4-12 lowercase hex form.
package ident

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Size is the length of a binary identifier.
const Size = 16

var ErrInvalidIdentifier = errors.New("invalid identifier")

type InvalidIdentifierError struct {
	Length int
	Reason string
}

func (e *InvalidIdentifierError) Error() string {
	if e == nil {
		return ""
	}
	if e.Reason != "" {
		return fmt.Sprintf("invalid identifier: %s", e.Reason)
	}
	return fmt.Sprintf("invalid identifier: expected %d bytes, got %d", Size, e.Length)
}

func (e *InvalidIdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}

// Canonical returns the canonical string form of raw. Strings pass through
// unchanged; byte sequences must be exactly 16 long.
func Canonical(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return FromBytes(v)
	case [Size]byte:
		return FromBytes(v[:])
	case uuid.UUID:
		return v.String(), nil
	case []int:
		buf := make([]byte, len(v))
		for i, n := range v {
			b, err := toByte(float64(n))
			if err != nil {
				return "", err
			}
			buf[i] = b
		}
		return FromBytes(buf)
	case []any:
		buf := make([]byte, len(v))
		for i, item := range v {
			n, ok := item.(float64)
			if !ok {
				return "", &InvalidIdentifierError{Length: len(v), Reason: fmt.Sprintf("element %d is %T", i, item)}
			}
			b, err := toByte(n)
			if err != nil {
				return "", err
			}
			buf[i] = b
		}
		return FromBytes(buf)
	case nil:
		return "", &InvalidIdentifierError{Reason: "missing value"}
	default:
		return "", &InvalidIdentifierError{Reason: fmt.Sprintf("unsupported type %T", raw)}
	}
}

// FromBytes renders a 16-byte identifier as lowercase hex in 8-4-4-4-12 groups.
func FromBytes(b []byte) (string, error) {
	if len(b) != Size {
		return "", &InvalidIdentifierError{Length: len(b)}
	}
	id, err := uuid.FromBytes(b)
	if err != nil {
		return "", &InvalidIdentifierError{Length: len(b)}
	}
	return id.String(), nil
}

// ToBytes recovers the 16 bytes of a canonical identifier.
func ToBytes(id string) ([]byte, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, &InvalidIdentifierError{Reason: err.Error()}
	}
	out := make([]byte, Size)
	copy(out, parsed[:])
	return out, nil
}

// New returns a fresh random identifier in canonical form.
func New() string {
	return uuid.NewString()
}

func toByte(n float64) (byte, error) {
	if n != math.Trunc(n) || n < 0 || n > 255 {
		return 0, &InvalidIdentifierError{Reason: fmt.Sprintf("byte value %v out of range", n)}
	}
	return byte(n), nil
}
