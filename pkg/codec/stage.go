package codec

import (
	"errors"
	"fmt"
)

// ErrDecode is returned when an inverse transform rejects its input.
var ErrDecode = errors.New("stich: decode failed")

// Primitive is a one-shot byte transform backed by a compression library.
//
// Encode must accept any input. Decode must report an error, rather than
// guess, when src is not a stream the primitive produced.
type Primitive interface {
	Name() string
	Encode(src []byte) ([]byte, error)
	Decode(src []byte) ([]byte, error)
}

// Stage pairs a general-purpose compressor with an entropy compressor.
// Forward is entropy(general(x)); inverse is general⁻¹(entropy⁻¹(x)).
type Stage struct {
	general Primitive
	entropy Primitive
}

// NewStage returns a stage applying general first and entropy second.
func NewStage(general, entropy Primitive) *Stage {
	return &Stage{general: general, entropy: entropy}
}

// DefaultStage returns the zlib + xz stage at maximum effort.
func DefaultStage() *Stage {
	return NewStage(Zlib(), XZ())
}

// String names the stage as "general+entropy".
func (s *Stage) String() string {
	return s.general.Name() + "+" + s.entropy.Name()
}

// Encode runs one forward round.
func (s *Stage) Encode(data []byte) ([]byte, error) {
	inner, err := s.general.Encode(data)
	if err != nil {
		return nil, fmt.Errorf("%s encode: %w", s.general.Name(), err)
	}
	out, err := s.entropy.Encode(inner)
	if err != nil {
		return nil, fmt.Errorf("%s encode: %w", s.entropy.Name(), err)
	}
	return out, nil
}

// Decode runs one inverse round. Any failure wraps ErrDecode.
func (s *Stage) Decode(data []byte) ([]byte, error) {
	inner, err := s.entropy.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, s.entropy.Name(), err)
	}
	out, err := s.general.Decode(inner)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, s.general.Name(), err)
	}
	return out, nil
}
