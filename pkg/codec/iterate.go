package codec

import (
	"errors"
	"fmt"
)

const (
	// DefaultMaxRounds caps forward rounds per payload.
	DefaultMaxRounds = 20

	// DefaultMaxDecodeRounds caps inverse rounds when the round count is unknown.
	// It is deliberately lower than DefaultMaxRounds; payloads committed with
	// more rounds come back partially decoded.
	DefaultMaxDecodeRounds = 15

	// RoundLimit is the largest round count a counted entry can record.
	RoundLimit = 255
)

// Codec is a reversible single-round transform. *Stage implements it.
type Codec interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// Result is the committed buffer of an iterative run and the number of rounds
// that produced it.
type Result struct {
	Data   []byte
	Rounds int
}

// Compressor applies a Codec repeatedly while the output keeps shrinking.
type Compressor struct {
	codec     Codec
	maxRounds int
}

// NewCompressor returns a compressor capped at maxRounds forward rounds.
// A non-positive cap selects DefaultMaxRounds.
func NewCompressor(c Codec, maxRounds int) *Compressor {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Compressor{codec: c, maxRounds: maxRounds}
}

// MaxRounds returns the forward round cap.
func (c *Compressor) MaxRounds() int { return c.maxRounds }

// Compress runs the forward transform on data.
//
// Round 1 is always committed. Each later round is committed only when its
// output is strictly shorter than the committed buffer; the first round that
// fails to shrink is discarded and ends the loop.
func (c *Compressor) Compress(data []byte) (Result, error) {
	committed, err := c.codec.Encode(data)
	if err != nil {
		return Result{}, fmt.Errorf("round 1: %w", err)
	}
	rounds := 1
	for rounds < c.maxRounds {
		next, err := c.codec.Encode(committed)
		if err != nil {
			return Result{}, fmt.Errorf("round %d: %w", rounds+1, err)
		}
		if len(next) >= len(committed) {
			break
		}
		committed = next
		rounds++
	}
	return Result{Data: committed, Rounds: rounds}, nil
}

// Decompressor undoes a Compressor.
type Decompressor struct {
	codec     Codec
	maxRounds int
}

// NewDecompressor returns a decompressor that retries at most maxRounds
// inverse rounds. A non-positive cap selects DefaultMaxDecodeRounds.
func NewDecompressor(c Codec, maxRounds int) *Decompressor {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxDecodeRounds
	}
	return &Decompressor{codec: c, maxRounds: maxRounds}
}

// MaxRounds returns the inverse round cap.
func (d *Decompressor) MaxRounds() int { return d.maxRounds }

// Decompress applies the inverse transform until it fails or the cap is hit.
// Decode failures are not errors: the last successfully decoded buffer is
// returned, or data itself if round 1 fails. Rounds counts successful rounds.
func (d *Decompressor) Decompress(data []byte) Result {
	rounds := 0
	for rounds < d.maxRounds {
		next, err := d.codec.Decode(data)
		if err != nil {
			break
		}
		data = next
		rounds++
	}
	return Result{Data: data, Rounds: rounds}
}

// DecompressRounds applies exactly rounds inverse rounds, ignoring the cap.
// Any failing round is returned as an error wrapping ErrDecode.
func (d *Decompressor) DecompressRounds(data []byte, rounds int) ([]byte, error) {
	for i := 0; i < rounds; i++ {
		next, err := d.codec.Decode(data)
		if err != nil {
			if !errors.Is(err, ErrDecode) {
				err = fmt.Errorf("%w: %w", ErrDecode, err)
			}
			return nil, fmt.Errorf("round %d of %d: %w", i+1, rounds, err)
		}
		data = next
	}
	return data, nil
}
