// Package testutil provides helpers shared by stich tests.
package testutil

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// Tag marks one round of TagCodec.
const Tag = 0xAA

var errUntagged = errors.New("testutil: payload not tagged")

// TagCodec is a deterministic stand-in for the real stage. Each Encode
// prepends Tag and, when the input ends in two zero bytes, drops them, so an
// input padded with 2n zeros shrinks by one byte for n rounds. Decode strips
// a Tag and restores the two zeros, and fails on untagged input.
type TagCodec struct{}

func (TagCodec) Encode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)+1)
	out = append(out, Tag)
	if n := len(data); n >= 2 && data[n-1] == 0 && data[n-2] == 0 {
		return append(out, data[:n-2]...), nil
	}
	return append(out, data...), nil
}

func (TagCodec) Decode(data []byte) ([]byte, error) {
	if len(data) == 0 || data[0] != Tag {
		return nil, errUntagged
	}
	out := make([]byte, 0, len(data)+1)
	out = append(out, data[1:]...)
	return append(out, 0, 0), nil
}

// ZeroPadded returns body followed by zeros zero bytes. body must not start
// with Tag.
func ZeroPadded(body string, zeros int) []byte {
	return append([]byte(body), bytes.Repeat([]byte{0}, zeros)...)
}

// WriteFile writes data to dir/name, creating parents, and returns the path.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		tb.Fatalf("create dir for %s: %v", p, err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		tb.Fatalf("write %s: %v", p, err)
	}
	return p
}

// ByteRange returns the bytes 0..n-1 modulo 256.
func ByteRange(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i % 256)
	}
	return out
}
