package codec

import "bytes"

// Printable ASCII bounds for text detection.
const (
	printableMin = 32
	printableMax = 126
)

// IsText reports whether every byte of data is printable ASCII.
// An empty buffer counts as text.
func IsText(data []byte) bool {
	for _, b := range data {
		if b < printableMin || b > printableMax {
			return false
		}
	}
	return true
}

// Preprocess normalizes text payloads before the first compression round.
//
// If data is entirely printable ASCII, every run of whitespace is collapsed to
// a single space and leading/trailing whitespace is dropped. Any other buffer is
// returned unchanged. The transform is lossy and idempotent.
func Preprocess(data []byte) []byte {
	if !IsText(data) {
		return data
	}
	return bytes.Join(bytes.Fields(data), []byte{' '})
}
