// Package core reads and writes stich archives.
//
// An archive is a little-endian stream: a u32 entry count followed by that
// many records of u16 name length, name, u32 original size, u32 payload
// length and payload. There is no magic number, version or checksum.
package core

import "fmt"

// Extension is the file extension given to archives without one.
const Extension = ".st"

// Field limits imposed by the fixed-width container fields.
const (
	MaxNameLen   = 1<<16 - 1
	MaxEntrySize = 1<<32 - 1
	MaxEntries   = 1<<32 - 1
)

// Layout selects the per-entry record layout. The container carries no tag,
// so the same layout must be used to create and to extract an archive.
type Layout uint8

const (
	// LayoutClassic records name, original size and payload only. Extraction
	// retries inverse rounds until one fails, up to the decode round cap.
	LayoutClassic Layout = iota

	// LayoutCounted adds a one-byte round count after the original size, and
	// extraction runs exactly that many inverse rounds.
	LayoutCounted
)

func (l Layout) String() string {
	switch l {
	case LayoutClassic:
		return "classic"
	case LayoutCounted:
		return "counted"
	default:
		return fmt.Sprintf("layout(%d)", uint8(l))
	}
}

// EntryInfo holds the header fields of one archive record.
type EntryInfo struct {
	Name         string // UTF-8 name as stored
	OriginalSize uint32 // Size of the source file before preprocessing
	Rounds       uint8  // Committed compression rounds (LayoutCounted only)
	PayloadSize  uint32 // Length of the compressed payload
}

// Entry is one archive record with its payload.
type Entry struct {
	Name         string
	OriginalSize uint32
	Rounds       uint8
	Payload      []byte
}

// Info returns the header view of e.
func (e *Entry) Info() EntryInfo {
	return EntryInfo{
		Name:         e.Name,
		OriginalSize: e.OriginalSize,
		Rounds:       e.Rounds,
		PayloadSize:  uint32(len(e.Payload)),
	}
}
