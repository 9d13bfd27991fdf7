package core

import "errors"

var (
	// ErrFormat is returned when archive fields disagree with the bytes present.
	ErrFormat = errors.New("stich: malformed archive")

	// ErrNameTooLong is returned when an entry name exceeds MaxNameLen bytes.
	ErrNameTooLong = errors.New("stich: entry name too long")

	// ErrSizeOverflow is returned when a file or payload exceeds MaxEntrySize.
	ErrSizeOverflow = errors.New("stich: size overflow")

	// ErrTooManyEntries is returned when more than MaxEntries paths are given.
	ErrTooManyEntries = errors.New("stich: too many entries")

	// ErrEntryCount is returned when a writer is closed after writing a
	// different number of entries than it declared.
	ErrEntryCount = errors.New("stich: entry count mismatch")

	// ErrUnsafeName is returned when an entry name would be extracted outside
	// the output directory.
	ErrUnsafeName = errors.New("stich: unsafe entry name")
)
