// Package lib is the entry point for front ends: it creates and extracts
// archives from plain path lists and reports failures as errors.
// This package re-exports the functionality from the core package.
package lib

import (
	"context"

	"stich/pkg/codec"
	"stich/pkg/core"
)

// Extension re-exported from core
const Extension = core.Extension

// Option re-exported from core
type Option = core.Option

// EntryInfo re-exported from core
type EntryInfo = core.EntryInfo

// Errors re-exported from core and codec.
var (
	ErrFormat         = core.ErrFormat
	ErrNameTooLong    = core.ErrNameTooLong
	ErrSizeOverflow   = core.ErrSizeOverflow
	ErrTooManyEntries = core.ErrTooManyEntries
	ErrUnsafeName     = core.ErrUnsafeName
	ErrEntryCount     = core.ErrEntryCount
	ErrDecode         = codec.ErrDecode
)

// CreateArchive bundles inputFiles, in order, into an archive at dest.
func CreateArchive(inputFiles []string, dest string, opts ...Option) error {
	return core.Create(context.Background(), inputFiles, dest, opts...)
}

// ExtractArchive expands archive into outputDir.
func ExtractArchive(archive, outputDir string, opts ...Option) error {
	return core.Extract(context.Background(), archive, outputDir, opts...)
}

// ListArchive returns the entry headers of archive.
func ListArchive(archive string, opts ...Option) ([]EntryInfo, error) {
	return core.List(archive, opts...)
}
