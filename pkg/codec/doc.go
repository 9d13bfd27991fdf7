// Package codec implements the per-file compression scheme: an optional text
// normalization pass followed by repeated rounds of a two-stage transform
// (a general-purpose compressor feeding an entropy compressor).
//
// The stage primitives are pluggable through [Primitive]; the defaults are
// zlib at best compression and xz/LZMA2 with a preset 9 sized dictionary.
package codec
