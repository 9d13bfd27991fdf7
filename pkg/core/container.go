package core

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Writer serializes archive records in order. The entry count is written
// once, up front, and every declared entry must then be written.
type Writer struct {
	w       io.Writer
	layout  Layout
	count   uint32
	written uint32
}

// NewWriter writes the archive header declaring count entries.
func NewWriter(w io.Writer, count int, layout Layout) (*Writer, error) {
	if count < 0 || uint64(count) > MaxEntries {
		return nil, fmt.Errorf("%w: %d", ErrTooManyEntries, count)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(count)); err != nil {
		return nil, fmt.Errorf("write entry count: %w", err)
	}
	return &Writer{w: w, layout: layout, count: uint32(count)}, nil
}

// WriteEntry appends one record.
func (w *Writer) WriteEntry(e *Entry) error {
	if w.written == w.count {
		return fmt.Errorf("%w: declared %d", ErrEntryCount, w.count)
	}
	nameBytes := []byte(e.Name)
	if len(nameBytes) > MaxNameLen {
		return fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(nameBytes))
	}
	if uint64(len(e.Payload)) > MaxEntrySize {
		return fmt.Errorf("%w: payload of %s is %d bytes", ErrSizeOverflow, e.Name, len(e.Payload))
	}

	if err := binary.Write(w.w, binary.LittleEndian, uint16(len(nameBytes))); err != nil {
		return fmt.Errorf("write name length: %w", err)
	}
	if _, err := w.w.Write(nameBytes); err != nil {
		return fmt.Errorf("write name: %w", err)
	}
	if err := binary.Write(w.w, binary.LittleEndian, e.OriginalSize); err != nil {
		return fmt.Errorf("write original size: %w", err)
	}
	if w.layout == LayoutCounted {
		if err := binary.Write(w.w, binary.LittleEndian, e.Rounds); err != nil {
			return fmt.Errorf("write rounds: %w", err)
		}
	}
	if err := binary.Write(w.w, binary.LittleEndian, uint32(len(e.Payload))); err != nil {
		return fmt.Errorf("write payload length: %w", err)
	}
	if _, err := w.w.Write(e.Payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}

	w.written++
	return nil
}

// Close reports ErrEntryCount if fewer entries were written than declared.
// It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.written != w.count {
		return fmt.Errorf("%w: declared %d, wrote %d", ErrEntryCount, w.count, w.written)
	}
	return nil
}

// Reader parses archive records in order.
type Reader struct {
	r      io.Reader
	layout Layout
	count  uint32
	read   uint32
}

// NewReader reads the archive header.
func NewReader(r io.Reader, layout Layout) (*Reader, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, formatErr("read entry count", err)
	}
	return &Reader{r: r, layout: layout, count: count}, nil
}

// Count returns the number of entries declared in the header.
func (r *Reader) Count() int { return int(r.count) }

// Next reads the next record. It returns io.EOF after the last declared entry.
func (r *Reader) Next() (*Entry, error) {
	info, err := r.readInfo()
	if err != nil {
		return nil, err
	}
	payload, err := readPayload(r.r, info.PayloadSize)
	if err != nil {
		return nil, formatErr(fmt.Sprintf("read payload of %s", info.Name), err)
	}
	return &Entry{
		Name:         info.Name,
		OriginalSize: info.OriginalSize,
		Rounds:       info.Rounds,
		Payload:      payload,
	}, nil
}

// NextInfo reads the next record header and skips its payload.
// It returns io.EOF after the last declared entry.
func (r *Reader) NextInfo() (EntryInfo, error) {
	info, err := r.readInfo()
	if err != nil {
		return EntryInfo{}, err
	}
	n, err := io.CopyN(io.Discard, r.r, int64(info.PayloadSize))
	if err != nil || n != int64(info.PayloadSize) {
		return EntryInfo{}, formatErr(fmt.Sprintf("skip payload of %s", info.Name), err)
	}
	return info, nil
}

func (r *Reader) readInfo() (EntryInfo, error) {
	if r.read == r.count {
		return EntryInfo{}, io.EOF
	}
	idx := r.read

	var info EntryInfo
	var nameLen uint16
	if err := binary.Read(r.r, binary.LittleEndian, &nameLen); err != nil {
		return info, formatErr(fmt.Sprintf("read name length %d", idx), err)
	}
	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r.r, nameBytes); err != nil {
		return info, formatErr(fmt.Sprintf("read name %d", idx), err)
	}
	info.Name = string(nameBytes)

	if err := binary.Read(r.r, binary.LittleEndian, &info.OriginalSize); err != nil {
		return info, formatErr(fmt.Sprintf("read original size %d", idx), err)
	}
	if r.layout == LayoutCounted {
		if err := binary.Read(r.r, binary.LittleEndian, &info.Rounds); err != nil {
			return info, formatErr(fmt.Sprintf("read rounds %d", idx), err)
		}
	}
	if err := binary.Read(r.r, binary.LittleEndian, &info.PayloadSize); err != nil {
		return info, formatErr(fmt.Sprintf("read payload length %d", idx), err)
	}

	r.read++
	return info, nil
}

// readPayload reads exactly n bytes, growing the buffer as data arrives so a
// corrupt length cannot force a large allocation. An empty payload is nil.
func readPayload(r io.Reader, n uint32) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	m, err := io.CopyN(&buf, r, int64(n))
	if err != nil {
		return nil, err
	}
	if m != int64(n) {
		return nil, io.ErrUnexpectedEOF
	}
	return buf.Bytes(), nil
}

// formatErr wraps a short read as ErrFormat. Other read errors are returned
// as I/O failures. The result never matches io.EOF, which Next reserves for
// the end of the archive.
func formatErr(op string, err error) error {
	switch {
	case err == nil, errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return fmt.Errorf("%w: %s: %w", ErrFormat, op, io.ErrUnexpectedEOF)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
