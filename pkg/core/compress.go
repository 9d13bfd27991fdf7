package core

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stich/pkg/codec"
)

// Create compresses each file in paths, in order, into an archive at output.
//
// Entries are written as soon as their payload is ready; no archive-wide state
// is kept in memory beyond the file being processed. Names are stored as given
// (slash separated) unless WithBaseNames is set. An existing output file is
// replaced, and a partially written archive is removed on failure.
//
// The context is checked between entries.
func Create(ctx context.Context, paths []string, output string, opts ...Option) (err error) {
	cfg := newConfig(opts)
	log := cfg.log()

	if uint64(len(paths)) > MaxEntries {
		return fmt.Errorf("%w: %d", ErrTooManyEntries, len(paths))
	}

	log.Info("creating archive", "output", output, "files", len(paths), "layout", cfg.layout.String())
	started := time.Now()

	cfg.tracker.SetTotal(calculateTotalSize(paths))
	cfg.tracker.Start()
	defer cfg.tracker.Stop()

	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
		if err != nil {
			os.Remove(output)
		}
	}()

	bw := bufio.NewWriter(f)
	aw, err := NewWriter(bw, len(paths), cfg.layout)
	if err != nil {
		return err
	}

	comp := codec.NewCompressor(cfg.codec, cfg.maxRounds)
	var totalIn, totalOut uint64
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, err := cfg.compressFile(comp, path)
		if err != nil {
			return fmt.Errorf("compress %s: %w", path, err)
		}
		if err := aw.WriteEntry(entry); err != nil {
			return fmt.Errorf("write entry %s: %w", entry.Name, err)
		}
		totalIn += uint64(entry.OriginalSize)
		totalOut += uint64(len(entry.Payload))
	}
	if err := aw.Close(); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	log.Info("archive created",
		"output", output,
		"entries", len(paths),
		"input_bytes", totalIn,
		"payload_bytes", totalOut,
		"elapsed", time.Since(started))
	return nil
}

// compressFile reads one source file and runs it through the codec.
func (c *config) compressFile(comp *codec.Compressor, path string) (*Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if uint64(len(raw)) > MaxEntrySize {
		return nil, fmt.Errorf("%w: %d bytes", ErrSizeOverflow, len(raw))
	}

	data := raw
	if !c.noPreprocess {
		data = codec.Preprocess(raw)
	}
	res, err := comp.Compress(data)
	if err != nil {
		return nil, err
	}
	c.tracker.Add(uint64(len(raw)))

	name := filepath.ToSlash(path)
	if c.baseNames {
		name = filepath.Base(path)
	}
	c.log().Debug("entry compressed",
		"name", name,
		"original_size", len(raw),
		"preprocessed_size", len(data),
		"payload_size", len(res.Data),
		"rounds", res.Rounds)

	return &Entry{
		Name:         name,
		OriginalSize: uint32(len(raw)),
		Rounds:       uint8(res.Rounds),
		Payload:      res.Data,
	}, nil
}

// calculateTotalSize sums source sizes for progress reporting.
// Unreadable files are skipped here and reported when they are compressed.
func calculateTotalSize(paths []string) uint64 {
	var total uint64
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		total += uint64(info.Size())
	}
	return total
}
