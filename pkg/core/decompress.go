package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stich/pkg/codec"
)

// Extract expands every entry of archive into outputDir, in archive order.
//
// With LayoutClassic each payload is decoded until a round fails or the decode
// round cap is reached, and whatever buffer results is written; the stored
// original size is not checked. With LayoutCounted exactly the recorded number
// of rounds is run and a failing round is an error.
//
// Entries with the same name overwrite each other; the last one wins.
func Extract(ctx context.Context, archive, outputDir string, opts ...Option) error {
	cfg := newConfig(opts)
	log := cfg.log()

	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	ar, err := NewReader(bufio.NewReader(f), cfg.layout)
	if err != nil {
		return err
	}
	log.Info("extracting archive", "archive", archive, "output", outputDir, "entries", ar.Count(), "layout", cfg.layout.String())
	started := time.Now()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	cfg.tracker.Start()
	defer cfg.tracker.Stop()

	dec := codec.NewDecompressor(cfg.codec, cfg.maxDecodeRounds)
	extracted := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, err := ar.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := cfg.extractEntry(dec, entry, outputDir); err != nil {
			return fmt.Errorf("extract %s: %w", entry.Name, err)
		}
		extracted++
	}

	log.Info("archive extracted", "archive", archive, "entries", extracted, "elapsed", time.Since(started))
	return nil
}

// extractEntry decodes one entry and writes it below outputDir.
func (c *config) extractEntry(dec *codec.Decompressor, entry *Entry, outputDir string) error {
	destPath, err := determineDestPath(outputDir, entry.Name)
	if err != nil {
		return err
	}

	var data []byte
	rounds := int(entry.Rounds)
	switch c.layout {
	case LayoutCounted:
		data, err = dec.DecompressRounds(entry.Payload, rounds)
		if err != nil {
			return err
		}
	default:
		res := dec.Decompress(entry.Payload)
		data, rounds = res.Data, res.Rounds
		if rounds == dec.MaxRounds() {
			c.log().Warn("decode round cap reached, output may still be compressed",
				"name", entry.Name, "rounds", rounds)
		}
	}

	c.log().Debug("entry decoded",
		"name", entry.Name,
		"payload_size", len(entry.Payload),
		"original_size", entry.OriginalSize,
		"output_size", len(data),
		"rounds", rounds)

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", destPath, err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	if _, err := c.tracker.Writer(out).Write(data); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", destPath, err)
	}
	return nil
}

// determineDestPath maps a stored name to a path below outputDir. Leading
// separators are dropped so absolute source paths land inside outputDir;
// names that still escape it are rejected.
func determineDestPath(outputDir, name string) (string, error) {
	rel := strings.TrimLeft(filepath.FromSlash(name), string(filepath.Separator))
	if vol := filepath.VolumeName(rel); vol != "" {
		rel = strings.TrimLeft(rel[len(vol):], string(filepath.Separator))
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return filepath.Join(outputDir, rel), nil
}

// List returns the header of every entry in archive, in order, without
// decoding payloads.
func List(archive string, opts ...Option) ([]EntryInfo, error) {
	cfg := newConfig(opts)

	f, err := os.Open(archive)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	ar, err := NewReader(bufio.NewReader(f), cfg.layout)
	if err != nil {
		return nil, err
	}
	entries := make([]EntryInfo, 0, min(ar.Count(), 1024))
	for {
		info, err := ar.NextInfo()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, info)
	}
	cfg.log().Debug("archive listed", "archive", archive, "entries", len(entries))
	return entries, nil
}
