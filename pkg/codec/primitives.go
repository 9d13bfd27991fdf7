package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// errEmptyStream is returned by the zstd decoder, whose encoder always emits a frame.
var errEmptyStream = errors.New("empty stream")

// xzMaxDictCap matches the dictionary of xz preset 9.
const xzMaxDictCap = 64 << 20

// xzMinDictCap is the smallest dictionary the LZMA2 writer accepts.
const xzMinDictCap = 1 << 12

// Zlib returns the general-purpose primitive: zlib at best compression.
func Zlib() Primitive { return zlibPrimitive{} }

type zlibPrimitive struct{}

func (zlibPrimitive) Name() string { return "zlib" }

func (zlibPrimitive) Encode(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (zlibPrimitive) Decode(src []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// XZ returns the entropy primitive: an xz container holding LZMA2 data.
func XZ() Primitive { return xzPrimitive{} }

type xzPrimitive struct{}

func (xzPrimitive) Name() string { return "xz" }

// xzDictCap sizes the window to the input, bounded by the preset 9 window.
func xzDictCap(n int) int {
	switch {
	case n < xzMinDictCap:
		return xzMinDictCap
	case n > xzMaxDictCap:
		return xzMaxDictCap
	default:
		return n
	}
}

func (xzPrimitive) Encode(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	cfg := xz.WriterConfig{
		DictCap:  xzDictCap(len(src)),
		CheckSum: xz.CRC64,
	}
	xw, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := xw.Write(src); err != nil {
		return nil, err
	}
	if err := xw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (xzPrimitive) Decode(src []byte) ([]byte, error) {
	xr, err := xz.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(xr)
}

// LZ4 returns an alternative general-purpose primitive using LZ4 frames.
func LZ4() Primitive { return lz4Primitive{} }

type lz4Primitive struct{}

func (lz4Primitive) Name() string { return "lz4" }

func (lz4Primitive) Encode(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if err := zw.Apply(lz4.CompressionLevelOption(lz4.Level9)); err != nil {
		return nil, err
	}
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lz4Primitive) Decode(src []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(src)))
}

// Zstd returns an alternative entropy primitive using zstd at its best level.
func Zstd() Primitive { return &zstdPrimitive{} }

// zstdPrimitive only uses EncodeAll and DecodeAll with concurrency 1, which
// start no background goroutines, so the encoder and decoder are never closed.
type zstdPrimitive struct {
	once   sync.Once
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	setErr error
}

func (*zstdPrimitive) Name() string { return "zstd" }

func (z *zstdPrimitive) init() error {
	z.once.Do(func() {
		z.enc, z.setErr = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBestCompression),
			zstd.WithEncoderConcurrency(1),
			zstd.WithZeroFrames(true),
		)
		if z.setErr != nil {
			return
		}
		z.dec, z.setErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	})
	return z.setErr
}

func (z *zstdPrimitive) Encode(src []byte) ([]byte, error) {
	if err := z.init(); err != nil {
		return nil, fmt.Errorf("create zstd codec: %w", err)
	}
	return z.enc.EncodeAll(src, nil), nil
}

func (z *zstdPrimitive) Decode(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, errEmptyStream
	}
	if err := z.init(); err != nil {
		return nil, fmt.Errorf("create zstd codec: %w", err)
	}
	return z.dec.DecodeAll(src, nil)
}

var (
	generals = map[string]func() Primitive{
		"zlib": Zlib,
		"lz4":  LZ4,
	}
	entropies = map[string]func() Primitive{
		"xz":   XZ,
		"zstd": Zstd,
	}
)

// General looks up a general-purpose primitive by name.
func General(name string) (Primitive, error) {
	f, ok := generals[name]
	if !ok {
		return nil, fmt.Errorf("unknown general compressor %q (have %v)", name, names(generals))
	}
	return f(), nil
}

// Entropy looks up an entropy primitive by name.
func Entropy(name string) (Primitive, error) {
	f, ok := entropies[name]
	if !ok {
		return nil, fmt.Errorf("unknown entropy compressor %q (have %v)", name, names(entropies))
	}
	return f(), nil
}

// StageByName builds a stage from primitive names.
func StageByName(general, entropy string) (*Stage, error) {
	g, err := General(general)
	if err != nil {
		return nil, err
	}
	e, err := Entropy(entropy)
	if err != nil {
		return nil, err
	}
	return NewStage(g, e), nil
}

func names(m map[string]func() Primitive) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
