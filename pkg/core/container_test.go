package core

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeArchive(t *testing.T, layout Layout, entries ...*Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, len(entries), layout)
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, w.WriteEntry(e))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestWriterEmptyArchive(t *testing.T) {
	t.Parallel()

	data := encodeArchive(t, LayoutClassic)
	assert.Equal(t, []byte{0, 0, 0, 0}, data)

	r, err := NewReader(bytes.NewReader(data), LayoutClassic)
	require.NoError(t, err)
	assert.Zero(t, r.Count())

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriterClassicLayoutBytes(t *testing.T) {
	t.Parallel()

	data := encodeArchive(t, LayoutClassic, &Entry{
		Name:         "ab",
		OriginalSize: 0x01020304,
		Rounds:       7,
		Payload:      []byte{9, 8, 7},
	})

	want := []byte{
		1, 0, 0, 0, // entry count
		2, 0, // name length
		'a', 'b',
		4, 3, 2, 1, // original size
		3, 0, 0, 0, // payload length
		9, 8, 7,
	}
	assert.Equal(t, want, data)
}

func TestWriterCountedLayoutBytes(t *testing.T) {
	t.Parallel()

	data := encodeArchive(t, LayoutCounted, &Entry{
		Name:         "é",
		OriginalSize: 5,
		Rounds:       20,
		Payload:      []byte{1},
	})

	want := []byte{
		1, 0, 0, 0,
		2, 0,
		0xC3, 0xA9,
		5, 0, 0, 0,
		20, // rounds
		1, 0, 0, 0,
		1,
	}
	assert.Equal(t, want, data)
}

func TestReaderRoundTrip(t *testing.T) {
	t.Parallel()

	entries := []*Entry{
		{Name: "first.txt", OriginalSize: 10, Rounds: 1, Payload: []byte("payload-1")},
		{Name: "", OriginalSize: 0, Rounds: 2, Payload: nil},
		{Name: "dir/third.bin", OriginalSize: 1 << 20, Rounds: 3, Payload: bytes.Repeat([]byte{0xEE}, 300)},
	}

	for _, layout := range []Layout{LayoutClassic, LayoutCounted} {
		layout := layout
		t.Run(layout.String(), func(t *testing.T) {
			t.Parallel()
			data := encodeArchive(t, layout, entries...)

			r, err := NewReader(bytes.NewReader(data), layout)
			require.NoError(t, err)
			require.Equal(t, len(entries), r.Count())

			for _, want := range entries {
				got, err := r.Next()
				require.NoError(t, err)
				assert.Equal(t, want.Name, got.Name)
				assert.Equal(t, want.OriginalSize, got.OriginalSize)
				assert.Equal(t, want.Payload, got.Payload)
				if layout == LayoutCounted {
					assert.Equal(t, want.Rounds, got.Rounds)
				} else {
					assert.Zero(t, got.Rounds)
				}
			}
			_, err = r.Next()
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestReaderEmptyPayload(t *testing.T) {
	t.Parallel()

	data := encodeArchive(t, LayoutClassic,
		&Entry{Name: "empty", Payload: nil},
		&Entry{Name: "also-empty", Payload: []byte{}},
	)
	r, err := NewReader(bytes.NewReader(data), LayoutClassic)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		e, err := r.Next()
		require.NoError(t, err)
		assert.Nil(t, e.Payload)
		assert.Zero(t, e.Info().PayloadSize)
	}
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderNextInfo(t *testing.T) {
	t.Parallel()

	data := encodeArchive(t, LayoutCounted,
		&Entry{Name: "a", OriginalSize: 3, Rounds: 4, Payload: []byte("xyz")},
		&Entry{Name: "b", OriginalSize: 1, Rounds: 1, Payload: []byte("q")},
	)
	r, err := NewReader(bytes.NewReader(data), LayoutCounted)
	require.NoError(t, err)

	info, err := r.NextInfo()
	require.NoError(t, err)
	assert.Equal(t, EntryInfo{Name: "a", OriginalSize: 3, Rounds: 4, PayloadSize: 3}, info)

	entry, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, EntryInfo{Name: "b", OriginalSize: 1, Rounds: 1, PayloadSize: 1}, entry.Info())

	_, err = r.NextInfo()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderTruncated(t *testing.T) {
	t.Parallel()

	data := encodeArchive(t, LayoutClassic,
		&Entry{Name: "one", OriginalSize: 2, Payload: []byte("12")},
		&Entry{Name: "two", OriginalSize: 2, Payload: []byte("34")},
	)

	// Every strict prefix is missing at least one declared field.
	for cut := 0; cut < len(data); cut++ {
		r, err := NewReader(bytes.NewReader(data[:cut]), LayoutClassic)
		if err == nil {
			for err == nil {
				_, err = r.Next()
			}
		}
		require.ErrorIs(t, err, ErrFormat, "cut at %d", cut)
		require.False(t, errors.Is(err, io.EOF), "cut at %d reported clean end", cut)
	}
}

func TestReaderCorruptPayloadLength(t *testing.T) {
	t.Parallel()

	data := encodeArchive(t, LayoutClassic, &Entry{Name: "f", OriginalSize: 3, Payload: []byte("abc")})
	// count(4) + name_len(2) + name(1) + original_size(4)
	binary.LittleEndian.PutUint32(data[11:], 0xFFFFFFFF)

	r, err := NewReader(bytes.NewReader(data), LayoutClassic)
	require.NoError(t, err)
	_, err = r.Next()
	require.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "payload")
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestReaderIOErrorIsNotFormatError(t *testing.T) {
	t.Parallel()

	_, err := NewReader(brokenReader{}, LayoutClassic)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestWriterLimits(t *testing.T) {
	t.Parallel()

	t.Run("name too long", func(t *testing.T) {
		t.Parallel()
		w, err := NewWriter(io.Discard, 1, LayoutClassic)
		require.NoError(t, err)
		err = w.WriteEntry(&Entry{Name: string(bytes.Repeat([]byte("n"), MaxNameLen+1))})
		require.ErrorIs(t, err, ErrNameTooLong)
	})

	t.Run("longest name", func(t *testing.T) {
		t.Parallel()
		w, err := NewWriter(io.Discard, 1, LayoutClassic)
		require.NoError(t, err)
		require.NoError(t, w.WriteEntry(&Entry{Name: string(bytes.Repeat([]byte("n"), MaxNameLen))}))
	})

	t.Run("too many entries written", func(t *testing.T) {
		t.Parallel()
		w, err := NewWriter(io.Discard, 1, LayoutClassic)
		require.NoError(t, err)
		require.NoError(t, w.WriteEntry(&Entry{Name: "a"}))
		require.ErrorIs(t, w.WriteEntry(&Entry{Name: "b"}), ErrEntryCount)
	})

	t.Run("too few entries written", func(t *testing.T) {
		t.Parallel()
		w, err := NewWriter(io.Discard, 2, LayoutClassic)
		require.NoError(t, err)
		require.NoError(t, w.WriteEntry(&Entry{Name: "a"}))
		require.ErrorIs(t, w.Close(), ErrEntryCount)
	})

	t.Run("negative count", func(t *testing.T) {
		t.Parallel()
		_, err := NewWriter(io.Discard, -1, LayoutClassic)
		require.ErrorIs(t, err, ErrTooManyEntries)
	})
}

func TestLayoutString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "classic", LayoutClassic.String())
	assert.Equal(t, "counted", LayoutCounted.String())
	assert.Equal(t, "layout(9)", Layout(9).String())
}
