package lib

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stich/internal/testutil"
	"stich/pkg/core"
)

func TestCreateAndExtractArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := testutil.WriteFile(t, dir, "a.txt", []byte("hi   there"))
	b := testutil.WriteFile(t, dir, "b.bin", testutil.ByteRange(256))

	archive := filepath.Join(dir, "pair"+Extension)
	require.NoError(t, CreateArchive([]string{a, b}, archive, core.WithBaseNames()))

	outDir := filepath.Join(dir, "out")
	require.NoError(t, ExtractArchive(archive, outDir))

	got, err := os.ReadFile(filepath.Join(outDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi there", string(got))

	got, err = os.ReadFile(filepath.Join(outDir, "b.bin"))
	require.NoError(t, err)
	assert.Equal(t, testutil.ByteRange(256), got)

	entries, err := ListArchive(archive)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, "b.bin", entries[1].Name)
}

func TestErrorCases(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	truncated := filepath.Join(dir, "truncated"+Extension)
	require.NoError(t, os.WriteFile(truncated, []byte{1, 0}, 0644))

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name: "non-existent input file",
			run: func() error {
				return CreateArchive([]string{filepath.Join(dir, "nope.txt")}, filepath.Join(dir, "x"+Extension))
			},
		},
		{
			name: "non-existent archive",
			run: func() error {
				return ExtractArchive(filepath.Join(dir, "nope"+Extension), dir)
			},
		},
		{
			name: "truncated archive",
			run: func() error {
				return ExtractArchive(truncated, filepath.Join(dir, "out"))
			},
			wantErr: ErrFormat,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.run()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestReexportedErrorsMatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "junk"+Extension)

	var buf bytes.Buffer
	w, err := core.NewWriter(&buf, 1, core.LayoutCounted)
	require.NoError(t, err)
	require.NoError(t, w.WriteEntry(&core.Entry{Name: "x", OriginalSize: 1, Rounds: 1, Payload: []byte("junk")}))
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(archive, buf.Bytes(), 0644))

	err = ExtractArchive(archive, filepath.Join(dir, "out"), core.WithLayout(core.LayoutCounted))
	assert.ErrorIs(t, err, ErrDecode)

	w, err = core.NewWriter(io.Discard, 2, core.LayoutClassic)
	require.NoError(t, err)
	assert.ErrorIs(t, w.Close(), ErrEntryCount)
}
