package xrotate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLumberjack_Validation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "app.log")

	tests := []struct {
		name     string
		filename string
		opts     []LumberjackOption
		wantErr  error
	}{
		{"empty filename", "", nil, ErrEmptyFilename},
		{"zero size", file, []LumberjackOption{WithMaxSize(0)}, ErrInvalidMaxSize},
		{"huge size", file, []LumberjackOption{WithMaxSize(maxSizeMB + 1)}, ErrInvalidMaxSize},
		{"negative backups", file, []LumberjackOption{WithMaxBackups(-1)}, ErrInvalidMaxBackups},
		{"negative age", file, []LumberjackOption{WithMaxAge(-1)}, ErrInvalidMaxAge},
		{"no cleanup", file, []LumberjackOption{WithMaxBackups(0), WithMaxAge(0)}, ErrNoCleanupPolicy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewLumberjack(tt.filename, tt.opts...)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, r)
		})
	}
}

func TestLumberjack_WriteRotateClose(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "nested", "xloadctl.log")

	r, err := NewLumberjack(file, WithMaxSize(1), WithCompress(false), WithLocalTime(true), nil)
	require.NoError(t, err)

	n, err := r.Write([]byte("first\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	require.NoError(t, r.Rotate())
	_, err = r.Write([]byte("second\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(file))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Close(), ErrClosed)
	_, err = r.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Rotate(), ErrClosed)
}
