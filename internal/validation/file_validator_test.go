package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pindex/internal/errors"
	"pindex/internal/shared/testutil"
)

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(t *testing.T) string
		wantErr   bool
	}{
		{
			name:      "existing directory",
			setupFunc: func(t *testing.T) string { return t.TempDir() },
		},
		{
			name: "nested directory is created",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "a", "b")
			},
		},
		{
			name: "parent is a file",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "blocker")
				require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
				return filepath.Join(file, "out")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setupFunc(t)
			err := NewFileValidator(nil).ValidateOutputDirectory(dir)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
				return
			}
			require.NoError(t, err)
			assert.DirExists(t, dir)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "write probe must be removed")
		})
	}
}

func TestFileValidator_ValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	csv := filepath.Join(dir, "panel.csv")
	xlsx := filepath.Join(dir, "panel.xlsx")
	require.NoError(t, os.WriteFile(csv, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(xlsx, []byte("x"), 0o644))

	logger, logs := testutil.NewTestLogger(t)
	v := NewFileValidator(logger)

	require.NoError(t, v.ValidateInputFile(csv))
	assert.Empty(t, logs.GetRecordsByLevel(slog.LevelWarn))

	require.NoError(t, v.ValidateInputFile(xlsx))
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Unexpected input file extension")

	err := v.ValidateInputFile(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = v.ValidateInputFile(dir)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}
