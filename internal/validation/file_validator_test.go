package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cruisepulse/internal/errors"
	"cruisepulse/internal/shared/testutil"
)

func TestFileValidator_ValidateInputFile(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T, dir string) string
		wantType      apperrors.ErrorType
		errorContains string
	}{
		{
			name: "valid csv",
			setupFunc: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "bookings.csv")
				require.NoError(t, os.WriteFile(path, []byte("Путевка\nV-1\n"), 0644))
				return path
			},
		},
		{
			name: "valid xlsx upper case extension",
			setupFunc: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "BOOKINGS.XLSX")
				require.NoError(t, os.WriteFile(path, []byte("PK"), 0644))
				return path
			},
		},
		{
			name: "unsupported extension",
			setupFunc: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "bookings.pdf")
				require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0644))
				return path
			},
			wantType:      apperrors.ErrTypeValidation,
			errorContains: "unsupported input file",
		},
		{
			name: "office lock file",
			setupFunc: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "~$bookings.xlsx")
				require.NoError(t, os.WriteFile(path, []byte("lock"), 0644))
				return path
			},
			wantType:      apperrors.ErrTypeValidation,
			errorContains: "lock file",
		},
		{
			name: "missing file",
			setupFunc: func(t *testing.T, dir string) string {
				return filepath.Join(dir, "absent.csv")
			},
			wantType:      apperrors.ErrTypeNotFound,
			errorContains: "absent.csv",
		},
		{
			name: "empty file",
			setupFunc: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "empty.csv")
				require.NoError(t, os.WriteFile(path, nil, 0644))
				return path
			},
			wantType:      apperrors.ErrTypeValidation,
			errorContains: "is empty",
		},
		{
			name: "directory",
			setupFunc: func(t *testing.T, dir string) string {
				path := filepath.Join(dir, "export.csv")
				require.NoError(t, os.Mkdir(path, 0755))
				return path
			},
			wantType:      apperrors.ErrTypeValidation,
			errorContains: "is a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			v := NewFileValidator(logger)

			err := v.ValidateInputFile(tt.setupFunc(t, t.TempDir()))
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)

	dir := filepath.Join(t.TempDir(), "nested", "results")
	require.NoError(t, v.ValidateOutputDirectory(dir))
	assert.DirExists(t, dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file is removed")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	err = v.ValidateOutputDirectory(filepath.Join(blocker, "results"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}
