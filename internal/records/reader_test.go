package records

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pindex/internal/poverty"
)

func newTestReader() *Reader {
	return NewReader(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const sample = `year;country;hid;pid;poor;gap
2010;"IT";h1;A;1;0.5
2010;"IT";h2;B;0;0

2011;"IT";h1;A;1;0.25
`

func TestReader_Read(t *testing.T) {
	obs, err := newTestReader().Read(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, poverty.Observation{
		Year: 2010, Country: "IT", HouseholdID: "h1", PersonID: "A", IsPoor: true, PovertyGap: 0.5, Line: 2,
	}, obs[0])
	assert.False(t, obs[1].IsPoor)
	assert.Equal(t, 2011, obs[2].Year)
	assert.Equal(t, 0.25, obs[2].PovertyGap)
}

func TestReader_LinesSkipBlankRows(t *testing.T) {
	obs, err := newTestReader().Read(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, obs, 3)

	lines := []int{obs[0].Line, obs[1].Line, obs[2].Line}
	assert.Equal(t, []int{2, 3, 5}, lines)
}

func TestReader_ByteOrderMark(t *testing.T) {
	obs, err := newTestReader().Read(strings.NewReader("\xEF\xBB\xBF" + sample))
	require.NoError(t, err)
	assert.Len(t, obs, 3)
}

func TestReader_BlankIdentifiersPassThrough(t *testing.T) {
	in := "h\n2010;\"\";h1;;0;0\n"
	obs, err := newTestReader().Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Empty(t, obs[0].Country)
	assert.Empty(t, obs[0].PersonID)
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		field string
	}{
		{"bad year", "h\nX;\"IT\";h;p;0;0\n", 2, FieldYear},
		{"bad poor flag", "h\n2010;\"IT\";h;p;yes;0\n", 2, FieldIsPoor},
		{"bad gap", "h\n2010;\"IT\";h;p;1;0.5\n2011;\"IT\";h;p;1;abc\n", 3, FieldPovertyGap},
		{"too few fields", "h\n2010;\"IT\";h;p;1\n", 2, ""},
		{"bare quote", "h\n2010;I\"T;h;p;1;0\n", 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestReader().Read(strings.NewReader(tt.input))
			require.Error(t, err)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line)
			assert.Equal(t, tt.field, pe.Field)
			assert.Contains(t, err.Error(), "line "+strconv.Itoa(tt.line))
		})
	}

	t.Run("header only", func(t *testing.T) {
		_, err := newTestReader().Read(strings.NewReader("year;country\n"))
		assert.ErrorIs(t, err, ErrNoRecords)
	})
}

func TestReader_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	obs, err := newTestReader().ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, obs, 3)

	_, err = newTestReader().ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
