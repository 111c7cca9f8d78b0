package records

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"pindex/internal/poverty"
)

// FieldCount is the number of fields of an observation record
const FieldCount = 6

// Field names as reported by ParseError
const (
	FieldYear        = "year"
	FieldCountry     = "country"
	FieldHouseholdID = "householdId"
	FieldPersonID    = "personId"
	FieldIsPoor      = "isPoor"
	FieldPovertyGap  = "povertyGap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNoRecords is returned when the input holds a header and nothing else
var ErrNoRecords = errors.New("no observation records found")

// ParseError reports a record that could not be converted into an Observation
type ParseError struct {
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: field %s: %v", e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Reader reads observation files: a header line followed by
// year;"country";householdId;personId;isPoor;povertyGap records.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a reader that logs through logger
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger.With(slog.String("component", "records"))}
}

// ReadFile opens path and reads every observation it contains
func (r *Reader) ReadFile(path string) ([]poverty.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open observations file: %w", err)
	}
	defer f.Close()

	obs, err := r.Read(f)
	if err != nil {
		return nil, err
	}

	r.logger.Info("observations file read",
		slog.String("path", path),
		slog.Int("observations", len(obs)))
	return obs, nil
}

// Read parses observations from src. The first line is a header and is ignored,
// empty lines are skipped.
func (r *Reader) Read(src io.Reader) ([]poverty.Observation, error) {
	br := bufio.NewReader(src)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, fmt.Errorf("skip byte order mark: %w", err)
		}
	}

	cr := csv.NewReader(br)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var observations []poverty.Observation
	for n := 0; ; n++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ParseError{Line: pe.Line, Err: pe.Err}
			}
			return nil, fmt.Errorf("read observations: %w", err)
		}
		if n < poverty.HeaderLines {
			continue
		}

		line, _ := cr.FieldPos(0)
		obs, err := parseRecord(record, line)
		if err != nil {
			return nil, err
		}
		observations = append(observations, obs)
	}

	if len(observations) == 0 {
		return nil, ErrNoRecords
	}

	r.logger.Debug("observations parsed", slog.Int("count", len(observations)))
	return observations, nil
}

func parseRecord(record []string, line int) (poverty.Observation, error) {
	if len(record) != FieldCount {
		return poverty.Observation{}, &ParseError{
			Line: line,
			Err:  fmt.Errorf("expected %d fields, found %d", FieldCount, len(record)),
		}
	}

	year, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return poverty.Observation{}, &ParseError{Line: line, Field: FieldYear, Err: err}
	}

	isPoor, err := strconv.Atoi(strings.TrimSpace(record[4]))
	if err != nil {
		return poverty.Observation{}, &ParseError{Line: line, Field: FieldIsPoor, Err: err}
	}

	gap, err := strconv.ParseFloat(strings.TrimSpace(record[5]), 64)
	if err != nil {
		return poverty.Observation{}, &ParseError{Line: line, Field: FieldPovertyGap, Err: err}
	}

	return poverty.Observation{
		Year:        year,
		Country:     record[1],
		HouseholdID: record[2],
		PersonID:    record[3],
		IsPoor:      isPoor == 1,
		PovertyGap:  gap,
		Line:        line,
	}, nil
}
