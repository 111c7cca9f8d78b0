package exporter

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Delimiter separates fields in the exported text files
const Delimiter = ";"

// WriteOptions configures delimited writing
type WriteOptions struct {
	Header []string
}

// writeDelimited writes header and rows to w. Rows are already formatted and quoted.
func writeDelimited(w io.Writer, options WriteOptions, rows [][]string) error {
	bw := bufio.NewWriter(w)

	if len(options.Header) > 0 {
		if _, err := bw.WriteString(strings.Join(options.Header, Delimiter) + "\n"); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		if _, err := bw.WriteString(strings.Join(row, Delimiter) + "\n"); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return bw.Flush()
}

// WriteFile creates path, creating its directory when missing, and fills it with write.
// The file is written to a temporary sibling first and renamed on success so a failed
// export never leaves a truncated file behind.
func WriteFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	slog.Debug("export file written", slog.String("path", path))
	return nil
}
