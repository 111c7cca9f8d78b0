package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	apperrors "pindex/internal/errors"
	"pindex/internal/exporter"
	"pindex/internal/infrastructure"
)

// Export kinds, also used as metric attributes
const (
	ExportRatios   = "ratios"
	ExportIndices  = "indices"
	ExportWorkbook = "workbook"
)

// CanExportRatios reports whether the resident state has persistence ratios
func (c *CalculatorService) CanExportRatios() bool { return len(c.State().Ratios()) > 0 }

// CanExportIndices reports whether the resident state has index results
func (c *CalculatorService) CanExportIndices() bool { return len(c.State().Results()) > 0 }

// WriteRatios writes the persistence ratios of the resident state to w
func (c *CalculatorService) WriteRatios(ctx context.Context, w io.Writer) error {
	return c.exportTo(ctx, ExportRatios, func(s *Snapshot) error {
		if len(s.Ratios()) == 0 {
			return apperrors.NewNotFoundError("persistence ratios")
		}
		return c.exporter.WritePersistenceRatios(w, s.Ratios())
	})
}

// WriteIndices writes the poverty index results of the resident state to w
func (c *CalculatorService) WriteIndices(ctx context.Context, w io.Writer) error {
	return c.exportTo(ctx, ExportIndices, func(s *Snapshot) error {
		if len(s.Results()) == 0 {
			return apperrors.NewNotFoundError("poverty index results")
		}
		return c.exporter.WritePovertyIndices(w, s.Results())
	})
}

// WriteWorkbook writes ratios, results and errors of the resident state as an xlsx
// workbook. It needs a loaded dataset, not a valid one, so errors can be reviewed.
func (c *CalculatorService) WriteWorkbook(ctx context.Context, w io.Writer) error {
	return c.exportTo(ctx, ExportWorkbook, func(s *Snapshot) error {
		if !s.HasDataset() {
			return apperrors.NewNotFoundError("dataset")
		}
		return c.exporter.WriteWorkbook(w, exporter.Workbook{
			Ratios:  s.Ratios(),
			Results: s.Results(),
			Errors:  s.ErrorMessages(),
		})
	})
}

func (c *CalculatorService) exportTo(ctx context.Context, kind string, write func(*Snapshot) error) error {
	ctx, span := c.tracer.Start(ctx, "calculator.export."+kind)
	defer span.End()

	err := write(c.State())
	if err != nil && apperrors.TypeOf(err) == "" {
		err = apperrors.NewStorageError("failed to write "+kind+" export", err)
	}
	c.metrics.RecordExport(ctx, kind, err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
	}
	return err
}

// ExportFile writes one export kind to path, replacing any previous file only once the
// export is complete
func (c *CalculatorService) ExportFile(ctx context.Context, kind, path string) error {
	var write func(context.Context, io.Writer) error
	switch kind {
	case ExportRatios:
		write = c.WriteRatios
	case ExportIndices:
		write = c.WriteIndices
	case ExportWorkbook:
		write = c.WriteWorkbook
	default:
		return apperrors.NewAppValidationError("unknown export kind " + kind)
	}

	err := exporter.WriteFile(path, func(w io.Writer) error { return write(ctx, w) })
	if err != nil {
		if apperrors.TypeOf(err) == "" {
			err = apperrors.NewStorageError("failed to write "+kind+" export", err).WithContext("path", path)
		}
		return err
	}

	c.logger.InfoContext(ctx, "export written",
		slog.String("kind", kind),
		slog.String("path", path))
	return nil
}

// ExportAll writes every available export into dir under the configured file names and
// returns the written paths. Unavailable exports are skipped; the workbook is written
// only when requested.
func (c *CalculatorService) ExportAll(ctx context.Context, dir string, workbook bool) ([]string, error) {
	if dir == "" {
		dir = c.export.OutputDir
	}

	type target struct {
		kind, file string
		available  bool
	}
	targets := []target{
		{ExportRatios, c.export.RatiosFile, c.CanExportRatios()},
		{ExportIndices, c.export.IndicesFile, c.CanExportIndices()},
		{ExportWorkbook, c.export.WorkbookFile, workbook && c.State().HasDataset()},
	}

	var written []string
	for _, t := range targets {
		if !t.available {
			c.logger.DebugContext(ctx, "export skipped, nothing to write", slog.String("kind", t.kind))
			continue
		}
		path := filepath.Join(dir, t.file)
		if err := c.ExportFile(ctx, t.kind, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
