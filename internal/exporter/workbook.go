package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"pindex/internal/poverty"
)

// Sheet names of the exported workbook
const (
	SheetRatios  = "PersistenceRatios"
	SheetIndices = "PovertyIndices"
	SheetErrors  = "Errors"
)

// Workbook is the content of an xlsx export
type Workbook struct {
	Ratios  []poverty.PersistenceRatio
	Results []poverty.PovertyIndexResult
	Errors  []string
}

// WriteWorkbook writes ratios, results and error messages as three sheets of an xlsx file.
// Numbers are stored as numbers, not as formatted text.
func (e *Exporter) WriteWorkbook(w io.Writer, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRatios); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetIndices, SheetErrors} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	ratioRows := make([][]any, 0, len(wb.Ratios))
	for _, r := range wb.Ratios {
		ratioRows = append(ratioRows, []any{
			r.Country, r.LowYear, r.HighYear, r.PopulationSize, r.PoorInBothYears, r.PermanenceProbability,
		})
	}
	if err := setRows(f, SheetRatios, RatioHeader, ratioRows); err != nil {
		return err
	}

	indexRows := make([][]any, 0, len(wb.Results))
	for _, r := range wb.Results {
		row := []any{
			r.WaveCount, r.Country, r.PersonID, r.PovertySequence, r.PovertyGapSequence, r.MaxSpell,
			r.PovertyGapAverage, r.SequenceEffect1, r.SequenceEffect2, r.SequenceEffect3,
			r.SequenceEffect4, r.SequenceEffect5, r.EmergencyEffect, r.BossertIndex, r.BCD2, r.Alpha,
		}
		for _, v := range r.Indices() {
			row = append(row, v)
		}
		indexRows = append(indexRows, append(row, r.DecayFactor))
	}
	if err := setRows(f, SheetIndices, IndexHeader, indexRows); err != nil {
		return err
	}

	errorRows := make([][]any, 0, len(wb.Errors))
	for _, msg := range wb.Errors {
		errorRows = append(errorRows, []any{msg})
	}
	if err := setRows(f, SheetErrors, []string{"Message"}, errorRows); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	e.logger.Info("workbook exported",
		slog.Int("ratios", len(wb.Ratios)),
		slog.Int("results", len(wb.Results)),
		slog.Int("errors", len(wb.Errors)))
	return nil
}

func setRows(f *excelize.File, sheet string, header []string, rows [][]any) error {
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i, err)
		}
	}
	return nil
}
