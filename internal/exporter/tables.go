package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"pindex/internal/poverty"
)

// RatioHeader names the columns of the persistence ratio export
var RatioHeader = []string{
	"Country", "LowYear", "HighYear", "PopulationSize", "PoorInBothYears", "PermanenceProbability",
}

// IndexHeader names the columns of the poverty index export
var IndexHeader = []string{
	"WaveCount", "Country", "PersonId", "PovertySequence", "PovertyGapSequence", "MaxSpell",
	"PovertyGapAverage", "SE1", "SE2", "SE3", "SE4", "SE5", "EmergencyEffect", "BossertIndex",
	"BCD2", "Alpha", "SE_EE_1", "SE_EE_2", "SE_EE_3", "SE_EE_4", "SE_EE_5", "DecayFactor",
}

// Options configures an Exporter
type Options struct {
	Precision     int
	IncludeHeader bool
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{Precision: DefaultPrecision, IncludeHeader: true}
}

// Exporter renders persistence ratios and poverty index results as ';' delimited text
// and as an xlsx workbook
type Exporter struct {
	options Options
	logger  *slog.Logger
}

// New creates an exporter
func New(options Options, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	if options.Precision < 0 {
		options.Precision = DefaultPrecision
	}
	return &Exporter{
		options: options,
		logger:  logger.With(slog.String("component", "exporter")),
	}
}

func (e *Exporter) writeOptions(header []string) WriteOptions {
	if !e.options.IncludeHeader {
		return WriteOptions{}
	}
	return WriteOptions{Header: header}
}

// WritePersistenceRatios writes one line per ratio, country quoted
func (e *Exporter) WritePersistenceRatios(w io.Writer, ratios []poverty.PersistenceRatio) error {
	rows := make([][]string, 0, len(ratios))
	for _, r := range ratios {
		rows = append(rows, e.ratioRow(r))
	}

	if err := writeDelimited(w, e.writeOptions(RatioHeader), rows); err != nil {
		return fmt.Errorf("write persistence ratios: %w", err)
	}

	e.logger.Info("persistence ratios exported", slog.Int("rows", len(rows)))
	return nil
}

// WritePovertyIndices writes one line per result, country and both sequences quoted
func (e *Exporter) WritePovertyIndices(w io.Writer, results []poverty.PovertyIndexResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, e.indexRow(r))
	}

	if err := writeDelimited(w, e.writeOptions(IndexHeader), rows); err != nil {
		return fmt.Errorf("write poverty indices: %w", err)
	}

	e.logger.Info("poverty indices exported", slog.Int("rows", len(rows)))
	return nil
}

func (e *Exporter) ratioRow(r poverty.PersistenceRatio) []string {
	return []string{
		quote(r.Country),
		formatInt(r.LowYear),
		formatInt(r.HighYear),
		formatInt(r.PopulationSize),
		formatInt(r.PoorInBothYears),
		formatFloat(r.PermanenceProbability, e.options.Precision),
	}
}

func (e *Exporter) indexRow(r poverty.PovertyIndexResult) []string {
	p := e.options.Precision
	row := []string{
		formatInt(r.WaveCount),
		quote(r.Country),
		r.PersonID,
		quote(r.PovertySequence),
		quote(r.PovertyGapSequence),
		formatInt(r.MaxSpell),
		formatFloat(r.PovertyGapAverage, p),
	}
	for _, v := range []float64{
		r.SequenceEffect1, r.SequenceEffect2, r.SequenceEffect3, r.SequenceEffect4, r.SequenceEffect5,
		r.EmergencyEffect, r.BossertIndex, r.BCD2, r.Alpha,
	} {
		row = append(row, formatFloat(v, p))
	}
	for _, v := range r.Indices() {
		row = append(row, formatFloat(v, p))
	}
	return append(row, formatFloat(r.DecayFactor, p))
}
