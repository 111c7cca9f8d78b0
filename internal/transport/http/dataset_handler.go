package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"pindex/internal/config"
	apperrors "pindex/internal/errors"
	"pindex/internal/middleware"
	"pindex/internal/poverty"
	"pindex/internal/services"
)

// UploadField is the multipart field carrying the observations file
const UploadField = "file"

// UploadContentTypes are the accepted media types of a dataset upload
var UploadContentTypes = []string{"text/csv", "text/plain", "application/octet-stream", "multipart/form-data"}

// DatasetHandlerOptions configures a DatasetHandler
type DatasetHandlerOptions struct {
	MaxUploadBytes int64
	// UploadLimiter, when set, wraps the upload endpoint only
	UploadLimiter func(http.Handler) http.Handler
	Export        config.ExportConfig
}

// DatasetHandler serves the resident dataset: upload, listings and exports
type DatasetHandler struct {
	calculator     CalculatorService
	logger         *slog.Logger
	errorHandler   *apperrors.ErrorHandler
	queryValidator *middleware.QueryParamValidator
	opts           DatasetHandlerOptions
}

// NewDatasetHandler creates a dataset handler
func NewDatasetHandler(calculator CalculatorService, opts DatasetHandlerOptions, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *DatasetHandler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	if opts.Export.RatiosFile == "" {
		opts.Export = config.Default().Export
	}
	return &DatasetHandler{
		calculator:     calculator,
		logger:         logger.With(slog.String("component", "dataset_handler")),
		errorHandler:   errorHandler,
		queryValidator: middleware.NewQueryParamValidator(logger, errorHandler),
		opts:           opts,
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Group(func(r chi.Router) {
			if h.opts.UploadLimiter != nil {
				r.Use(h.opts.UploadLimiter)
			}
			r.Use(middleware.ContentTypeValidator(UploadContentTypes...))
			r.Post("/dataset", h.Upload)
		})
		r.Get("/dataset", h.GetDataset)
		r.Delete("/dataset", h.Reset)

		r.Get("/observations", h.GetObservations)
		r.Get("/people", h.GetPeople)
		r.Get("/ratios", h.GetRatios)
		r.Get("/errors", h.GetErrors)
		r.Get("/panels", h.GetPanels)
		r.Get("/indices", h.GetIndices)
	})

	r.Route("/exports", func(r chi.Router) {
		r.Get("/ratios", h.ExportRatios)
		r.Get("/indices", h.ExportIndices)
		r.Get("/workbook", h.ExportWorkbook)
	})

	return r
}

// Upload handles POST /dataset. The body is either the raw observations file or a
// multipart form with the file in the "file" field.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)

	src, source, closeFn, err := h.uploadSource(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer closeFn()

	snap, err := h.calculator.Load(r.Context(), src, source)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset uploaded",
		slog.String("source", source),
		slog.Bool("valid", snap.IsValid()),
		slog.Int("errors", len(snap.Errors())))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newLoadResponse(snap))
}

func (h *DatasetHandler) uploadSource(r *http.Request) (io.Reader, string, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		source := r.URL.Query().Get("name")
		if source == "" {
			source = "upload"
		}
		return r.Body, source, func() {}, nil
	}

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, "", nil, fmt.Errorf("read upload: %w", &http.MaxBytesError{Limit: h.opts.MaxUploadBytes})
		}
		return nil, "", nil, apperrors.NewAppValidationError(
			fmt.Sprintf("multipart upload needs a %q field: %v", UploadField, err))
	}
	return file, header.Filename, func() { file.Close() }, nil
}

// GetDataset handles GET /dataset
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, newLoadResponse(h.calculator.State()))
}

// Reset handles DELETE /dataset
func (h *DatasetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.calculator.Reset()
	h.logger.InfoContext(r.Context(), "dataset discarded")
	w.WriteHeader(http.StatusNoContent)
}

// GetObservations handles GET /observations
func (h *DatasetHandler) GetObservations(w http.ResponseWriter, r *http.Request) {
	snap := h.calculator.State()
	render.JSON(w, r, newList(snap, snap.Observations()))
}

// GetPeople handles GET /people
func (h *DatasetHandler) GetPeople(w http.ResponseWriter, r *http.Request) {
	snap := h.calculator.State()
	people := make([]PersonView, 0, len(snap.People()))
	for _, p := range snap.People() {
		people = append(people, newPersonView(p))
	}
	render.JSON(w, r, newList(snap, people))
}

// GetRatios handles GET /ratios
func (h *DatasetHandler) GetRatios(w http.ResponseWriter, r *http.Request) {
	snap := h.calculator.State()
	render.JSON(w, r, newList(snap, snap.Ratios()))
}

// GetErrors handles GET /errors
func (h *DatasetHandler) GetErrors(w http.ResponseWriter, r *http.Request) {
	snap := h.calculator.State()
	render.JSON(w, r, newList(snap, snap.Errors()))
}

// GetPanels handles GET /panels
func (h *DatasetHandler) GetPanels(w http.ResponseWriter, r *http.Request) {
	snap := h.calculator.State()
	render.JSON(w, r, newList(snap, snap.Panels()))
}

// GetIndices handles GET /indices. The optional wave_count, alpha, country and
// person_id parameters filter the results.
func (h *DatasetHandler) GetIndices(w http.ResponseWriter, r *http.Request) {
	waveCount, hasWave, ok := h.queryValidator.ValidateInt(w, r, "wave_count", poverty.MinBinomialN, poverty.MaxBinomialN)
	if !ok {
		return
	}
	alpha, hasAlpha, ok := h.queryValidator.ValidateFloat(w, r, "alpha", 0, 1)
	if !ok {
		return
	}
	country := r.URL.Query().Get("country")
	personID := r.URL.Query().Get("person_id")

	snap := h.calculator.State()
	results := make([]poverty.PovertyIndexResult, 0, len(snap.Results()))
	for _, res := range snap.Results() {
		switch {
		case hasWave && res.WaveCount != waveCount:
		case hasAlpha && !sameAlpha(res.Alpha, alpha):
		case country != "" && res.Country != country:
		case personID != "" && res.PersonID != personID:
		default:
			results = append(results, res)
		}
	}
	render.JSON(w, r, newList(snap, results))
}

// sameAlpha compares sweep weights computed as k/n with a decimal query value
func sameAlpha(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

// ExportRatios handles GET /exports/ratios
func (h *DatasetHandler) ExportRatios(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "text/plain; charset=utf-8", h.opts.Export.RatiosFile, h.calculator.WriteRatios)
}

// ExportIndices handles GET /exports/indices
func (h *DatasetHandler) ExportIndices(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "text/plain; charset=utf-8", h.opts.Export.IndicesFile, h.calculator.WriteIndices)
}

// ExportWorkbook handles GET /exports/workbook
func (h *DatasetHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", h.opts.Export.WorkbookFile, h.calculator.WriteWorkbook)
}

// export renders into a buffer first so a failure can still produce a problem response
func (h *DatasetHandler) export(w http.ResponseWriter, r *http.Request, contentType, filename string, write func(ctx context.Context, w io.Writer) error) {
	var buf bytes.Buffer
	if err := write(r.Context(), &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(filename)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export response interrupted",
			slog.String("file", filename),
			slog.String("error", err.Error()))
	}
}

var _ CalculatorService = (*services.CalculatorService)(nil)
