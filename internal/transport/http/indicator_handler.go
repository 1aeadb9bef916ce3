package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"fedstatcli/internal/dataprocessing"
	apperrors "fedstatcli/internal/errors"
	"fedstatcli/internal/exporter"
	"fedstatcli/internal/services"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// TableResponse is the JSON rendering of a table
type TableResponse struct {
	Source   string                   `json:"source"`
	Columns  []string                 `json:"columns"`
	RowCount int                      `json:"row_count"`
	Rows     []map[string]interface{} `json:"rows"`
}

// SaveTableRequest asks to process one indicator, or the sum of two, and
// store the result under Name
type SaveTableRequest struct {
	Name         string   `json:"name"`
	First        string   `json:"first"`
	Second       string   `json:"second,omitempty"`
	EstimateYear int      `json:"estimate_year,omitempty"`
	Filters      []string `json:"filter,omitempty"`
}

// Bind implements render.Binder
func (req *SaveTableRequest) Bind(r *http.Request) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperrors.NewAppValidationError("name is required").
			WithContext("fields", []apperrors.FieldError{{Field: "name", Message: "name is required"}})
	}
	return nil
}

// source names the indicators a saved table came from
func (req *SaveTableRequest) source() string {
	if req.Second == "" {
		return req.First
	}
	return req.First + "+" + req.Second
}

// IndicatorHandler serves indicator data
type IndicatorHandler struct {
	service      IndicatorServiceInterface
	exporter     *exporter.TableExporter
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewIndicatorHandler creates a new indicator handler
func NewIndicatorHandler(service IndicatorServiceInterface, exp *exporter.TableExporter, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *IndicatorHandler {
	return &IndicatorHandler{
		service:      service,
		exporter:     exp,
		logger:       logger.With(slog.String("component", "indicator_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the indicator routes
func (h *IndicatorHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.Describe)
	r.Get("/{id}/data", h.Data)
	return r
}

// TableRoutes returns the saved table routes
func (h *IndicatorHandler) TableRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListTables)
	r.Post("/", h.SaveTable)
	r.Get("/{name}", h.GetTable)
	return r
}

// Describe handles GET /api/indicators/{id}
func (h *IndicatorHandler) Describe(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Describe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// Data handles GET /api/indicators/{id}/data?filter=...&format=json|csv|xlsx
func (h *IndicatorHandler) Data(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := formatParam(r)

	table, err := h.service.Processed(r.Context(), services.DataRequest{
		IndicatorID: id,
		Filters:     filterParams(r),
		Format:      format,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeTable(w, r, id, format, table)
}

// Combined handles GET /api/combined?first=&second=&estimate_year=
func (h *IndicatorHandler) Combined(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	estimateYear, err := intParam(r, "estimate_year")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	req := services.CombineRequest{
		First:        q.Get("first"),
		Second:       q.Get("second"),
		EstimateYear: estimateYear,
		Filters:      filterParams(r),
		Format:       formatParam(r),
	}
	table, err := h.service.Combined(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeTable(w, r, req.First+"_"+req.Second, req.Format, table)
}

// ListTables handles GET /api/tables
func (h *IndicatorHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.service.StoredTables(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, storeError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"tables": tables,
		"count":  len(tables),
	})
}

// GetTable handles GET /api/tables/{name}
func (h *IndicatorHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	table, err := h.service.StoredTable(r.Context(), name)
	if err != nil {
		h.errorHandler.HandleError(w, r, storeError(err))
		return
	}
	h.writeTable(w, r, name, formatParam(r), table)
}

// SaveTable handles POST /api/tables
func (h *IndicatorHandler) SaveTable(w http.ResponseWriter, r *http.Request) {
	req := &SaveTableRequest{}
	if err := render.Bind(r, req); err != nil {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			err = apperrors.NewAppValidationError(fmt.Sprintf("invalid request body: %v", err))
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var table *dataprocessing.Table
	var err error
	if req.Second == "" {
		table, err = h.service.Processed(r.Context(), services.DataRequest{
			IndicatorID: req.First,
			Filters:     req.Filters,
		})
	} else {
		table, err = h.service.Combined(r.Context(), services.CombineRequest{
			First:        req.First,
			Second:       req.Second,
			EstimateYear: req.EstimateYear,
			Filters:      req.Filters,
		})
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if err := h.service.Save(r.Context(), req.Name, req.source(), table); err != nil {
		h.errorHandler.HandleError(w, r, storeError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "Table saved",
		slog.String("name", req.Name),
		slog.String("source", req.source()),
		slog.Int("rows", table.Len()))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"name":   req.Name,
		"source": req.source(),
		"rows":   table.Len(),
	})
}

// writeTable renders a table as JSON or streams it as a CSV or XLSX download
func (h *IndicatorHandler) writeTable(w http.ResponseWriter, r *http.Request, name, format string, table *dataprocessing.Table) {
	var contentType string
	switch format {
	case services.FormatCSV:
		contentType = contentTypeCSV
	case services.FormatXLSX:
		contentType = contentTypeXLSX
	default:
		render.JSON(w, r, TableResponse{
			Source:   name,
			Columns:  table.Columns,
			RowCount: table.Len(),
			Rows:     table.Maps(),
		})
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.WriteTo(&buf, exporter.Format(format), table); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewStorageError("failed to render table", err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to write table",
			slog.String("name", name),
			slog.String("error", err.Error()))
	}
}

// storeError reports a missing SQLite store as a missing resource
func storeError(err error) error {
	if errors.Is(err, services.ErrStoreDisabled) {
		return apperrors.NewNotFoundError("sqlite store")
	}
	return err
}

// filterParams collects repeated and comma separated filter parameters
func filterParams(r *http.Request) []string {
	var filters []string
	for _, v := range r.URL.Query()["filter"] {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				filters = append(filters, f)
			}
		}
	}
	return filters
}

func formatParam(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
}

func intParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		msg := fmt.Sprintf("%s must be an integer", name)
		return 0, apperrors.NewAppValidationError(msg).
			WithContext("fields", []apperrors.FieldError{{Field: name, Message: msg}})
	}
	return v, nil
}
