package employee

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"staff-api/internal/apperr"
	"staff-api/internal/observability"
	"staff-api/internal/response"
)

const maxUploadSizeBytes = 10 << 20

type Handler struct {
	service *Service
	logger  *observability.Logger
}

func NewHandler(service *Service, logger *observability.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Routes mounts the employee endpoints; callers wrap them in auth.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/stats", h.Stats)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/documents", h.UploadDocument)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, err := ParseListQuery(r.URL.Query())
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	page, err := h.service.List(r.Context(), q)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.OK(w, "", page)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.OK(w, "", stats)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.OK(w, "", view)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	raw, err := response.ReadBody(w, r)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	var in Input
	if err := DecodeInput(raw, &in); err != nil {
		response.Error(w, h.logger, err)
		return
	}

	view, err := h.service.Create(r.Context(), in)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	h.logger.Info("employee_created", map[string]any{"id": view.ID, "employee_id": view.EmployeeID})
	response.Created(w, "Employee created successfully", view)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	raw, err := response.ReadBody(w, r)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	view, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), JSONPatch(raw))
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.OK(w, "Employee updated successfully", view)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.SoftDelete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	h.logger.Info("employee_terminated", map[string]any{"id": view.ID, "employee_id": view.EmployeeID})
	response.OK(w, "Employee deleted successfully", view)
}

// UploadDocument takes a multipart form with file, name and type fields.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if !h.service.UploadsEnabled() {
		response.Error(w, h.logger, ErrUploadsDisabled)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSizeBytes+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSizeBytes); err != nil {
		response.Error(w, h.logger, apperr.New(apperr.KindValidation, "invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, h.logger, apperr.Validation([]apperr.FieldError{{Field: "file", Message: "file is required"}}))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSizeBytes+1))
	if err != nil {
		response.Error(w, h.logger, apperr.New(apperr.KindValidation, "failed to read file"))
		return
	}
	if len(data) > maxUploadSizeBytes {
		response.Error(w, h.logger, apperr.Validation([]apperr.FieldError{{Field: "file", Message: "file is too large"}}))
		return
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data)
	}
	name := r.FormValue("name")
	if strings.TrimSpace(name) == "" {
		name = header.Filename
	}

	view, err := h.service.AddDocument(r.Context(), chi.URLParam(r, "id"), DocumentUpload{
		Name:        name,
		Type:        r.FormValue("type"),
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.Created(w, "Document uploaded successfully", view)
}
