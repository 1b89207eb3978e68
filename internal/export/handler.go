package export

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/goover/docudesk/internal/platform/httpx"
	"github.com/goover/docudesk/internal/shared"
)

// Handler serves rendered PDFs.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers export routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/documents/{id}/pdf", h.pdf)
	r.Post("/documents/{id}/print", h.print)
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a number"))
		return
	}
	art, err := h.service.RenderDocument(r.Context(), id)
	if err != nil {
		h.logger.Error("render document", slog.Int64("document_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	disposition := "inline"
	if r.URL.Query().Get("download") != "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, art.Name))
	w.Header().Set("ETag", strconv.Quote(art.Fingerprint))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}

func (h *Handler) print(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.NewValidationError("id", "must be a number"))
		return
	}
	art, err := h.service.PrintDocument(r.Context(), id)
	if errors.Is(err, ErrNoSpooler) {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("print document", slog.Int64("document_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"file": art.Name, "pages": art.Pages})
}
