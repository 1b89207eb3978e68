package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goover/docudesk/internal/platform/httpx"
	"github.com/goover/docudesk/internal/shared"
)

// Handler exposes the settings singleton over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings", h.get)
	r.Put("/settings", h.put)
	r.Get("/settings/export", h.export)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	cs, err := h.service.Load(r.Context())
	if err != nil {
		h.logger.Error("load settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cs)
}

func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	var cs CompanySettings
	if err := httpx.DecodeJSON(r, &cs); err != nil {
		httpx.RespondError(w, shared.NewValidationError("body", "invalid JSON"))
		return
	}
	saved, err := h.service.Save(r.Context(), cs)
	if err != nil {
		h.logger.Warn("save settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="settings.yaml"`)
	if err := h.service.Export(r.Context(), w); err != nil {
		h.logger.Error("export settings", slog.Any("error", err))
	}
}
