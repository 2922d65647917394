package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/api/middleware"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/service"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
)

type PresetHandler struct {
	presetService *service.PresetService
}

func NewPresetHandler(presetService *service.PresetService) *PresetHandler {
	return &PresetHandler{presetService: presetService}
}

func (h *PresetHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{name}", h.load)
	r.Put("/{name}", h.save)
	r.Delete("/{name}", h.delete)
}

func (h *PresetHandler) list(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	names, err := h.presetService.List(r.Context(), caller)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	common.RespondWithJSON(w, http.StatusOK, names)
}

func (h *PresetHandler) load(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	preset, err := h.presetService.Load(r.Context(), caller, chi.URLParam(r, "name"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, preset)
}

func (h *PresetHandler) save(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	var bundle model.FilterBundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	preset, err := h.presetService.Save(r.Context(), caller, chi.URLParam(r, "name"), bundle)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, preset)
}

func (h *PresetHandler) delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	if err := h.presetService.Delete(r.Context(), caller, chi.URLParam(r, "name")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
