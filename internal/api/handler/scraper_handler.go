package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/api/middleware"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/service"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
)

type ScraperHandler struct {
	scraperService *service.ScraperService
}

func NewScraperHandler(scraperService *service.ScraperService) *ScraperHandler {
	return &ScraperHandler{scraperService: scraperService}
}

func (h *ScraperHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/share", h.share)
}

func (h *ScraperHandler) list(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	mine := r.URL.Query().Get("mine") == "true"
	limit, offset := pageParams(r)

	page, err := h.scraperService.List(r.Context(), caller, mine, limit, offset)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, page)
}

func (h *ScraperHandler) create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	var req service.CreateScraperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	profile, err := h.scraperService.Create(r.Context(), caller, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, profile)
}

func (h *ScraperHandler) get(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	profile, err := h.scraperService.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *ScraperHandler) update(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	var req service.UpdateScraperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := h.scraperService.Update(r.Context(), caller, chi.URLParam(r, "id"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	// A fork produced a new resource rather than mutating the target.
	status := http.StatusOK
	if result.Forked {
		status = http.StatusCreated
	}
	common.RespondWithJSON(w, status, result.Profile)
}

func (h *ScraperHandler) delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	if err := h.scraperService.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ScraperHandler) share(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	var req struct {
		Shared bool `json:"shared"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	profile, err := h.scraperService.SetShared(r.Context(), caller, chi.URLParam(r, "id"), req.Shared)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}
