package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/doublegate/WebScrape-TUI-sub001/internal/api/middleware"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/app/service"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/common"
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
)

type ArticleHandler struct {
	articleService *service.ArticleService
}

func NewArticleHandler(articleService *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{articleService: articleService}
}

func (h *ArticleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

// ListTags serves GET /tags; it lives here because tags only exist through
// articles.
func (h *ArticleHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())
	tags, err := h.articleService.ListTags(r.Context(), caller)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, tags)
}

// filterFromQuery maps listing query parameters onto a FilterBundle, the
// same shape the preset store persists.
func filterFromQuery(r *http.Request) (model.FilterBundle, error) {
	q := r.URL.Query()
	filter := model.FilterBundle{
		TitlePattern: q.Get("title"),
		URLPattern:   q.Get("url"),
		Sentiment:    q.Get("sentiment"),
		TagLogic:     q.Get("tag_logic"),
	}
	if tags := q.Get("tags"); tags != "" {
		filter.Tags = strings.Split(tags, ",")
	}
	if q.Get("regex") == "true" {
		filter.UseRegex = true
	}
	if raw := q.Get("date_from"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, common.Errorf("invalid date_from: %w", common.ErrValidation)
		}
		filter.DateFrom = &t
	}
	if raw := q.Get("date_to"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, common.Errorf("invalid date_to: %w", common.ErrValidation)
		}
		filter.DateTo = &t
	}
	return filter, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

func (h *ArticleHandler) list(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	filter, err := filterFromQuery(r)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	limit, offset := pageParams(r)

	page, err := h.articleService.List(r.Context(), caller, filter, limit, offset)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, page)
}

func (h *ArticleHandler) create(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	var req service.CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	article, err := h.articleService.Create(r.Context(), caller, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, article)
}

func (h *ArticleHandler) get(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	article, err := h.articleService.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, article)
}

func (h *ArticleHandler) update(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	var req service.UpdateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	article, err := h.articleService.Update(r.Context(), caller, chi.URLParam(r, "id"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, article)
}

func (h *ArticleHandler) delete(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.CallerFromContext(r.Context())

	if err := h.articleService.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
