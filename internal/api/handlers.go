package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"prodcat/catalogworker/internal/catalog"
	"prodcat/catalogworker/internal/spider"
	"prodcat/catalogworker/logger"
	apperrors "prodcat/catalogworker/pkg/errors"
	"prodcat/catalogworker/services/dispatch"
)

// JobDispatcher enqueues spider runs
type JobDispatcher interface {
	Dispatch(ctx context.Context, spiderType spider.SpiderType, ov spider.Overrides) (dispatch.Job, spider.Definition, error)
}

// Handlers serves the catalog API
type Handlers struct {
	store      catalog.Store
	dispatcher JobDispatcher
	log        *logger.Logger
}

// NewHandlers creates the API handlers
func NewHandlers(store catalog.Store, dispatcher JobDispatcher) *Handlers {
	return &Handlers{
		store:      store,
		dispatcher: dispatcher,
		log:        logger.ForAPI(),
	}
}

type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type runSpiderRequest struct {
	SpiderType string `json:"spider_type"`
	StartURL   string `json:"start_url,omitempty"`
}

type runSpiderData struct {
	SpiderType string `json:"spider_type"`
	SpiderName string `json:"spider_name"`
	Status     string `json:"status"`
	JobID      string `json:"job_id"`
}

type listMeta struct {
	Total       int `json:"total"`
	Count       int `json:"count"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

type listData struct {
	Products []catalog.Product `json:"products"`
	Meta     listMeta          `json:"meta"`
}

// RunSpider enqueues a spider run. Unknown spider types are a client error,
// not a queue entry.
func (h *Handlers) RunSpider(w http.ResponseWriter, r *http.Request) {
	var req runSpiderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SpiderType == "" {
		respondError(w, http.StatusBadRequest, "spider_type is required")
		return
	}

	var ov spider.Overrides
	if req.StartURL != "" {
		ov.StartURLs = []string{req.StartURL}
	}

	job, def, err := h.dispatcher.Dispatch(r.Context(), spider.SpiderType(req.SpiderType), ov)
	if err != nil {
		if apperrors.IsConfiguration(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("spider_type", req.SpiderType).Msg("Dispatch failed")
		respondError(w, http.StatusInternalServerError, "failed to enqueue spider job")
		return
	}

	respondJSON(w, http.StatusAccepted, apiResponse{
		Success: true,
		Message: "Spider job queued",
		Data: runSpiderData{
			SpiderType: string(def.Type),
			SpiderName: def.DisplayName,
			Status:     "queued",
			JobID:      job.ID,
		},
	})
}

// ListProducts returns a filtered, sorted, paginated slice of the catalog
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r)

	result, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Product listing failed")
		respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	products := result.Products
	if products == nil {
		products = []catalog.Product{}
	}

	respondJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "Products retrieved",
		Data: listData{
			Products: products,
			Meta: listMeta{
				Total:       result.Total,
				Count:       len(products),
				PerPage:     result.PerPage,
				CurrentPage: result.Page,
				TotalPages:  result.TotalPages,
			},
		},
	})
}

// parseListFilter reads listing query parameters. Unparseable values fall
// back to defaults instead of failing the request.
func parseListFilter(r *http.Request) catalog.ListFilter {
	q := r.URL.Query()

	filter := catalog.ListFilter{
		Search:  q.Get("search"),
		SortBy:  q.Get("sort_by"),
		SortDir: q.Get("sort_dir"),
	}

	if v, err := strconv.ParseFloat(q.Get("min_price"), 64); err == nil {
		filter.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(q.Get("max_price"), 64); err == nil {
		filter.MaxPrice = &v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil {
		filter.PerPage = v
	}

	return filter
}

func respondJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, apiResponse{Success: false, Message: message})
}
