package http

import (
	"Shortly-Backend/internal/auth"
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"Shortly-Backend/internal/service"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// LinksHandler обработчик для работы со ссылками
type LinksHandler struct {
	registry *service.LinkRegistry
	clicks   repository.ClickStore
	log      *zap.Logger
}

// NewLinksHandler создает новый обработчик ссылок
func NewLinksHandler(registry *service.LinkRegistry, clicks repository.ClickStore, log *zap.Logger) *LinksHandler {
	return &LinksHandler{
		registry: registry,
		clicks:   clicks,
		log:      log,
	}
}

// CreateLinkRequest тело запроса создания ссылки (JSON или форма)
type CreateLinkRequest struct {
	URL string `json:"url"`
}

// LinkStatsResponse ссылка вместе с числом записанных переходов
type LinkStatsResponse struct {
	domain.Link
	ShortURL string `json:"short_url,omitempty"`
	Clicks   int64  `json:"clicks"`
}

// ErrorResponse структура ошибки
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateLink создает короткую ссылку или возвращает существующую для того же URL
//
//	@Summary		Shorten a URL
//	@Description	Returns the existing link when the URL was already shortened. Invalid URLs and unreachable pages yield 404.
//	@Tags			Links
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			request	body		CreateLinkRequest	true	"URL to shorten"
//	@Success		200		{object}	domain.Link
//	@Failure		400		{object}	ErrorResponse	"Undecodable body"
//	@Failure		404		"Invalid URL or title fetch failed"
//	@Router			/links [post]
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.log.Debug("invalid create link request", zap.Error(err))
			h.writeError(w, "Invalid request format", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.writeError(w, "Invalid request format", http.StatusBadRequest)
			return
		}
		req.URL = r.PostForm.Get("url")
	}

	principal := auth.PrincipalFromContext(r.Context())
	link, err := h.registry.CreateOrGet(r.Context(), req.URL, r.Header.Get("Origin"), &principal)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			h.log.Debug("rejected url", zap.String("url", req.URL), zap.Error(err))
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, service.ErrTitleFetch):
			w.WriteHeader(http.StatusNotFound)
		default:
			h.log.Error("failed to create link", zap.String("url", req.URL), zap.Error(err))
			h.writeError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, link, http.StatusOK)
}

// ListLinks возвращает все ссылки в порядке создания
//
//	@Summary	List links
//	@Tags		Links
//	@Produce	json
//	@Success	200	{array}	domain.Link
//	@Success	302	"Redirect to /login when not signed in"
//	@Router		/links [get]
func (h *LinksHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.registry.ListAll(r.Context())
	if err != nil {
		h.log.Error("failed to list links", zap.Error(err))
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if links == nil {
		links = []domain.Link{}
	}
	h.writeJSON(w, links, http.StatusOK)
}

// GetStats возвращает ссылку и количество переходов по коду
//
//	@Summary	Link statistics
//	@Tags		Links
//	@Produce	json
//	@Param		code	path		string	true	"Short code"
//	@Success	200		{object}	LinkStatsResponse
//	@Failure	404		{object}	ErrorResponse	"Unknown code"
//	@Router		/links/{code} [get]
func (h *LinksHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	link, err := h.registry.FindByCode(r.Context(), code)
	if err != nil {
		h.log.Error("failed to get link", zap.String("code", code), zap.Error(err))
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if link == nil {
		h.writeError(w, "Link not found", http.StatusNotFound)
		return
	}

	clicks, err := h.clicks.CountClicks(r.Context(), link.ID)
	if err != nil {
		h.log.Error("failed to count clicks", zap.Int64("link_id", link.ID), zap.Error(err))
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, LinkStatsResponse{Link: *link, ShortURL: link.ShortURL(), Clicks: clicks}, http.StatusOK)
}

// Helper methods

func (h *LinksHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

func (h *LinksHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: message}, statusCode)
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
