package http

import (
	"PIVOT-Backend/internal/domain"
	"PIVOT-Backend/internal/repository"
	"PIVOT-Backend/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LinksHandler serves the link creation and management API.
type LinksHandler struct {
	storage   repository.Storage
	shortener *service.ShortenerService
	log       *zap.Logger
	baseURL   string
}

func NewLinksHandler(storage repository.Storage, shortener *service.ShortenerService, log *zap.Logger, baseURL string) *LinksHandler {
	return &LinksHandler{
		storage:   storage,
		shortener: shortener,
		log:       log,
		baseURL:   baseURL,
	}
}

// CreateLinkRequest is the shorten-form payload.
type CreateLinkRequest struct {
	URL        string            `json:"url"`
	CustomCode string            `json:"custom_code,omitempty"`
	OSURLs     map[string]string `json:"os_urls,omitempty"`
	ExpiresAt  string            `json:"expires_at,omitempty"`
	ClickLimit *int64            `json:"click_limit,omitempty"`
}

// CreateLinkResponse carries the assigned code.
type CreateLinkResponse struct {
	Code     string `json:"code"`
	ShortURL string `json:"short_url,omitempty"`
}

// LinkInfo describes a link for the management API.
type LinkInfo struct {
	Code       string            `json:"code"`
	URL        string            `json:"url"`
	OSURLs     map[string]string `json:"os_urls,omitempty"`
	Clicks     int64             `json:"clicks"`
	ClickLimit *int64            `json:"click_limit,omitempty"`
	IsActive   bool              `json:"is_active"`
	ExpiresAt  string            `json:"expires_at,omitempty"`
	CreatedAt  string            `json:"created_at"`
}

// CreateLink allocates a short code for the submitted URL.
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid create link request", zap.Error(err))
		h.writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	input := service.CreateLinkInput{
		URL:        req.URL,
		CustomCode: req.CustomCode,
		ClickLimit: req.ClickLimit,
	}

	if len(req.OSURLs) > 0 {
		input.OSURLs = make(map[domain.OS]string, len(req.OSURLs))
		for os, url := range req.OSURLs {
			input.OSURLs[domain.OS(os)] = url
		}
	}

	if req.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			h.writeError(w, "Invalid expires_at format. Use RFC3339 format", http.StatusBadRequest)
			return
		}
		input.ExpiresAt = &expiresAt
	}

	link, err := h.shortener.Shorten(r.Context(), input)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			h.writeError(w, verr.Error(), http.StatusBadRequest)
		case errors.Is(err, service.ErrCodeTaken):
			h.writeError(w, "This code is already taken", http.StatusConflict)
		case errors.Is(err, service.ErrAllocationExhausted):
			h.writeError(w, "Failed to generate a unique code. Please try again", http.StatusServiceUnavailable)
		default:
			h.log.Error("failed to create link", zap.Error(err))
			h.writeError(w, "Failed to create link", http.StatusInternalServerError)
		}
		return
	}

	response := CreateLinkResponse{
		Code:     link.Code,
		ShortURL: h.baseURL + "/" + link.Code,
	}

	h.log.Info("created link", zap.String("code", link.Code))
	h.writeJSON(w, response, http.StatusCreated)
}

// HandleLink dispatches /api/links/{code} by method.
func (h *LinksHandler) HandleLink(w http.ResponseWriter, r *http.Request) {
	code, ok := h.codeFromPath(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getLink(w, r, code)
	case http.MethodDelete:
		h.deactivateLink(w, r, code)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *LinksHandler) getLink(w http.ResponseWriter, r *http.Request, code string) {
	link, err := h.storage.GetLink(r.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			h.writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to get link", zap.String("code", code), zap.Error(err))
		h.writeError(w, "Failed to retrieve link", http.StatusInternalServerError)
		return
	}

	info := LinkInfo{
		Code:       link.Code,
		URL:        link.URL,
		Clicks:     link.Clicks,
		ClickLimit: link.ClickLimit,
		IsActive:   link.IsActive,
		CreatedAt:  link.CreatedAt.Format(time.RFC3339),
	}
	if link.ExpiresAt != nil {
		info.ExpiresAt = link.ExpiresAt.Format(time.RFC3339)
	}
	if len(link.OSURLs) > 0 {
		info.OSURLs = make(map[string]string, len(link.OSURLs))
		for os, url := range link.OSURLs {
			info.OSURLs[string(os)] = url
		}
	}

	h.writeJSON(w, info, http.StatusOK)
}

func (h *LinksHandler) deactivateLink(w http.ResponseWriter, r *http.Request, code string) {
	if err := h.storage.DeactivateLink(r.Context(), code); err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			h.writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to deactivate link", zap.String("code", code), zap.Error(err))
		h.writeError(w, "Failed to deactivate link", http.StatusInternalServerError)
		return
	}

	h.log.Info("deactivated link", zap.String("code", code))
	w.WriteHeader(http.StatusNoContent)
}

func (h *LinksHandler) codeFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 3 || pathParts[2] == "" {
		h.writeError(w, "Code is required", http.StatusBadRequest)
		return "", false
	}
	return pathParts[2], true
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
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.log.Error("failed to encode error response", zap.Error(err))
	}
}
