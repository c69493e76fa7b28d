package webhooks_http

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"dropwatch/internal/app/registry"
	"dropwatch/internal/domain"
)

type WebhookHandler struct {
	service registry.RegistryService
	logger  *zap.Logger
}

func NewWebhookHandler(s registry.RegistryService, l *zap.Logger) *WebhookHandler {
	return &WebhookHandler{service: s, logger: l}
}

type WebhooksRequest struct {
	Webhooks []string `json:"webhooks"`
}

type WebhookResponse struct {
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
}

type RemoveResponse struct {
	Removed []string `json:"removed"`
}

// AddWebhooksHandler accepts either a JSON body {"webhooks": [...]} or a
// form field "webhooks" holding a JSON array.
func (h *WebhookHandler) AddWebhooksHandler(w http.ResponseWriter, r *http.Request) {
	urls, err := parseAddRequest(r)
	if err != nil {
		h.logger.Warn("Invalid request body for AddWebhooks", zap.Error(err))
		http.Error(w, "Request must contain 'webhooks' array in body.", http.StatusBadRequest)
		return
	}

	result, err := h.service.Add(r.Context(), urls)
	if err != nil {
		h.writeServiceError(w, "Unable to add webhooks", err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// RemoveWebhooksHandler reads a JSON array from the "webhooks" (or
// "webhooks[]") query parameter.
func (h *WebhookHandler) RemoveWebhooksHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("webhooks")
	if raw == "" {
		raw = r.URL.Query().Get("webhooks[]")
	}
	urls, err := decodeURLList(raw)
	if err != nil {
		h.logger.Warn("Invalid query for RemoveWebhooks", zap.Error(err))
		http.Error(w, "Request must contain 'webhooks' array in url.", http.StatusBadRequest)
		return
	}

	removed, err := h.service.Remove(r.Context(), urls)
	if err != nil {
		h.writeServiceError(w, "Unable to remove webhooks", err)
		return
	}
	h.writeJSON(w, http.StatusOK, RemoveResponse{Removed: removed})
}

func (h *WebhookHandler) ListWebhooksHandler(w http.ResponseWriter, r *http.Request) {
	hooks, err := h.service.List(r.Context())
	if err != nil {
		h.writeServiceError(w, "Unable to list webhooks", err)
		return
	}

	resp := make([]WebhookResponse, 0, len(hooks))
	for _, hook := range hooks {
		resp = append(resp, WebhookResponse{
			URL:       hook.URL,
			CreatedAt: hook.CreatedAt.Format(http.TimeFormat),
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *WebhookHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) HelpHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Health(r.Context()); err != nil {
		h.logger.Error("Registry store is unreachable", zap.Error(err))
		http.Error(w, "Unable to connect to database.", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, domain.ErrInvalidWebhook) {
		h.logger.Warn(msg, zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Error(msg, zap.Error(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (h *WebhookHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func parseAddRequest(r *http.Request) ([]string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req WebhooksRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		if req.Webhooks == nil {
			return nil, errors.New("missing webhooks attribute")
		}
		return req.Webhooks, nil
	}
	return decodeURLList(r.FormValue("webhooks"))
}

func decodeURLList(raw string) ([]string, error) {
	if raw == "" {
		return nil, errors.New("missing webhooks attribute")
	}
	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		return nil, err
	}
	return urls, nil
}
