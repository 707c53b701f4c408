package http

import (
	"PIVOT-Backend/internal/service"
	"PIVOT-Backend/pkg/useragent"
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// RedirectHandler serves the public short-code paths.
type RedirectHandler struct {
	shortener *service.ShortenerService
	log       *zap.Logger
}

func NewRedirectHandler(shortener *service.ShortenerService, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		shortener: shortener,
		log:       log,
	}
}

// HandleRedirect resolves the code from the request path and answers with
// a redirect, or 404 when the code is unknown, inactive, expired or
// exhausted — the outcomes are indistinguishable to the visitor.
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/")

	if code == "" || isSystemPath(code) {
		http.NotFound(w, r)
		return
	}

	userAgent := r.UserAgent()

	target, err := h.shortener.Resolve(r.Context(), code, userAgent)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			h.log.Debug("code not found", zap.String("code", code))
			http.NotFound(w, r)
			return
		}
		if errors.Is(err, service.ErrLinkGone) {
			h.log.Debug("link inactive, expired or exhausted", zap.String("code", code))
			http.NotFound(w, r)
			return
		}
		h.log.Error("failed to process redirect", zap.String("code", code), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	fields := []zap.Field{
		zap.String("code", code),
		zap.String("target", target),
		zap.String("ip", extractIPAddress(r)),
	}
	if parser := useragent.GetGlobalParser(); parser != nil {
		device := parser.ParseUserAgent(userAgent)
		fields = append(fields,
			zap.String("device_type", device.DeviceType),
			zap.String("browser", device.Browser),
			zap.String("os", device.OS))
	}
	h.log.Info("successful redirect", fields...)

	http.Redirect(w, r, target, http.StatusFound)
}

// isSystemPath guards the catch-all route against API and probe paths.
func isSystemPath(path string) bool {
	return strings.HasPrefix(path, "api/") ||
		strings.HasPrefix(path, "health") ||
		strings.HasPrefix(path, "ready") ||
		strings.HasPrefix(path, "metrics")
}

// extractIPAddress returns the client IP, honoring proxy headers.
func extractIPAddress(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// X-Forwarded-For may hold a comma-separated chain.
		ips := strings.Split(ip, ",")
		return strings.TrimSpace(ips[0])
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
