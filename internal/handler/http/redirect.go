package http

import (
	"Shortly-Backend/internal/auth"
	"Shortly-Backend/internal/service"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// RedirectHandler обработчик редиректов по короткому коду
type RedirectHandler struct {
	redirector *service.Redirector
	proxies    auth.TrustedProxies
	log        *zap.Logger
}

// NewRedirectHandler создает новый обработчик редиректов
func NewRedirectHandler(redirector *service.Redirector, proxies auth.TrustedProxies, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		redirector: redirector,
		proxies:    proxies,
		log:        log,
	}
}

// HandleRedirect отправляет посетителя по адресу ссылки; неизвестный код ведет на главную
//
//	@Summary	Follow a short link
//	@Tags		Redirect
//	@Param		code	path	string	true	"Short code"
//	@Success	302		"Redirect to the link URL, or / for unknown codes"
//	@Failure	500		"Storage error"
//	@Router		/{code} [get]
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := strings.Trim(r.URL.Path, "/")

	var (
		res service.Resolution
		err error
	)
	if r.Method == http.MethodHead {
		// HEAD не считается переходом
		res, err = h.redirector.Peek(r.Context(), code)
	} else {
		res, err = h.redirector.Resolve(r.Context(), code, service.ClickMeta{
			IPAddress: h.proxies.ClientIP(r),
			UserAgent: r.UserAgent(),
			Referer:   r.Referer(),
		})
	}
	if err != nil {
		h.log.Error("failed to process redirect", zap.String("code", code), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if !res.Found {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	h.log.Debug("redirect",
		zap.String("code", code),
		zap.String("url", res.URL),
		zap.String("ip", h.proxies.ClientIP(r)))
	http.Redirect(w, r, res.URL, http.StatusFound)
}
