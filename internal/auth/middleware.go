package auth

import (
	"Shortly-Backend/internal/domain"
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"go.uber.org/zap"
)

// ContextKey тип для ключей контекста
type ContextKey string

// PrincipalKey ключ для получения principal из контекста
const PrincipalKey ContextKey = "principal"

// LoginPath куда отправляются анонимные пользователи
const LoginPath = "/login"

// Middleware определяет личность по cookie сессии
type Middleware struct {
	resolver       *IdentityResolver
	sessions       *SessionManager
	allowedOrigins []string
	log            *zap.Logger
}

// NewMiddleware создает новый middleware
func NewMiddleware(resolver *IdentityResolver, sessions *SessionManager, allowedOrigins []string, log *zap.Logger) *Middleware {
	return &Middleware{
		resolver:       resolver,
		sessions:       sessions,
		allowedOrigins: allowedOrigins,
		log:            log,
	}
}

// Identify кладет principal (возможно анонимный) в контекст каждого запроса
func (m *Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.sessions.TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := m.resolver.CurrentPrincipal(r.Context(), token)
		if err != nil {
			// отсутствующая сессия уже стала анонимной; здесь только ошибки хранилища
			m.log.Error("failed to resolve session", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "Internal server error"})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// RequireAuth перенаправляет анонимных пользователей на страницу входа
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := PrincipalFromContext(r.Context())
		if principal.Anonymous() {
			m.log.Debug("anonymous request to protected route", zap.String("path", r.URL.Path))
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// WithPrincipal возвращает контекст с principal
func WithPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// PrincipalFromContext извлекает principal; без сессии возвращается анонимный
func PrincipalFromContext(ctx context.Context) domain.Principal {
	principal, _ := ctx.Value(PrincipalKey).(domain.Principal)
	return principal
}

// CORS middleware для JSON API ссылок
func (m *Middleware) CORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && slices.Contains(m.allowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")

		// Обработка preflight OPTIONS запросов
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	}
}
