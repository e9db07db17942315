package http

import (
	"Shortly-Backend/internal/auth"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Server HTTP сервер с обработчиками
type Server struct {
	authHandlers    *auth.AuthHandlers
	linksHandler    *LinksHandler
	redirectHandler *RedirectHandler
	healthHandler   *HealthHandler
	pagesHandler    *PagesHandler
	authMiddleware  *auth.Middleware
	requireAuth     bool
	log             *zap.Logger
}

// Handlers собранные обработчики, из которых строится Server
type Handlers struct {
	Auth       *auth.AuthHandlers
	Links      *LinksHandler
	Redirect   *RedirectHandler
	Health     *HealthHandler
	Pages      *PagesHandler
	Middleware *auth.Middleware
	// RequireAuthToShorten закрывает POST /links для анонимных пользователей
	RequireAuthToShorten bool
}

// NewServer создает новый HTTP сервер
func NewServer(h Handlers, log *zap.Logger) *Server {
	return &Server{
		authHandlers:    h.Auth,
		linksHandler:    h.Links,
		redirectHandler: h.Redirect,
		healthHandler:   h.Health,
		pagesHandler:    h.Pages,
		authMiddleware:  h.Middleware,
		requireAuth:     h.RequireAuthToShorten,
		log:             log,
	}
}

// SetupRoutes настраивает маршруты
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()
	protected := s.authMiddleware.RequireAuth

	// Health checks (без аутентификации)
	mux.HandleFunc("GET /health", s.healthHandler.Health)
	mux.HandleFunc("GET /ready", s.healthHandler.Ready)
	mux.HandleFunc("GET /metrics", s.healthHandler.Metrics)

	// Swagger документация
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Страницы
	mux.HandleFunc("GET /{$}", protected(s.pagesHandler.Index))
	mux.HandleFunc("GET /create", protected(s.pagesHandler.Index))
	mux.HandleFunc("GET /login", s.pagesHandler.Login)
	mux.HandleFunc("GET /signup", s.pagesHandler.Signup)

	// Аутентификация
	mux.HandleFunc("POST /login", s.authHandlers.Login)
	mux.HandleFunc("POST /signup", s.authHandlers.Signup)
	mux.HandleFunc("GET /logout", protected(s.authHandlers.Logout))
	mux.HandleFunc("GET /auth/github", s.authHandlers.GitHubLogin)
	mux.HandleFunc("GET /auth/github/callback", s.authHandlers.GitHubCallback)

	// Ссылки
	createLink := s.linksHandler.CreateLink
	if s.requireAuth {
		createLink = protected(createLink)
	}
	mux.HandleFunc("GET /links", s.withCORS(protected(s.linksHandler.ListLinks)))
	mux.HandleFunc("POST /links", s.withCORS(createLink))
	mux.HandleFunc("OPTIONS /links", s.withCORS(func(http.ResponseWriter, *http.Request) {}))
	mux.HandleFunc("GET /links/{code}", s.withCORS(protected(s.linksHandler.GetStats)))

	// Redirect endpoint (без аутентификации): самый общий шаблон, срабатывает последним
	mux.HandleFunc("GET /", s.redirectHandler.HandleRedirect)

	return s.authMiddleware.Identify(mux)
}

// withCORS добавляет CORS headers к обработчику
func (s *Server) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return s.authMiddleware.CORS(handler)
}
