package http

import (
	"Shortly-Backend/internal/auth"
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/service"
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData данные, доступные всем страницам
type PageData struct {
	Principal     domain.Principal
	GitHubEnabled bool
	Links         []domain.Link
}

// PagesHandler отдает HTML-страницы
type PagesHandler struct {
	pages         map[string]*template.Template
	registry      *service.LinkRegistry
	gitHubEnabled bool
	log           *zap.Logger
}

// NewPagesHandler разбирает встроенные шаблоны
func NewPagesHandler(registry *service.LinkRegistry, gitHubEnabled bool, log *zap.Logger) (*PagesHandler, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"index", "login", "signup"} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &PagesHandler{
		pages:         pages,
		registry:      registry,
		gitHubEnabled: gitHubEnabled,
		log:           log,
	}, nil
}

// Index главная страница со списком ссылок
func (h *PagesHandler) Index(w http.ResponseWriter, r *http.Request) {
	links, err := h.registry.ListAll(r.Context())
	if err != nil {
		h.log.Error("failed to list links", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "index", links)
}

// Login страница входа
func (h *PagesHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login", nil)
}

// Signup страница регистрации
func (h *PagesHandler) Signup(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "signup", nil)
}

func (h *PagesHandler) render(w http.ResponseWriter, r *http.Request, name string, links []domain.Link) {
	data := PageData{
		Principal:     auth.PrincipalFromContext(r.Context()),
		GitHubEnabled: h.gitHubEnabled,
		Links:         links,
	}

	// рендерим в буфер, чтобы ошибка шаблона не оставила половину страницы
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.log.Error("failed to render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
