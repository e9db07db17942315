package auth

import (
	"Shortly-Backend/internal/domain"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const stateCookieName = "shortly_oauth_state"

// AuthHandlers обработчики входа, регистрации и OAuth-рукопожатия
type AuthHandlers struct {
	credentials *CredentialStore
	resolver    *IdentityResolver
	sessions    *SessionManager
	states      *StateService
	github      OAuthProvider // nil, если вход через GitHub не настроен
	secure      bool
	log         *zap.Logger
}

// NewAuthHandlers создает новые обработчики аутентификации
func NewAuthHandlers(
	credentials *CredentialStore,
	resolver *IdentityResolver,
	sessions *SessionManager,
	states *StateService,
	github OAuthProvider,
	secure bool,
	log *zap.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		credentials: credentials,
		resolver:    resolver,
		sessions:    sessions,
		states:      states,
		github:      github,
		secure:      secure,
		log:         log,
	}
}

// CredentialsRequest тело формы или JSON для входа и регистрации
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ErrorResponse структура ошибки
type ErrorResponse struct {
	Error string `json:"error"`
}

// Signup обработчик регистрации
//
//	@Summary		Sign up
//	@Description	Create a local account and start a session. Form posts are redirected to "/", JSON clients get 201.
//	@Tags			Authentication
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			request	body		CredentialsRequest	true	"Signup request"
//	@Success		201		{object}	domain.Principal	"User registered"
//	@Success		302		"Redirect to / on success, /login when the username is taken"
//	@Failure		400		{object}	ErrorResponse	"Undecodable body"
//	@Router			/signup [post]
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		h.log.Debug("invalid signup request", zap.Error(err))
		h.writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	user, err := h.credentials.Create(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) || errors.Is(err, ErrInvalidUsername) || errors.Is(err, ErrInvalidPassword) {
			h.log.Debug("signup rejected", zap.String("username", req.Username), zap.Error(err))
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		h.log.Error("failed to create user", zap.String("username", req.Username), zap.Error(err))
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	principal := domain.PrincipalFor(user, domain.AuthMethodPassword)
	if _, err := h.sessions.Start(r.Context(), w, r, principal); err != nil {
		h.log.Error("failed to start session", zap.Int64("user_id", user.ID), zap.Error(err))
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if isJSONRequest(r) {
		h.writeJSON(w, principal, http.StatusCreated)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Login обработчик входа
//
//	@Summary		Log in
//	@Description	Verify a username and password and start a session
//	@Tags			Authentication
//	@Accept			json,x-www-form-urlencoded
//	@Param			request	body	CredentialsRequest	true	"Login request"
//	@Success		302		"Redirect to / on success, /login on failure"
//	@Failure		400		{object}	ErrorResponse	"Undecodable body"
//	@Router			/login [post]
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		h.log.Debug("invalid login request", zap.Error(err))
		h.writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	principal, err := h.resolver.Authenticate(r.Context(), LocalPassword{Username: req.Username, Password: req.Password})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		h.log.Error("failed to authenticate user", zap.String("username", req.Username), zap.Error(err))
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if _, err := h.sessions.Start(r.Context(), w, r, principal); err != nil {
		h.log.Error("failed to start session", zap.Int64("user_id", principal.UserID), zap.Error(err))
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.log.Info("user logged in", zap.Int64("user_id", principal.UserID))
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout уничтожает сессию и возвращает на главную
//
//	@Summary	Log out
//	@Tags		Authentication
//	@Success	302	"Redirect to /"
//	@Router		/logout [get]
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), w, r); err != nil {
		h.log.Error("failed to end session", zap.Error(err))
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// GitHubLogin начинает OAuth-рукопожатие с GitHub
//
//	@Summary	Start GitHub login
//	@Tags		Authentication
//	@Success	302	"Redirect to GitHub, or /login when GitHub login is disabled"
//	@Router		/auth/github [get]
func (h *AuthHandlers) GitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		h.log.Warn("github login requested but not configured")
		http.Redirect(w, r, LoginPath, http.StatusFound)
		return
	}

	state, err := h.states.GenerateState(h.github.Name())
	if err != nil {
		h.log.Error("failed to generate oauth state", zap.Error(err))
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/github",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthCodeURL(state), http.StatusFound)
}

// GitHubCallback завершает OAuth-рукопожатие. Любая ошибка ведет на /login.
//
//	@Summary	GitHub OAuth callback
//	@Tags		Authentication
//	@Param		code	query	string	true	"Authorization code"
//	@Param		state	query	string	true	"State issued by /auth/github"
//	@Success	302		"Redirect to / on success, /login on failure"
//	@Router		/auth/github/callback [get]
func (h *AuthHandlers) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.Redirect(w, r, LoginPath, http.StatusFound)
		return
	}

	fail := func(msg string, err error) {
		h.log.Warn(msg, zap.Error(err))
		http.Redirect(w, r, LoginPath, http.StatusFound)
	}

	query := r.URL.Query()
	if e := query.Get("error"); e != "" {
		fail("github denied authorization", errors.New(e))
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	h.clearStateCookie(w)
	if err != nil || cookie.Value == "" || cookie.Value != query.Get("state") {
		fail("oauth state mismatch", ErrInvalidToken)
		return
	}
	if _, err := h.states.ValidateState(cookie.Value, h.github.Name()); err != nil {
		fail("invalid oauth state", err)
		return
	}

	code := query.Get("code")
	if code == "" {
		fail("missing oauth code", ErrInvalidToken)
		return
	}

	token, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		fail("failed to exchange oauth code", err)
		return
	}

	profile, err := h.github.FetchProfile(r.Context(), token)
	if err != nil {
		fail("failed to fetch github profile", err)
		return
	}

	principal, err := h.resolver.Authenticate(r.Context(), *profile)
	if err != nil {
		fail("failed to resolve oauth identity", err)
		return
	}

	if _, err := h.sessions.Start(r.Context(), w, r, principal); err != nil {
		h.log.Error("failed to start session", zap.Int64("user_id", principal.UserID), zap.Error(err))
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.log.Info("user logged in with github", zap.Int64("user_id", principal.UserID), zap.String("login", profile.Login))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandlers) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth/github",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Helper methods

func (h *AuthHandlers) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *AuthHandlers) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// decodeCredentials принимает JSON или обычную HTML-форму
func decodeCredentials(r *http.Request) (CredentialsRequest, error) {
	var req CredentialsRequest
	if isJSONRequest(r) {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Username = r.PostForm.Get("username")
	req.Password = r.PostForm.Get("password")
	return req, nil
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
