package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/luvima/image-editor/internal/logging"
	"github.com/luvima/image-editor/internal/models"
	"github.com/luvima/image-editor/internal/store"
	"github.com/luvima/image-editor/internal/web"
)

const (
	msgUsernameTaken  = "Username already exists!"
	msgInvalidLogin   = "Invalid username or password"
	msgAccountCreated = "Account created successfully!"
	msgLoggedOut      = "Logged out successfully"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, hashedPw string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Notifier is told about new registrations. Implementations must not block
// the request and must not report delivery failures back.
type Notifier interface {
	Registered(username, email string)
}

// Renderer renders HTML pages.
type Renderer interface {
	Render(w http.ResponseWriter, status int, page string, data any)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users    UserStore
	sessions *SessionManager
	notifier Notifier
	pages    Renderer
	logger   logging.Logger
	hashCost int
}

func NewHandler(users UserStore, sessions *SessionManager, notifier Notifier, pages Renderer, logger logging.Logger) *Handler {
	return &Handler{
		users:    users,
		sessions: sessions,
		notifier: notifier,
		pages:    pages,
		logger:   logger.With("component", "auth"),
		hashCost: bcrypt.DefaultCost,
	}
}

type loginPage struct {
	Message string
}

// SignupPage renders the registration form.
func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, http.StatusOK, web.PageRegister, nil)
}

// Register creates a new user from the posted form.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := models.RegisterForm{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
		Email:    r.PostForm.Get("email"),
	}
	if form.Username == "" || form.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	_, err := h.users.GetUserByUsername(ctx, form.Username)
	switch {
	case err == nil:
		http.Error(w, msgUsernameTaken, http.StatusConflict)
		return
	case !errors.Is(err, store.ErrNotFound):
		h.logger.Error(ctx, "lookup user", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(form.Password), h.hashCost)
	if err != nil {
		h.logger.Error(ctx, "hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if _, err := h.users.CreateUser(ctx, form.Username, string(hashed)); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			http.Error(w, msgUsernameTaken, http.StatusConflict)
			return
		}
		h.logger.Error(ctx, "create user", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.logger.Info(ctx, "user registered", "username", form.Username)

	if form.Email != "" {
		h.notifier.Registered(form.Username, form.Email)
	}

	http.Redirect(w, r, "/login?"+url.Values{"message": {msgAccountCreated}}.Encode(), http.StatusFound)
}

// LoginPage renders the login form with an optional message from the query.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, http.StatusOK, web.PageLogin, loginPage{Message: r.URL.Query().Get("message")})
}

// Login verifies credentials and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := models.LoginForm{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}

	ctx := r.Context()
	user, err := h.users.GetUserByUsername(ctx, form.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error(ctx, "lookup user", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)) != nil {
		h.pages.Render(w, http.StatusUnauthorized, web.PageLogin, loginPage{Message: msgInvalidLogin})
		return
	}

	token, err := h.sessions.Issue(user.Username)
	if err != nil {
		h.logger.Error(ctx, "issue session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessions.TTL() / time.Second),
	})
	http.Redirect(w, r, "/main", http.StatusFound)
}

// Logout revokes the current session, if any, and always clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.sessions.Revoke(r.Context(), cookie.Value); err != nil {
			h.logger.Warn(r.Context(), "revoke session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/login?"+url.Values{"message": {msgLoggedOut}}.Encode(), http.StatusFound)
}
