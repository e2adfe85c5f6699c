package session

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"github.com/chatflow-oss/chatflow/internal/domain"
	"github.com/chatflow-oss/chatflow/internal/logger"
	"github.com/chatflow-oss/chatflow/internal/service"
)

const sessionName = "chatflow-session"

// mockPassword is the demo credential; there is no real credential store and
// authentication correctness is out of scope.
const mockPassword = "admin123"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// Manager binds the user directory to cookie sessions: it answers "who is
// the current user" for the HTTP surface.
type Manager struct {
	store *sessions.CookieStore
	users *service.UserService
	log   zerolog.Logger
}

func NewManager(signingKey string, users *service.UserService) *Manager {
	return &Manager{
		store: sessions.NewCookieStore([]byte(signingKey)),
		users: users,
		log:   logger.Module("session"),
	}
}

// Login authenticates against the mock credential rule (any known email with
// the demo password) and binds the user to the session cookie.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, email, password string) (*domain.User, error) {
	user, err := m.users.GetByEmail(r.Context(), email)
	if err != nil {
		return nil, err
	}
	if user == nil || password != mockPassword {
		return nil, ErrInvalidCredentials
	}

	sess, _ := m.store.Get(r, sessionName)
	sess.Values["user_id"] = user.ID
	if err := sess.Save(r, w); err != nil {
		return nil, err
	}

	if err := m.users.SetPresence(r.Context(), user.ID, domain.StatusOnline); err != nil {
		m.log.Warn().Str("user_id", user.ID).Err(err).Msg("presence update on login failed")
	}
	user.Status = domain.StatusOnline

	return user, nil
}

// Logout drops the session and marks the user offline.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, sessionName)

	if id, ok := sess.Values["user_id"].(string); ok && id != "" {
		if err := m.users.SetPresence(r.Context(), id, domain.StatusOffline); err != nil {
			m.log.Warn().Str("user_id", id).Err(err).Msg("presence update on logout failed")
		}
	}

	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// CurrentUser resolves the session cookie to a user.
func (m *Manager) CurrentUser(r *http.Request) (*domain.User, error) {
	sess, err := m.store.Get(r, sessionName)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	id, ok := sess.Values["user_id"].(string)
	if !ok || id == "" {
		return nil, ErrNotAuthenticated
	}

	user, err := m.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return user, nil
}
