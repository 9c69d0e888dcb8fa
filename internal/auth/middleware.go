package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/hometender/internal/apperror"
	"github.com/sakif/hometender/internal/session"
)

// contextKey is unexported so no other package can read or overwrite the
// values stored under it.
type contextKey string

const (
	memberIDKey  contextKey = "memberID"
	sessionIDKey contextKey = "sessionID"
)

// DefaultCookieName is the name of the session cookie.
const DefaultCookieName = "HOMETENDER_SESSION"

// errNoSession covers every way a request can arrive without a usable
// session: no cookie, a bad signature, an expired token, or a session the
// store no longer knows.
var errNoSession = errors.New("auth: no session")

// Sessions ties the signed cookie to the server-side session store.
type Sessions struct {
	tokens     *TokenService
	store      session.Store
	cookieName string
	secure     bool
	logger     *slog.Logger
}

// NewSessions creates a Sessions. secure sets the cookie's Secure flag and
// should be true whenever the server sits behind HTTPS.
func NewSessions(tokens *TokenService, store session.Store, cookieName string, secure bool, logger *slog.Logger) *Sessions {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Sessions{
		tokens:     tokens,
		store:      store,
		cookieName: cookieName,
		secure:     secure,
		logger:     logger,
	}
}

// Issue signs sessionID and sets it as the session cookie. The cookie has
// no Max-Age, so the browser drops it when it closes.
func (s *Sessions) Issue(w http.ResponseWriter, sessionID string) error {
	token, err := s.tokens.Generate(sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear tells the browser to delete the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// resolve reads the cookie, validates the token and looks the session up.
// It returns errNoSession for anything the client did wrong and the store's
// error for anything the server did wrong.
func (s *Sessions) resolve(r *http.Request) (int64, string, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return 0, "", errNoSession
	}

	sessionID, err := s.tokens.Validate(cookie.Value)
	if err != nil {
		return 0, "", errNoSession
	}

	memberID, err := s.store.MemberID(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return 0, "", errNoSession
		}
		return 0, "", err
	}
	return memberID, sessionID, nil
}

// Require rejects requests without a live session with 401 and otherwise
// stores the member and session ids in the request context.
func (s *Sessions) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		memberID, sessionID, err := s.resolve(r)
		if err != nil {
			if errors.Is(err, errNoSession) {
				writeEnvelope(w, http.StatusUnauthorized, apperror.ErrSessionRequired.Message)
				return
			}
			s.logger.Error("session lookup failed",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
			writeEnvelope(w, http.StatusInternalServerError, apperror.InternalMessage)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), memberID, sessionID)))
	})
}

// Optional adds the session to the context when there is one and lets the
// request through either way.
func (s *Sessions) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		memberID, sessionID, err := s.resolve(r)
		if err == nil {
			r = r.WithContext(WithSession(r.Context(), memberID, sessionID))
		} else if !errors.Is(err, errNoSession) {
			s.logger.Warn("session lookup failed, continuing anonymously",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
		}
		next.ServeHTTP(w, r)
	})
}

// WithSession returns a copy of ctx carrying the member and session ids.
func WithSession(ctx context.Context, memberID int64, sessionID string) context.Context {
	ctx = context.WithValue(ctx, memberIDKey, memberID)
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// MemberIDFromContext returns the id of the logged-in member, if any.
func MemberIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(memberIDKey).(int64)
	return id, ok && id != 0
}

// SessionIDFromContext returns the current session id, if any.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// writeEnvelope writes {"message": msg, "data": null}. The handler package
// has its own richer writer; this one exists so auth does not import it.
func writeEnvelope(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Message string `json:"message"`
		Data    any    `json:"data"`
	}{Message: msg})
}
