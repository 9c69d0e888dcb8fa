// Package handler turns HTTP requests into service calls and service
// results into envelope responses. Handlers decode and validate the body,
// read the acting member from the request context, call one service method
// and write the result; they hold no business rules of their own.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/hometender/internal/apperror"
	"github.com/sakif/hometender/internal/auth"
	"github.com/sakif/hometender/internal/service"
	"github.com/sakif/hometender/internal/validation"
)

type joinRequest struct {
	LoginID  string `json:"loginId" validate:"notblank,loginid,max=50"`
	Password string `json:"password" validate:"notblank,min=5,max=19,bcryptlen"`
	Nickname string `json:"nickname" validate:"notblank,min=2,max=9"`
}

// Passwords are taken as sent; a leading or trailing space is part of one.
func (req *joinRequest) normalize() { trim(&req.LoginID, &req.Nickname) }

type joinResponse struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
}

type loginRequest struct {
	LoginID  string `json:"loginId" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

func (req *loginRequest) normalize() { trim(&req.LoginID) }

type loginResponse struct {
	Nickname string `json:"nickname"`
}

type logoutResponse struct {
	IsInvalidated bool `json:"isInvalidated"`
}

type meResponse struct {
	ID       int64  `json:"id"`
	LoginID  string `json:"loginId"`
	Nickname string `json:"nickname"`
}

type withdrawRequest struct {
	Password string `json:"password" validate:"notblank"`
}

type MemberHandler struct {
	members   *service.MemberService
	sessions  *auth.Sessions
	validator *validation.Validator
	logger    *slog.Logger
}

func NewMemberHandler(
	members *service.MemberService,
	sessions *auth.Sessions,
	validator *validation.Validator,
	logger *slog.Logger,
) *MemberHandler {
	return &MemberHandler{
		members:   members,
		sessions:  sessions,
		validator: validator,
		logger:    logger,
	}
}

// HandleJoin registers a member.
//
// HTTP: POST /api/members
func (h *MemberHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := bind(w, r, h.validator, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.members.Join(r.Context(), service.JoinInput{
		LoginID:  req.LoginID,
		Password: req.Password,
		Nickname: req.Nickname,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, joinResponse{ID: res.ID, Nickname: res.Nickname})
}

// HandleLogin checks credentials and sets the session cookie.
//
// HTTP: POST /api/members/login
func (h *MemberHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := bind(w, r, h.validator, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.members.Login(r.Context(), req.LoginID, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	// Logging in again replaces the previous session of this browser.
	if old, ok := auth.SessionIDFromContext(r.Context()); ok {
		h.members.Logout(r.Context(), old)
	}

	// The cookie must be set before the body is written.
	if err := h.sessions.Issue(w, res.SessionID); err != nil {
		h.members.Logout(r.Context(), res.SessionID)
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, loginResponse{Nickname: res.Nickname})
}

// HandleLogout ends the current session, if any. It always succeeds.
//
// HTTP: POST /api/members/logout
func (h *MemberHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := auth.SessionIDFromContext(r.Context())
	invalidated := h.members.Logout(r.Context(), sessionID)

	h.sessions.Clear(w)
	writeJSON(w, logoutResponse{IsInvalidated: invalidated})
}

// HandleMe returns the logged-in member.
//
// HTTP: GET /api/members/me
func (h *MemberHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	memberID, err := currentMember(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	m, err := h.members.Me(r.Context(), memberID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, meResponse{ID: m.ID, LoginID: m.LoginID, Nickname: m.Nickname})
}

// HandleWithdraw deletes the member named in the path once the password in
// the body matches. The password is the credential here; a session is not
// required, but if the caller's own session belongs to the withdrawn
// member its cookie is cleared too.
//
// HTTP: DELETE /api/members/{loginId}
func (h *MemberHandler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := bind(w, r, h.validator, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	deletedID, err := h.members.Withdraw(r.Context(), chi.URLParam(r, "loginId"), req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if memberID, ok := auth.MemberIDFromContext(r.Context()); ok && memberID == deletedID {
		h.sessions.Clear(w)
	}
	writeJSON(w, true)
}

// currentMember returns the member id the session middleware stored. On
// routes behind auth.Sessions.Require it is always present.
func currentMember(r *http.Request) (int64, error) {
	id, ok := auth.MemberIDFromContext(r.Context())
	if !ok {
		return 0, apperror.ErrSessionRequired
	}
	return id, nil
}
