// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → decodes requests, writes responses
//	Service (business layer) → enforces rules, checks ownership, runs transactions
//	Repository (data layer)  → reads/writes the database
//
// Services take plain values (ids, input structs) and return models or
// apperror values. They never see an *http.Request and never pick a status
// code, so every rule here is testable with ordinary function calls and an
// in-memory fake store (see fakes_test.go).
//
// TRANSACTIONS:
// Every operation that writes runs inside exactly one
// repository.Transactor.WithinTx call. Read-only operations use the outer
// store directly.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/hometender/internal/apperror"
	"github.com/sakif/hometender/internal/auth"
	"github.com/sakif/hometender/internal/model"
	"github.com/sakif/hometender/internal/repository"
	"github.com/sakif/hometender/internal/session"
)

// MemberService handles join, login, logout, withdraw and profile lookup.
type MemberService struct {
	store     repository.Transactor
	sessions  session.Store
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewMemberService(
	store repository.Transactor,
	sessions session.Store,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *MemberService {
	return &MemberService{
		store:     store,
		sessions:  sessions,
		passwords: passwords,
		logger:    logger,
	}
}

// JoinInput is a join request that already passed request validation.
type JoinInput struct {
	LoginID  string
	Password string
	Nickname string
}

type JoinResult struct {
	ID       int64
	Nickname string
}

// Join registers a new member. A login id that is already taken returns
// apperror.ErrDuplicateMember, whether the pre-check or the UNIQUE
// constraint catches it.
func (s *MemberService) Join(ctx context.Context, in JoinInput) (*JoinResult, error) {
	member := &model.Member{
		LoginID:  strings.TrimSpace(in.LoginID),
		Nickname: strings.TrimSpace(in.Nickname),
	}

	// Hash before opening the transaction; bcrypt is slow and needs no
	// database access.
	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", "비밀번호는 72바이트 이하여야 합니다.")
		}
		return nil, fmt.Errorf("joining member: %w", err)
	}
	member.PasswordHash = hash

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		_, err := tx.Members().GetByLoginID(ctx, member.LoginID)
		switch {
		case err == nil:
			return apperror.ErrDuplicateMember
		case !errors.Is(err, apperror.ErrNotFound):
			return err
		}

		if err := tx.Members().Create(ctx, member); err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				return apperror.ErrDuplicateMember
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrDuplicateMember) {
			return nil, err
		}
		s.logger.Error("failed to join member",
			slog.String("loginId", member.LoginID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("joining member: %w", err)
	}

	s.logger.Info("member joined",
		slog.Int64("memberId", member.ID),
		slog.String("loginId", member.LoginID),
	)
	return &JoinResult{ID: member.ID, Nickname: member.Nickname}, nil
}

type LoginResult struct {
	MemberID  int64
	Nickname  string
	SessionID string
}

// Login checks the credentials and starts a session.
//
// An unknown login id and a wrong password both return
// apperror.ErrLoginFailed, and both cost one bcrypt comparison, so neither
// the message nor the response time reveals which ids exist.
func (s *MemberService) Login(ctx context.Context, loginID, password string) (*LoginResult, error) {
	member, err := s.authenticate(ctx, strings.TrimSpace(loginID), password)
	if err != nil {
		if errors.Is(err, errBadCredentials) {
			return nil, apperror.ErrLoginFailed
		}
		return nil, fmt.Errorf("logging in: %w", err)
	}

	sessionID, err := s.sessions.Create(ctx, member.ID)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	s.logger.Info("member logged in", slog.Int64("memberId", member.ID))
	return &LoginResult{MemberID: member.ID, Nickname: member.Nickname, SessionID: sessionID}, nil
}

// Logout ends the session and reports whether one was active. It never
// fails: a store error is logged and reported as "no session".
func (s *MemberService) Logout(ctx context.Context, sessionID string) bool {
	if sessionID == "" {
		return false
	}

	existed, err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		s.logger.Error("failed to end session", slog.String("error", err.Error()))
		return false
	}
	return existed
}

// Withdraw deletes the member identified by loginID once password matches.
// ON DELETE CASCADE removes the member's ingredients, recipes and recipe
// lines; every session of the member is ended afterwards. Returns the id
// of the deleted member.
func (s *MemberService) Withdraw(ctx context.Context, loginID, password string) (int64, error) {
	member, err := s.authenticate(ctx, strings.TrimSpace(loginID), password)
	if err != nil {
		if errors.Is(err, errBadCredentials) {
			return 0, apperror.ErrWithdrawFailed
		}
		return 0, fmt.Errorf("withdrawing member: %w", err)
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Members().Delete(ctx, member.ID)
	})
	if err != nil {
		// Lost a race with a concurrent withdraw of the same member.
		if errors.Is(err, apperror.ErrNotFound) {
			return 0, apperror.ErrWithdrawFailed
		}
		return 0, fmt.Errorf("withdrawing member %d: %w", member.ID, err)
	}

	if err := s.sessions.DeleteByMember(ctx, member.ID); err != nil {
		// The member row is gone, so a surviving session resolves to a
		// member that no longer exists; log and carry on.
		s.logger.Error("failed to end sessions of withdrawn member",
			slog.Int64("memberId", member.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("member withdrew",
		slog.Int64("memberId", member.ID),
		slog.String("loginId", member.LoginID),
	)
	return member.ID, nil
}

// Me returns the member behind a session.
func (s *MemberService) Me(ctx context.Context, memberID int64) (*model.Member, error) {
	member, err := s.store.Members().GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ErrMemberNotFound
		}
		return nil, fmt.Errorf("getting member %d: %w", memberID, err)
	}
	return member, nil
}

// errBadCredentials is internal to this file; callers map it to the
// operation's own failure (login vs withdraw).
var errBadCredentials = errors.New("bad credentials")

func (s *MemberService) authenticate(ctx context.Context, loginID, password string) (*model.Member, error) {
	member, err := s.store.Members().GetByLoginID(ctx, loginID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			_ = s.passwords.VerifyDummy(password)
			return nil, errBadCredentials
		}
		return nil, err
	}

	if err := s.passwords.Verify(member.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash is unusable",
				slog.Int64("memberId", member.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, errBadCredentials
	}
	return member, nil
}
