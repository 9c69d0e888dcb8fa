package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/hometender/internal/apperror"
	"github.com/sakif/hometender/internal/model"
	"github.com/sakif/hometender/internal/repository"
)

var _ repository.MemberRepository = (*MemberRepo)(nil)

// MemberRepo stores members in the members table.
type MemberRepo struct {
	q sqlx.ExtContext
}

const memberColumns = `id, login_id, password_hash, nickname, created_at, updated_at`

// Create inserts member and fills in its ID and timestamps.
// A taken login id returns an ErrConflict error.
func (r *MemberRepo) Create(ctx context.Context, member *model.Member) error {
	now := time.Now().UTC()

	res, err := r.q.ExecContext(ctx,
		`INSERT INTO members (login_id, password_hash, nickname, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		member.LoginID, member.PasswordHash, member.Nickname, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("member", member.LoginID)
		}
		return fmt.Errorf("sqlite: inserting member %q: %w", member.LoginID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading member id: %w", err)
	}

	member.ID = id
	member.CreatedAt = now
	member.UpdatedAt = now
	return nil
}

func (r *MemberRepo) GetByID(ctx context.Context, id int64) (*model.Member, error) {
	var m model.Member
	err := sqlx.GetContext(ctx, r.q, &m,
		`SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("member", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting member %d: %w", id, err)
	}
	return &m, nil
}

func (r *MemberRepo) GetByLoginID(ctx context.Context, loginID string) (*model.Member, error) {
	var m model.Member
	err := sqlx.GetContext(ctx, r.q, &m,
		`SELECT `+memberColumns+` FROM members WHERE login_id = ?`, loginID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("member", loginID)
		}
		return nil, fmt.Errorf("sqlite: getting member %q: %w", loginID, err)
	}
	return &m, nil
}

// Delete removes the member. ON DELETE CASCADE removes the member's
// ingredients, recipes and recipe lines in the same statement.
func (r *MemberRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting member %d: %w", id, err)
	}
	return requireAffected(res, "member", id)
}

// requireAffected turns "0 rows affected" into a NotFound error. The Exec
// itself succeeds when the WHERE clause matches nothing, so the row count
// is the only signal that the id did not exist.
func requireAffected(res sql.Result, resource string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, strconv.FormatInt(id, 10))
	}
	return nil
}
