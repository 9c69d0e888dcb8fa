// Package session keeps server-side login sessions: a random session id
// mapped to a member id, expiring after a period of inactivity.
//
// Two stores implement the same interface. MemoryStore is the default and
// suits a single process; RedisStore lets several processes share sessions
// and survives restarts.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/xid"
)

// ErrNotFound is returned by MemberID for an unknown or expired session.
var ErrNotFound = errors.New("session: not found")

// DefaultTTL matches the usual servlet container default of 30 minutes.
const DefaultTTL = 30 * time.Minute

// Store maps session ids to member ids.
//
// Expiry is sliding: a successful MemberID lookup pushes the expiry back
// by the store's TTL.
type Store interface {
	// Create starts a session for memberID and returns its id.
	Create(ctx context.Context, memberID int64) (string, error)
	// MemberID resolves a session id, or returns ErrNotFound.
	MemberID(ctx context.Context, id string) (int64, error)
	// Delete ends one session and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteByMember ends every session of memberID.
	DeleteByMember(ctx context.Context, memberID int64) error
	Close() error
}

// newID returns a fresh session id. xid ids are unique but predictable, so
// the id is never handed to clients unsigned (see auth.Sessions).
func newID() string {
	return xid.New().String()
}
