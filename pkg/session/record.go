package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrPersistenceRead marks a session record that could not be read or
// parsed. It is always recovered by treating the operator as logged out.
var ErrPersistenceRead = errors.New("session: unreadable session record")

// Role is the principal's role in the console.
type Role string

const (
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleOperator
}

// Principal is the authenticated operator.
type Principal struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Record is the persisted session: the principal and the last activity
// instant in epoch milliseconds.
type Record struct {
	User         Principal `json:"user"`
	LastActivity int64     `json:"lastActivity"`
}

// NewRecord builds a record for p active at t.
func NewRecord(p Principal, t time.Time) Record {
	return Record{User: p, LastActivity: t.UnixMilli()}
}

// At returns the last activity as a time.
func (r Record) At() time.Time {
	return time.UnixMilli(r.LastActivity)
}

// Encode renders the stored JSON form.
func (r Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRecord parses and validates a stored record. Any failure wraps
// ErrPersistenceRead.
func DecodeRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrPersistenceRead, err)
	}
	if strings.TrimSpace(r.User.Name) == "" {
		return Record{}, fmt.Errorf("%w: missing user name", ErrPersistenceRead)
	}
	if !r.User.Role.Valid() {
		return Record{}, fmt.Errorf("%w: unknown role %q", ErrPersistenceRead, r.User.Role)
	}
	if r.LastActivity <= 0 {
		return Record{}, fmt.Errorf("%w: missing lastActivity", ErrPersistenceRead)
	}
	return r, nil
}
