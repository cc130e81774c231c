// Package auth checks operator credentials against a bcrypt user directory.
package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tableflip.dev/desk/pkg/session"
)

// ErrAuthFailure is returned for an unknown user or a wrong password.
var ErrAuthFailure = errors.New("auth: invalid username or password")

// User is one directory entry.
type User struct {
	Username     string       `mapstructure:"username" json:"username"`
	Name         string       `mapstructure:"name" json:"name"`
	Role         session.Role `mapstructure:"role" json:"role"`
	PasswordHash string       `mapstructure:"password_hash" json:"password_hash"`
}

// Principal returns the session identity of u.
func (u User) Principal() session.Principal {
	return session.Principal{Name: u.Name, Role: u.Role}
}

// Directory holds the known operators keyed by username.
type Directory struct {
	users map[string]User
}

// NewDirectory validates users and indexes them. Usernames are matched
// case-insensitively.
func NewDirectory(users ...User) (*Directory, error) {
	d := &Directory{users: make(map[string]User, len(users))}
	for _, u := range users {
		key := normalize(u.Username)
		if key == "" {
			return nil, errors.New("auth: username required")
		}
		if !u.Role.Valid() {
			return nil, fmt.Errorf("auth: user %q has unknown role %q", u.Username, u.Role)
		}
		if u.PasswordHash == "" {
			return nil, fmt.Errorf("auth: user %q has no password hash", u.Username)
		}
		if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
			return nil, fmt.Errorf("auth: user %q: %w", u.Username, err)
		}
		if _, dup := d.users[key]; dup {
			return nil, fmt.Errorf("auth: duplicate user %q", u.Username)
		}
		if strings.TrimSpace(u.Name) == "" {
			u.Name = u.Username
		}
		d.users[key] = u
	}
	return d, nil
}

// Demo returns the two demonstration accounts: admin/admin as a manager and
// iva/iva as an operator.
func Demo() *Directory {
	d, err := NewDirectory(
		mustUser("admin", "Администратор", session.RoleManager, "admin"),
		mustUser("iva", "Иванов И.И.", session.RoleOperator, "iva"),
	)
	if err != nil {
		panic(err)
	}
	return d
}

func mustUser(username, name string, role session.Role, password string) User {
	hash, err := HashPassword(password, bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return User{Username: username, Name: name, Role: role, PasswordHash: hash}
}

// HashPassword returns a bcrypt hash of password. A cost below
// bcrypt.MinCost uses bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(b), nil
}

// Login checks the credentials and returns the principal.
func (d *Directory) Login(username, password string) (session.Principal, error) {
	u, ok := d.users[normalize(username)]
	if !ok {
		return session.Principal{}, ErrAuthFailure
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return session.Principal{}, ErrAuthFailure
	}
	return u.Principal(), nil
}

// Usernames lists the directory, sorted.
func (d *Directory) Usernames() []string {
	out := make([]string, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u.Username)
	}
	sort.Strings(out)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
