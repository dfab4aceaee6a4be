package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
)

// Permission values used across the API surface.
const (
	PermReadTerminology  = "read:terminology"
	PermWriteProblemList = "write:problem_list"
	PermAdminSystem      = "admin:system"
	PermSyncWHO          = "sync:who_api"
)

// User is one account in the credential store.
type User struct {
	Username     string   `json:"username"`
	FullName     string   `json:"full_name"`
	Email        string   `json:"email"`
	ABHANumber   string   `json:"abha_number"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
	Disabled     bool     `json:"disabled"`
	passwordHash [32]byte
}

// HasPermission reports whether the user carries the named permission.
func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// UserStore is an explicit in-memory credential store. It is populated once
// at construction and read-only afterwards, so no locking is needed.
type UserStore struct {
	users map[string]*User
}

// NewUserStore creates a store seeded with the given users.
func NewUserStore(users ...*User) *UserStore {
	s := &UserStore{users: make(map[string]*User, len(users))}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

// NewDemoUserStore seeds the development accounts.
func NewDemoUserStore() *UserStore {
	const demoPassword = "doctorpass"
	return NewUserStore(
		NewUser("doctor1", "Dr. Sharma", "dr.sharma@hospital.com", "1234-5678-9012",
			"user", demoPassword, PermReadTerminology, PermWriteProblemList),
		NewUser("doctor2", "Dr. Patel", "dr.patel@clinic.com", "9876-5432-1098",
			"user", demoPassword, PermReadTerminology, PermWriteProblemList),
		NewUser("admin", "System Administrator", "admin@hospital.com", "0000-0000-0000",
			"admin", demoPassword, PermReadTerminology, PermWriteProblemList, PermAdminSystem, PermSyncWHO),
	)
}

// NewUser builds a user with a hashed password.
func NewUser(username, fullName, email, abha, role, password string, permissions ...string) *User {
	return &User{
		Username:     username,
		FullName:     fullName,
		Email:        email,
		ABHANumber:   abha,
		Role:         role,
		Permissions:  permissions,
		passwordHash: sha256.Sum256([]byte(password)),
	}
}

// Get returns a user by username.
func (s *UserStore) Get(username string) (*User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("user %q not found", username)
	}
	return u, nil
}

// Authenticate verifies a username/password pair. The comparison is
// constant-time over the password hash.
func (s *UserStore) Authenticate(username, password string) (*User, error) {
	u, ok := s.users[username]
	if !ok || u.Disabled {
		return nil, fmt.Errorf("invalid credentials")
	}
	sum := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(sum[:], u.passwordHash[:]) != 1 {
		return nil, fmt.Errorf("invalid credentials")
	}
	return u, nil
}
