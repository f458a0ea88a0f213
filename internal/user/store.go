// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package user

import (
	"sync"
	"time"
)

// Store holds a single user and profile in memory.
type Store struct {
	mu      sync.RWMutex
	user    User
	profile Profile
}

// NewStore creates a store seeded with u and p.
func NewStore(u User, p Profile) *Store {
	return &Store{user: u.Clone(), profile: p.Clone()}
}

// Seed returns the record the API starts with.
func Seed(now time.Time) (User, Profile) {
	u := User{
		Name:   "zhangsan",
		Age:    18,
		DOB:    now.UTC(),
		Skills: []string{"java", "python"},
	}
	p := Profile{
		Name:        "Alice",
		Age:         30,
		DateOfBirth: now.UTC(),
		Skills:      []string{"Rust", "Python"},
		State:       OnLeaveUntil(now.UTC()),
		Data:        []byte{1, 2, 3, 4, 5},
		Sensitive:   "secret",
	}
	p.URL = mustParseURLs("https://example.com")
	return u, p
}

// User returns a copy of the current user.
func (s *Store) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// Apply applies up and returns the updated user.
func (s *Store) Apply(up Update) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = up.Apply(s.user)
	return s.user.Clone()
}

// Profile returns a copy of the current profile.
func (s *Store) Profile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}

// SetProfile replaces the profile.
func (s *Store) SetProfile(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p.Clone()
}
