// Package identity defines the user-profile lookup seam used during pairing.
//
// The match registry never owns user data beyond the opaque id; profiles are
// resolved through a Resolver provided by the hosting layer. Two
// implementations ship with the server: StaticResolver, a map-backed store
// for tests and fixed rosters, and Passthrough, which accepts any non-empty
// id (useful when an upstream gateway has already authenticated the user).
package identity

import (
	"context"
	"sync"
)

// User is a resolved player profile.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Resolver looks up a user profile by id. A (nil, nil) return means the user
// is unknown; callers treat absence as a reason to abandon pairing, not as an
// error.
type Resolver interface {
	Resolve(ctx context.Context, userID string) (*User, error)
}

// StaticResolver resolves users from an in-memory roster.
type StaticResolver struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewStaticResolver creates a resolver pre-populated with the given users.
func NewStaticResolver(users ...User) *StaticResolver {
	r := &StaticResolver{users: make(map[string]User, len(users))}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

// Add registers or replaces a user in the roster.
func (r *StaticResolver) Add(u User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

// Remove deletes a user from the roster.
func (r *StaticResolver) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, userID)
}

// Resolve returns the user's profile, or (nil, nil) if the id is unknown.
func (r *StaticResolver) Resolve(ctx context.Context, userID string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// Passthrough resolves every non-empty id to a profile whose name is the id
// itself. Empty ids resolve as absent.
type Passthrough struct{}

// Resolve implements Resolver.
func (Passthrough) Resolve(ctx context.Context, userID string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, nil
	}
	return &User{ID: userID, Name: userID}, nil
}
