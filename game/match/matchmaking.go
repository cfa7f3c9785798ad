package match

import (
	"context"
	"fmt"

	"diceduel/identity"
)

// waiter is the slot occupant: one user waiting for a partner. A fresh
// waiter is allocated per install, so compare-and-swap on the pointer
// identifies the exact pending request.
type waiter struct {
	userID string
}

// StartMatchmaking pairs the user with another waiting user, or parks the
// user in the waiting slot until a partner arrives. The rendezvous itself is
// lock-free and never blocks: either we take the current occupant as our
// partner, or we become the occupant.
//
// Once two ids are held, both are resolved through the resolver. If either
// profile is absent the pairing is silently abandoned and both users must
// request matchmaking again; only resolver failures are returned as errors.
//
// Users that already have a room are ignored. A user whose earlier request
// still occupies the slot is left waiting rather than paired with itself.
func (r *Registry) StartMatchmaking(ctx context.Context, userID string, resolver identity.Resolver) error {
	if r.UserRoom(userID) != nil {
		return nil
	}

	var partnerID string
	for {
		if w := r.waiting.Swap(nil); w != nil {
			if w.userID == userID {
				// our own earlier request; put it back and keep waiting
				if r.waiting.CompareAndSwap(nil, w) {
					return nil
				}
				continue
			}
			partnerID = w.userID
			break
		}
		if r.waiting.CompareAndSwap(nil, &waiter{userID: userID}) {
			return nil
		}
	}

	user, err := resolver.Resolve(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve user %s: %w", userID, err)
	}
	partner, err := resolver.Resolve(ctx, partnerID)
	if err != nil {
		return fmt.Errorf("resolve user %s: %w", partnerID, err)
	}
	if user == nil || partner == nil {
		r.logger.Debug().Str("user", userID).Str("partner", partnerID).
			Msg("pairing abandoned: profile not resolved")
		return nil
	}

	r.createRoom(user, partner)
	return nil
}

// StopMatchmaking cancels the user's pending matchmaking request. It clears
// the waiting slot only if it still holds this user; if the user was already
// paired, or the slot was taken by someone else, it is a no-op.
func (r *Registry) StopMatchmaking(userID string) {
	if w := r.waiting.Load(); w != nil && w.userID == userID {
		r.waiting.CompareAndSwap(w, nil)
	}
}

// Waiting reports whether the given user currently occupies the slot.
func (r *Registry) Waiting(userID string) bool {
	w := r.waiting.Load()
	return w != nil && w.userID == userID
}
