package match

// Subscription is a handle for one registered change callback. Go functions
// are not comparable, so unsubscribing is done through the handle rather
// than by passing the callback again.
type Subscription struct {
	link *userLink
	fn   func()
}

// Subscribe registers fn to run whenever the user's room assignment changes
// or their current room's state changes. Callbacks run synchronously on the
// goroutine that caused the change, in subscription order, and carry no
// payload: subscribers re-read current state. It is the caller's
// responsibility to Cancel the subscription; lists are never pruned
// otherwise.
func (r *Registry) Subscribe(userID string, fn func()) *Subscription {
	l := r.link(userID)
	s := &Subscription{link: l, fn: fn}
	l.subMu.Lock()
	l.subs = append(l.subs, s)
	l.subMu.Unlock()
	return s
}

// Cancel removes the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	l := s.link
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for i, cur := range l.subs {
		if cur == s {
			l.subs = append(l.subs[:i], l.subs[i+1:]...)
			break
		}
	}
}

// notifyUser invokes the user's subscribers. Must not be called while
// holding the registry's compound lock.
func (r *Registry) notifyUser(userID string) {
	r.mu.RLock()
	l, ok := r.links[userID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	l.subMu.Lock()
	subs := make([]*Subscription, len(l.subs))
	copy(subs, l.subs)
	l.subMu.Unlock()
	for _, s := range subs {
		s.fn()
	}
}
