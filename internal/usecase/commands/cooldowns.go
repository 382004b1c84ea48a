package commands

import (
	"math"
	"sync"
	"time"

	"chatcmd/internal/domain"
)

// maxCooldownSeconds is the longest window a time.Duration can hold.
const maxCooldownSeconds = math.MaxInt64 / int64(time.Second)

type cooldownTracker struct {
	mu     sync.Mutex
	now    func() time.Time
	global map[string]time.Time
	user   map[string]time.Time
}

func newCooldownTracker(now func() time.Time) *cooldownTracker {
	if now == nil {
		now = time.Now
	}
	return &cooldownTracker{
		now:    now,
		global: make(map[string]time.Time),
		user:   make(map[string]time.Time),
	}
}

// tryAcquire reports whether the command may fire for userID and, if so,
// starts both cooldown windows.
func (t *cooldownTracker) tryAcquire(trigger, userID string, cd domain.Cooldown) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	userKey := trigger + "\x00" + userID

	if until, ok := t.global[trigger]; ok && now.Before(until) {
		return false
	}
	if until, ok := t.user[userKey]; ok && now.Before(until) {
		return false
	}

	if cd.Global > 0 {
		t.global[trigger] = now.Add(cooldownWindow(cd.Global))
	}
	if cd.User > 0 {
		t.user[userKey] = now.Add(cooldownWindow(cd.User))
	}
	return true
}

func (t *cooldownTracker) forget(trigger string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.global, trigger)
	prefix := trigger + "\x00"
	for key := range t.user {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(t.user, key)
		}
	}
}

func cooldownWindow(seconds int) time.Duration {
	return time.Duration(min(int64(seconds), maxCooldownSeconds)) * time.Second
}
