package favorites

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum time between two operations on the same character.
const DefaultCooldown = time.Second

// Gate tracks in-flight operations and their start times per character. At
// most one operation per character may hold the gate, and a new one may not
// start within the cooldown of the previous start.
type Gate struct {
	mu            sync.Mutex
	inFlight      map[int]struct{}
	lastStartedAt map[int]time.Time
	cooldown      time.Duration
	now           func() time.Time
}

// NewGate creates a gate. A nil clock means time.Now.
func NewGate(cooldown time.Duration, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{
		inFlight:      make(map[int]struct{}),
		lastStartedAt: make(map[int]time.Time),
		cooldown:      cooldown,
		now:           now,
	}
}

// Admission is the gate's answer to TryAcquire.
type Admission int

const (
	// Admitted means the caller holds the gate and must Release it.
	Admitted Admission = iota
	// RejectedInFlight means another operation on the character is pending.
	RejectedInFlight
	// RejectedRateLimited means the previous operation started less than one
	// cooldown ago.
	RejectedRateLimited
)

// TryAcquire marks the character in flight and starts its cooldown. In-flight
// and cooldown are decided under one lock, so two callers that both passed
// the advisory checks cannot both be admitted within a cooldown.
func (g *Gate) TryAcquire(characterID int) Admission {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[characterID]; busy {
		return RejectedInFlight
	}
	now := g.now()
	if started, ok := g.lastStartedAt[characterID]; ok && now.Sub(started) < g.cooldown {
		return RejectedRateLimited
	}
	g.inFlight[characterID] = struct{}{}
	// Cooldown runs from when the user acted, not from when the store replied.
	g.lastStartedAt[characterID] = now
	return Admitted
}

// Release clears the in-flight mark. Releasing an idle character is a no-op.
func (g *Gate) Release(characterID int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, characterID)
}

// InFlight reports whether an operation on the character is pending.
func (g *Gate) InFlight(characterID int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inFlight[characterID]
	return busy
}

// IsRateLimited reports whether the last operation on the character started
// less than one cooldown ago.
func (g *Gate) IsRateLimited(characterID int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	started, ok := g.lastStartedAt[characterID]
	if !ok {
		return false
	}
	return g.now().Sub(started) < g.cooldown
}
