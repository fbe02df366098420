// Package admission implements a default admission-control gate for the
// scheduling gate's admission_overloaded() hook (spec §6, C6). It is a
// concrete, swappable default — internal/schedule accepts any Controller,
// so a real deployment may plug in the framework's own overload signal
// instead.
//
// The algorithm is an additive-increase/multiplicative-decrease (AIMD)
// concurrency limiter, adapted from the teacher's
// internal/core/lib/network/qos/limiter.go AdaptiveLimiter. The core
// difference from the teacher's version: this module never blocks on the
// packet path (spec §5, "no internal threads... no blocking calls"), so
// Admit is a non-blocking try-acquire rather than the teacher's
// context-aware Acquire.
package admission

import "sync"

// Controller is what internal/schedule calls to decide whether to admit a
// new flow, and to report back whether scheduling that flow succeeded.
type Controller interface {
	Admit() bool
	Release()
	OnSuccess()
	OnFailure()
}

// AdaptiveController is the AIMD default. CurrentLimit starts at initial and
// floats between min and max: OnSuccess grows it by one token for every
// currentLimit consecutive admissions that report success; OnFailure shrinks
// it multiplicatively (factor 0.7, minimum shrink of one token), mirroring
// the teacher's increaseLimit/decreaseLimit pair.
type AdaptiveController struct {
	mu            sync.Mutex
	inUse         int
	currentLimit  int
	minLimit      int
	maxLimit      int
	successStreak int
}

// NewAdaptiveController builds a controller seeded at initial admissions in
// flight, bounded to [min, max].
func NewAdaptiveController(initial, min, max int) *AdaptiveController {
	return &AdaptiveController{currentLimit: initial, minLimit: min, maxLimit: max}
}

// Admit tries to reserve one admission slot without blocking. A false
// return means the gate is overloaded (spec §6's admission_overloaded()):
// the caller must treat the ingress SYN as dropped, not queued.
func (c *AdaptiveController) Admit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inUse >= c.currentLimit {
		return false
	}
	c.inUse++
	return true
}

// Release returns a previously admitted slot.
func (c *AdaptiveController) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inUse > 0 {
		c.inUse--
	}
}

// OnSuccess records that an admitted flow scheduled successfully, growing
// the limit by one token every currentLimit consecutive successes.
func (c *AdaptiveController) OnSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successStreak++
	if c.successStreak >= c.currentLimit && c.currentLimit < c.maxLimit {
		c.currentLimit++
		c.successStreak = 0
	}
}

// OnFailure records that an admitted flow failed to schedule (for example,
// no eligible backend), shrinking the limit
// multiplicatively — by at least one token, by 30% for larger limits.
func (c *AdaptiveController) OnFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successStreak = 0
	reduced := int(float64(c.currentLimit) * 0.7)
	if reduced >= c.currentLimit {
		reduced = c.currentLimit - 1
	}
	if reduced < c.minLimit {
		reduced = c.minLimit
	}
	c.currentLimit = reduced
}

// CurrentLimit reports the controller's current admission ceiling.
func (c *AdaptiveController) CurrentLimit() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLimit
}
