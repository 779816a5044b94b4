package services

import (
	"sync"

	"golang.org/x/time/rate"

	"safeguard/internal/models"
)

// CaptureRateLimiter bounds how fast each capture source may feed text into
// the scorer, on top of the per-IP HTTP limits. A runaway source (e.g. a
// misconfigured drill) gets throttled instead of flooding the alert log.
type CaptureRateLimiter struct {
	global     *rate.Limiter
	perSource  *sync.Map // map[models.AlertSource]*rate.Limiter
	sourceRate rate.Limit
	burst      int
}

// NewCaptureRateLimiter creates a limiter with a global events/second cap
// and a per-source cap.
func NewCaptureRateLimiter(globalRate, perSourceRate float64) *CaptureRateLimiter {
	globalBurst := int(globalRate * 2)
	if globalBurst < 1 {
		globalBurst = 1
	}
	burst := int(perSourceRate * 2)
	if burst < 1 {
		burst = 1
	}

	return &CaptureRateLimiter{
		global:     rate.NewLimiter(rate.Limit(globalRate), globalBurst),
		perSource:  &sync.Map{},
		sourceRate: rate.Limit(perSourceRate),
		burst:      burst,
	}
}

// Allow reports whether a capture from the source may proceed now.
func (rl *CaptureRateLimiter) Allow(source models.AlertSource) bool {
	if !rl.global.Allow() {
		return false
	}
	return rl.sourceLimiter(source).Allow()
}

func (rl *CaptureRateLimiter) sourceLimiter(source models.AlertSource) *rate.Limiter {
	if limiter, ok := rl.perSource.Load(source); ok {
		return limiter.(*rate.Limiter)
	}

	newLimiter := rate.NewLimiter(rl.sourceRate, rl.burst)

	// Use the existing limiter if another goroutine created it first
	actual, _ := rl.perSource.LoadOrStore(source, newLimiter)
	return actual.(*rate.Limiter)
}
