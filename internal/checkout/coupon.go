package checkout

import (
	"time"

	"giftmarket/internal/domain"
)

// ApplyCoupon validates a code and locks its discount into the session.
// Applying is idempotent: the same code again, or any code while one is
// locked, leaves the locked discount untouched. An unrecognized code raises a
// transient error notice that clears itself.
func (o *Orchestrator) ApplyCoupon(code string) bool {
	o.mu.Lock()

	if o.couponCode != "" {
		locked := o.couponCode
		o.mu.Unlock()
		// Already locked; re-applying the same code is a no-op success,
		// anything else is ignored without touching the lock.
		return domain.NormalizeCoupon(code) == locked
	}

	normalized := domain.NormalizeCoupon(code)
	rate, ok := domain.CouponRate(normalized)
	if !ok {
		o.couponErr = true
		if o.couponTimer != nil {
			o.couponTimer.Stop()
		}
		o.couponTimer = time.AfterFunc(o.noticeTTL, func() {
			o.mu.Lock()
			o.couponErr = false
			o.mu.Unlock()
		})
		haptics := o.haptics
		o.mu.Unlock()
		haptics.Warning()
		return false
	}

	o.couponCode = normalized
	o.couponRate = rate
	o.couponErr = false
	haptics := o.haptics
	o.mu.Unlock()
	haptics.Success()
	return true
}

// CouponCode returns the locked code, or "" when none is applied.
func (o *Orchestrator) CouponCode() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.couponCode
}

// CouponError reports whether the transient invalid-code notice is showing.
func (o *Orchestrator) CouponError() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.couponErr
}

// SetCouponNoticeTTL overrides how long the invalid-code notice stays up.
func (o *Orchestrator) SetCouponNoticeTTL(d time.Duration) {
	o.mu.Lock()
	o.noticeTTL = d
	o.mu.Unlock()
}

func (o *Orchestrator) resetCoupon() {
	o.mu.Lock()
	if o.couponTimer != nil {
		o.couponTimer.Stop()
		o.couponTimer = nil
	}
	o.couponCode = ""
	o.couponRate = 0
	o.couponErr = false
	o.mu.Unlock()
}
