// Package penalty computes the stake forfeited by a juror who voted with the
// losing side or failed to reveal.
package penalty

import (
	"math"
	"math/bits"
)

const (
	// DiscountScore is the score above which a juror earns the reputation discount.
	DiscountScore = 70
	// MaxStreak caps the consecutive-wrong escalation.
	MaxStreak = 8
)

// Input carries everything the penalty depends on.
//
// PriorScore and PriorTotalVotes are read before this verdict's reputation
// update. StreakAfter is the consecutive-wrong count after it.
type Input struct {
	Stake           uint64
	Rate            uint64
	PriorScore      int
	PriorTotalVotes int
	StreakAfter     int
}

// Base returns stake*rate/100.
func Base(stake, rate uint64) uint64 {
	return MulDiv(stake, rate, 100)
}

// Dynamic returns the penalty for in, never more than the stake.
//
// Novices pay half the base with the reputation discount and no streak
// escalation. Everyone else pays the base, discounted by 10% above
// DiscountScore, then raised by 10% per consecutive wrong vote up to +80%.
func Dynamic(in Input) uint64 {
	base := Base(in.Stake, in.Rate)
	var p uint64
	if in.PriorTotalVotes < 3 {
		p = base / 2
		if in.PriorScore > DiscountScore {
			p = MulDiv(p, 9, 10)
		}
	} else {
		p = base
		if in.PriorScore > DiscountScore {
			p = MulDiv(p, 9, 10)
		}
		streak := uint64(min(max(in.StreakAfter, 0), MaxStreak))
		p = MulDiv(p, 10+streak, 10)
	}
	return min(p, in.Stake)
}

// MulDiv returns floor(a*b/d) without intermediate overflow, saturating at
// math.MaxUint64 when the quotient does not fit. d must be non-zero.
func MulDiv(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, d)
	return q
}
