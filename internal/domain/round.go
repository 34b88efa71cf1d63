// Package domain defines the core business entities of the roulette engine:
// rounds, bets, the pool ledger, wallets, and the events they emit.
package domain

import "time"

// RoundState is the lifecycle state of a Round.
type RoundState string

const (
	RoundOpen    RoundState = "OPEN"
	RoundClosed  RoundState = "CLOSED"
	RoundSettled RoundState = "SETTLED"
)

// DefaultWheelSize is the modulus used to reduce derived randomness to a
// winning number when a round does not override it. 38 slots (1..36 playable,
// plus the two house-edge slots the selector can also land on and which no
// bet can ever match) mirrors a European wheel's house edge at payout
// numerator 36. See SPEC_FULL.md §9 OQ1.
const DefaultWheelSize uint8 = 38

// DefaultPayoutNumerator is the fixed numerator in the prize formula
// stake * PayoutNumerator / k.
const DefaultPayoutNumerator uint64 = 36

// Round is the per-round state record (spec: RoundConfig<T>). Round itself
// holds no mutex — callers (RoundService) take out the row lock / in-process
// mutex at the repository/service boundary, per the serial
// transaction-per-round-object concurrency model.
type Round struct {
	Round        uint64     `db:"round"`
	Pool         Pool       `db:"-"`
	PoolValue    uint64     `db:"pool_value"`
	MinValue     uint64     `db:"min_value"`
	MaxValue     uint64     `db:"max_value"`
	TotalAmount  uint64     `db:"total_amount"`
	ClosingTime  int64      `db:"closing_time"` // ms since epoch
	WheelSize    uint8      `db:"wheel_size"`
	Players      BetBook    `db:"-"`
	State        RoundState `db:"state"`
	Winner       *uint8     `db:"winner"`
	Seed         []byte     `db:"seed"`
	CreatedAt    time.Time  `db:"created_at"`
}

// PlayableMax returns the highest value a bet may name, R = wheel_size - 2.
func (r *Round) PlayableMax() uint8 {
	return r.WheelSize - 2
}

// IsOpen reports whether the round is accepting bets at the given wall-clock
// time (ms since epoch). now == closing_time still succeeds; now >
// closing_time does not — the boundary is deliberately non-overlapping.
func (r *Round) IsOpen(nowMs int64) bool {
	return r.State == RoundOpen && nowMs <= r.ClosingTime
}

// CanFinish reports whether finish may be invoked at the given wall-clock
// time. now == closing_time fails; now > closing_time succeeds — the exact
// inverse boundary of IsOpen, so the two states never overlap.
func (r *Round) CanFinish(nowMs int64) bool {
	return r.State == RoundClosed && nowMs > r.ClosingTime
}

// MaxPossiblePayout returns the largest aggregate prize the round could ever
// owe if every remaining bettable unit of total_amount won at the worst
// admissible k=1 (single-number bet). Used by CreateRound/UpdateRound to
// enforce the solvency precondition from SPEC_FULL.md §9 OQ3.
func (r *Round) MaxPossiblePayout() uint64 {
	return r.TotalAmount * DefaultPayoutNumerator
}

// Payout computes the prize for a winning bet of stake on k distinct values,
// per the fixed formula stake * 36 / k (integer division).
func Payout(stake uint64, k int) uint64 {
	if k <= 0 {
		return 0
	}
	return stake * DefaultPayoutNumerator / uint64(k)
}
