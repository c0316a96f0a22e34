package matching

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var bigDenominator = big.NewInt(Denominator)

// ComputeMatchAmount returns floor(donation * m / 1024), the amount the
// matcher's deposit contributes if funds allow.
func ComputeMatchAmount(donation *big.Int, m Multiplier) *big.Int {
	out := new(big.Int).Mul(donation, big.NewInt(int64(m)))
	return out.Div(out, bigDenominator)
}

// ComputeWithSlippage returns max(0, matched - slippage), the worst-case
// matched amount a donor accepts. slippage must be non-negative.
func ComputeWithSlippage(matched, slippage *big.Int) *big.Int {
	out := new(big.Int).Sub(matched, slippage)
	if out.Sign() < 0 {
		return new(big.Int)
	}
	return out
}

// MaxMatchableDonation returns the largest donation whose full match the
// record's remaining funds cover. Display only; a zero multiplier yields 0.
func MaxMatchableDonation(r MatchRecord) *big.Int {
	if r.Multiplier == 0 || r.Funds == nil {
		return new(big.Int)
	}
	out := new(big.Int).Mul(r.Funds, bigDenominator)
	return out.Div(out, big.NewInt(int64(r.Multiplier)))
}

// IsWithdrawEligible reports whether caller may be offered a withdrawal of r.
// The contract makes the final decision.
func IsWithdrawEligible(r MatchRecord, caller common.Address, now time.Time) bool {
	return r.HasFunds() && r.Matcher == caller
}

// WithdrawLocked reports whether the contract is expected to refuse a
// withdrawal because the deadline has not passed and early withdrawal was
// not allowed at deposit time.
func WithdrawLocked(r MatchRecord, now time.Time) bool {
	return !r.WithdrawableBeforeDeadline && now.Before(r.Deadline)
}

// IsDonationEligible reports whether r can still match a donation at now.
// The deadline instant itself is not eligible.
func IsDonationEligible(r MatchRecord, now time.Time) bool {
	return r.HasFunds() && now.Before(r.Deadline)
}

// State infers the lifecycle state of r at now.
func State(r MatchRecord, now time.Time) RecordState {
	switch {
	case !r.HasFunds():
		return StateExhausted
	case !now.Before(r.Deadline):
		return StateExpired
	default:
		return StateActive
	}
}

// Quote computes the confirmation breakdown for donating against r.
func Quote(r MatchRecord, donation, slippage *big.Int) DonationQuote {
	matched := ComputeMatchAmount(donation, r.Multiplier)
	withSlippage := ComputeWithSlippage(matched, slippage)
	return DonationQuote{
		Donation:             new(big.Int).Set(donation),
		Matched:              matched,
		Total:                new(big.Int).Add(donation, matched),
		Slippage:             new(big.Int).Set(slippage),
		MatchedWithSlippage:  withSlippage,
		TotalWithSlippage:    new(big.Int).Add(donation, withSlippage),
		MaxMatchableDonation: MaxMatchableDonation(r),
	}
}
