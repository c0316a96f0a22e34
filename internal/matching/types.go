// Package matching contains the matching-funds domain model and the pure
// validation and arithmetic rules applied before any contract call.
package matching

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// MatchRecord is one matcher's deposited offer, as returned by get_matchers.
// Records are snapshots; the client never mutates them.
type MatchRecord struct {
	Index                      int
	Funds                      *big.Int // wei remaining, 0 when exhausted
	Matcher                    common.Address
	DonateAddress              common.Address
	Multiplier                 Multiplier
	Deadline                   time.Time
	WithdrawableBeforeDeadline bool
}

// HasFunds reports whether the record still holds matchable funds.
func (r MatchRecord) HasFunds() bool {
	return r.Funds != nil && r.Funds.Sign() > 0
}

// RecordState is the lifecycle state of a record as inferred from a snapshot.
type RecordState string

// Observable record states. A withdrawn record has zero funds and is
// indistinguishable from an exhausted one.
const (
	StateActive    RecordState = "active"
	StateExhausted RecordState = "exhausted"
	StateExpired   RecordState = "expired"
)

// DonationQuote is the breakdown shown to a donor before confirming.
type DonationQuote struct {
	Donation             *big.Int
	Matched              *big.Int
	Total                *big.Int
	Slippage             *big.Int
	MatchedWithSlippage  *big.Int
	TotalWithSlippage    *big.Int
	MaxMatchableDonation *big.Int
}
