package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/pendergraft/matchfund/internal/matching"
	"github.com/pendergraft/matchfund/internal/validation"
)

// printMatchers renders records as an aligned table.
func printMatchers(out io.Writer, records []matching.MatchRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No matchers found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "INDEX\tDONATION ADDRESS\tMATCH AMOUNT\tETH AVAILABLE\tDEADLINE (UTC)\tWITHDRAWABLE\t")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\t\n",
			r.Index,
			r.DonateAddress.Hex(),
			r.Multiplier.Ratio().StringFixed(10),
			validation.FormatEtherFixed(r.Funds),
			r.Deadline.UTC().Format(matching.DeadlineLayout),
			r.WithdrawableBeforeDeadline,
		)
	}
	w.Flush()
}

// matcherJSON is the machine-readable form of a record for list --json.
type matcherJSON struct {
	Index                      int    `json:"index"`
	Funds                      string `json:"funds"`
	FundsETH                   string `json:"fundsEth"`
	Matcher                    string `json:"matcher"`
	DonateAddress              string `json:"donateAddress"`
	MatchMultiplier            uint32 `json:"matchMultiplier"`
	MatchAmount                string `json:"matchAmount"`
	Deadline                   string `json:"deadline"`
	WithdrawableBeforeDeadline bool   `json:"withdrawableBeforeDeadline"`
	State                      string `json:"state"`
}

func toMatcherJSON(r matching.MatchRecord, now time.Time) matcherJSON {
	funds := "0"
	if r.Funds != nil {
		funds = r.Funds.String()
	}
	return matcherJSON{
		Index:                      r.Index,
		Funds:                      funds,
		FundsETH:                   validation.FormatEther(r.Funds),
		Matcher:                    r.Matcher.Hex(),
		DonateAddress:              r.DonateAddress.Hex(),
		MatchMultiplier:            uint32(r.Multiplier),
		MatchAmount:                r.Multiplier.String(),
		Deadline:                   r.Deadline.UTC().Format(time.RFC3339),
		WithdrawableBeforeDeadline: r.WithdrawableBeforeDeadline,
		State:                      string(matching.State(r, now)),
	}
}

// printReceipt prints the receipt as indented JSON.
func printReceipt(out io.Writer, receipt *types.Receipt) {
	data, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		fmt.Fprintf(out, "%+v\n", receipt)
		return
	}
	fmt.Fprintln(out, string(data))
}

// printDonationQuote prints the donation confirmation screen.
func printDonationQuote(out io.Writer, r matching.MatchRecord, q matching.DonationQuote) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Is this correct?")
	fmt.Fprintf(out, "  Index:                              %d\n", r.Index)
	fmt.Fprintf(out, "  Donation address:                   %s\n", r.DonateAddress.Hex())
	fmt.Fprintf(out, "  Matcher's address:                  %s\n", r.Matcher.Hex())
	fmt.Fprintf(out, "  Donation amount:                    %s ETH\n", validation.FormatEther(q.Donation))
	fmt.Fprintf(out, "  Matched amount:                     %s ETH\n", validation.FormatEther(q.Matched))
	fmt.Fprintf(out, "  Total donation:                     %s ETH\n", validation.FormatEther(q.Total))
	fmt.Fprintf(out, "  Allowed slippage:                   %s ETH\n", validation.FormatEther(q.Slippage))
	fmt.Fprintf(out, "  Matched amount with max slippage:   %s ETH\n", validation.FormatEther(q.MatchedWithSlippage))
	fmt.Fprintf(out, "  Total donation with max slippage:   %s ETH\n", validation.FormatEther(q.TotalWithSlippage))
	fmt.Fprintln(out)
}

// depositRequest is what the operator entered for a deposit.
type depositRequest struct {
	DonateAddress common.Address
	Multiplier    matching.Multiplier
	Deadline      time.Time
	Withdrawable  bool
	Amount        *big.Int
}

// printDepositSummary prints the deposit confirmation screen.
func printDepositSummary(out io.Writer, d depositRequest) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Is this correct?")
	fmt.Fprintf(out, "  Donation address:                        %s\n", d.DonateAddress.Hex())
	fmt.Fprintf(out, "  Match amount:                            %s\n", d.Multiplier.String())
	fmt.Fprintf(out, "  Deadline:                                %s\n", d.Deadline.UTC().Format(matching.DeadlineLayout))
	fmt.Fprintf(out, "  Funds are withdrawable before deadline:  %t\n", d.Withdrawable)
	fmt.Fprintf(out, "  Deposit amount:                          %s ETH\n", validation.FormatEther(d.Amount))
	fmt.Fprintln(out)
}
