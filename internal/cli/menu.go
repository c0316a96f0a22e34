package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"github.com/pendergraft/matchfund/internal/contract"
	"github.com/pendergraft/matchfund/internal/matching"
	"github.com/pendergraft/matchfund/internal/validation"
)

const mainMenu = `
 ~~~~ Main Menu ~~~~

[d]: donate
[m]: deposit matching funds
[w]: withdraw matching funds
[l]: list all matchers
[q]: quit

`

// matchingContract is the contract surface driven by the menu.
type matchingContract interface {
	GetMatchers(ctx context.Context) ([]matching.MatchRecord, error)
	Donate(ctx context.Context, from common.Address, index int, slippage, value *big.Int) (*types.Receipt, error)
	DepositMatchingFunds(ctx context.Context, from, donateAddress common.Address, m matching.Multiplier, deadline time.Time, withdrawableBeforeDeadline bool, value *big.Int) (*types.Receipt, error)
	WithdrawMatchingFunds(ctx context.Context, from common.Address, index int) (*types.Receipt, error)
}

// executor runs one state-changing call on behalf of the menu.
type executor func(ctx context.Context, op string, value *big.Int, call func(context.Context) (*types.Receipt, error)) (*types.Receipt, error)

// menu is the interactive donate/deposit/withdraw loop.
type menu struct {
	prompt   *Prompter
	out      io.Writer
	contract matchingContract
	from     common.Address
	exec     executor
	now      func() time.Time
}

func createMenuCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Start the interactive menu",
		Long: `Start the interactive menu. This is also what runs when matchfund is
started without a subcommand.

EXAMPLES:
  matchfund --deploy-input deploy.txt
  matchfund menu --rpc-url http://localhost:8545 --account-index 1
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd)
		},
	}

	return cmd
}

func runMenu(cmd *cobra.Command) error {
	ctx := cmd.Context()

	t, err := resolveTarget()
	if err != nil {
		return err
	}

	s, err := openSession(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := s.contractFor(t)
	if err != nil {
		return err
	}

	m := &menu{
		prompt:   NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		out:      cmd.OutOrStdout(),
		contract: c,
		from:     s.from,
		now:      time.Now,
		exec: func(ctx context.Context, op string, value *big.Int, call func(context.Context) (*types.Receipt, error)) (*types.Receipt, error) {
			return s.execute(ctx, op, c.Address(), value, call)
		},
	}
	return m.run(ctx)
}

// run shows the main menu until the operator quits or input ends.
func (m *menu) run(ctx context.Context) error {
	for {
		fmt.Fprint(m.out, mainMenu)
		mode, err := m.prompt.Line("What do you want to do?: ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(m.out, "exiting...")
			return nil
		}
		if err != nil {
			return err
		}

		switch mode = strings.TrimSpace(mode); mode {
		case "d":
			err = m.donate(ctx)
		case "m":
			err = m.deposit(ctx)
		case "w":
			err = m.withdraw(ctx)
		case "l":
			err = m.list(ctx)
		case "q":
			fmt.Fprintln(m.out, "exiting...")
			return nil
		default:
			fmt.Fprintf(m.out, "mode=%q is not recognized.\n", mode)
		}

		switch {
		case err == nil, errors.Is(err, errCanceled):
		case errors.Is(err, io.EOF):
			fmt.Fprintln(m.out, "exiting...")
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			fmt.Fprintf(m.out, "Error: %v\n", err)
		}
	}
}

func (m *menu) list(ctx context.Context) error {
	records, err := m.contract.GetMatchers(ctx)
	if err != nil {
		return err
	}
	printMatchers(m.out, records)
	return nil
}

func (m *menu) donate(ctx context.Context) error {
	records, err := m.contract.GetMatchers(ctx)
	if err != nil {
		return err
	}
	printMatchers(m.out, records)
	if len(records) == 0 {
		return nil
	}

	r, err := m.selectDonationRecord(records)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "The maximum amount of the donation that can be matched is %s ETH.\n",
		validation.FormatEther(matching.MaxMatchableDonation(r)))

	donation, err := ask(m.prompt, "donation", "Amount to donate in ETH: ", func(s string) (*big.Int, error) {
		return validation.ParseEther(s, false)
	})
	if err != nil {
		return err
	}
	slippage, err := ask(m.prompt, "slippage", "Allowed slippage in ETH (How much ETH is allowed to be unmatched?): ", func(s string) (*big.Int, error) {
		return validation.ParseEther(s, true)
	})
	if err != nil {
		return err
	}

	printDonationQuote(m.out, r, matching.Quote(r, donation, slippage))

	ok, err := m.confirm()
	if err != nil || !ok {
		return err
	}
	return m.send(ctx, contract.MethodDonate, donation, func(ctx context.Context) (*types.Receipt, error) {
		return m.contract.Donate(ctx, m.from, r.Index, slippage, donation)
	})
}

// selectDonationRecord asks for an index until it names a record that can
// still match a donation.
func (m *menu) selectDonationRecord(records []matching.MatchRecord) (matching.MatchRecord, error) {
	for {
		i, err := askCancelable(m.prompt, "index", "Select an index (or q to cancel): ", func(s string) (int, error) {
			return validation.ParseIndex(s, len(records))
		})
		if err != nil {
			return matching.MatchRecord{}, err
		}

		r := records[i]
		now := m.now()
		switch {
		case !now.Before(r.Deadline):
			fmt.Fprintf(m.out, "Error: The deadline has passed for index=%d.\n", i)
		case !r.HasFunds():
			fmt.Fprintf(m.out, "Error: There are no funds left for index=%d.\n", i)
		default:
			return r, nil
		}
	}
}

func (m *menu) deposit(ctx context.Context) error {
	fmt.Fprintln(m.out, "Leave blank to select the default.")

	var req depositRequest
	var err error

	req.DonateAddress, err = ask(m.prompt, "donate_address", "donate address: ", validation.ValidateAddress)
	if err != nil {
		return err
	}

	req.Multiplier, err = ask(m.prompt, "match_multiplier", "Match amount (0 < match_amount < 64) (default: 1): ", m.parseMultiplier)
	if err != nil {
		return err
	}

	req.Deadline, err = ask(m.prompt, "deadline",
		"Deadline (up to 367 days from now) in ISO 8601 format, or in number of days from now by prepending '+' (default: now + 30 days): ",
		func(s string) (time.Time, error) {
			return matching.ValidateDeadline(s, m.now())
		})
	if err != nil {
		return err
	}

	req.Withdrawable, err = m.prompt.YesNo("Should the funds be withdrawable before the deadline?")
	if err != nil {
		return err
	}

	req.Amount, err = ask(m.prompt, "deposit", "Amount to deposit in ETH: ", func(s string) (*big.Int, error) {
		return validation.ParseEther(s, false)
	})
	if err != nil {
		return err
	}

	printDepositSummary(m.out, req)

	ok, err := m.confirm()
	if err != nil || !ok {
		return err
	}
	return m.send(ctx, contract.MethodDeposit, req.Amount, func(ctx context.Context) (*types.Receipt, error) {
		return m.contract.DepositMatchingFunds(ctx, m.from, req.DonateAddress, req.Multiplier, req.Deadline, req.Withdrawable, req.Amount)
	})
}

// parseMultiplier applies the default of 1 and tells the operator when the
// ratio was truncated to a multiple of 1/1024.
func (m *menu) parseMultiplier(s string) (matching.Multiplier, error) {
	if strings.TrimSpace(s) == "" {
		s = "1"
	}
	mul, rounded, err := matching.ValidateMatchMultiplier(s)
	if err != nil {
		return 0, err
	}
	if rounded {
		fmt.Fprintf(m.out, "(Note: The match amount is changed to %s because it has to be a multiple of 1/1024.)\n", mul.String())
	}
	return mul, nil
}

func (m *menu) withdraw(ctx context.Context) error {
	records, err := m.contract.GetMatchers(ctx)
	if err != nil {
		return err
	}

	now := m.now()
	var own []matching.MatchRecord
	for _, r := range records {
		if matching.IsWithdrawEligible(r, m.from, now) {
			own = append(own, r)
		}
	}
	printMatchers(m.out, own)
	if len(records) == 0 {
		return nil
	}

	i, err := askCancelable(m.prompt, "index", "Select an index (or q to cancel): ", func(s string) (int, error) {
		return validation.ParseIndex(s, len(records))
	})
	if err != nil {
		return err
	}

	// The contract decides; these only warn.
	r := records[i]
	if !matching.IsWithdrawEligible(r, m.from, now) {
		fmt.Fprintf(m.out, "Warning: index=%d is not a funded deposit of %s; the contract will likely refuse it.\n", i, m.from.Hex())
	} else if matching.WithdrawLocked(r, now) {
		fmt.Fprintf(m.out, "Warning: the funds of index=%d are locked until %s.\n", i, r.Deadline.UTC().Format(matching.DeadlineLayout))
	}

	ok, err := m.prompt.YesNo(fmt.Sprintf("Withdraw index %d?", i))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(m.out, "Canceled.")
		return nil
	}
	return m.send(ctx, contract.MethodWithdraw, nil, func(ctx context.Context) (*types.Receipt, error) {
		return m.contract.WithdrawMatchingFunds(ctx, m.from, i)
	})
}

// confirm asks for the final go-ahead and reports a cancellation.
func (m *menu) confirm() (bool, error) {
	ok, err := m.prompt.YesNo("y: confirm, n: cancel ")
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Fprintln(m.out, "Canceled.")
	}
	return ok, nil
}

// send submits a call and reports its outcome. Remote failures are printed
// and the menu carries on.
func (m *menu) send(ctx context.Context, op string, value *big.Int, call func(context.Context) (*types.Receipt, error)) error {
	fmt.Fprintln(m.out, "Sending request to contract...")
	receipt, err := m.exec(ctx, op, value, call)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(m.out, "Error: %v\n", err)
		return nil
	}
	fmt.Fprintln(m.out, "Completed successfully.")
	fmt.Fprintln(m.out, "\nTransaction receipt:")
	printReceipt(m.out, receipt)
	return nil
}
