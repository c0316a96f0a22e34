// Package contract binds the matching-funds contract: it packs calls with the
// contract ABI, submits them through a Backend and decodes the results into
// matching types.
package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/pendergraft/matchfund/internal/chains/evm"
	"github.com/pendergraft/matchfund/internal/matching"
)

// Contract method names.
const (
	MethodGetMatchers = "get_matchers"
	MethodDonate      = "donate"
	MethodDeposit     = "deposit_matching_funds"
	MethodWithdraw    = "withdraw_matching_funds"
)

var requiredMethods = []string{MethodGetMatchers, MethodDonate, MethodDeposit, MethodWithdraw}

// Backend is the node connection the contract talks through.
type Backend interface {
	Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	SendTransaction(ctx context.Context, req evm.TxRequest) (common.Hash, error)
	WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Contract is a deployed matching-funds contract.
type Contract struct {
	address common.Address
	abi     abi.ABI
	backend Backend
	logger  *slog.Logger
}

// New binds the contract at address. The ABI must declare every method the
// client uses.
func New(address common.Address, abiJSON string, backend Backend, logger *slog.Logger) (*Contract, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing contract ABI: %w", err)
	}

	var missing []string
	for _, name := range requiredMethods {
		if _, ok := parsed.Methods[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("contract ABI is missing methods: %s", strings.Join(missing, ", "))
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Contract{address: address, abi: parsed, backend: backend, logger: logger}, nil
}

// Address returns the contract address.
func (c *Contract) Address() common.Address {
	return c.address
}

// GetMatchers reads every match record from the contract.
func (c *Contract) GetMatchers(ctx context.Context) ([]matching.MatchRecord, error) {
	data, err := c.abi.Pack(MethodGetMatchers)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", MethodGetMatchers, err)
	}

	out, err := c.backend.Call(ctx, ethereum.CallMsg{To: &c.address, Data: data})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", matching.ErrRemoteCall, MethodGetMatchers, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s returned no data (is %s a matching contract?)", matching.ErrRemoteCall, MethodGetMatchers, c.address.Hex())
	}

	values, err := c.abi.Unpack(MethodGetMatchers, out)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", matching.ErrRemoteCall, MethodGetMatchers, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%w: %s returned %d values, want 1", matching.ErrRemoteCall, MethodGetMatchers, len(values))
	}

	records, err := decodeRecords(values[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", matching.ErrRemoteCall, err)
	}
	return records, nil
}

// Donate donates value to the recipient of record index. Up to slippage of
// the matched amount may go unmatched.
func (c *Contract) Donate(ctx context.Context, from common.Address, index int, slippage, value *big.Int) (*types.Receipt, error) {
	return c.transact(ctx, MethodDonate, from, value, big.NewInt(int64(index)), slippage)
}

// DepositMatchingFunds creates a new match record funded with value.
func (c *Contract) DepositMatchingFunds(ctx context.Context, from, donateAddress common.Address, m matching.Multiplier, deadline time.Time, withdrawableBeforeDeadline bool, value *big.Int) (*types.Receipt, error) {
	return c.transact(ctx, MethodDeposit, from, value,
		donateAddress,
		big.NewInt(int64(m)),
		big.NewInt(deadline.Unix()),
		withdrawableBeforeDeadline,
	)
}

// WithdrawMatchingFunds withdraws the remaining funds of record index.
func (c *Contract) WithdrawMatchingFunds(ctx context.Context, from common.Address, index int) (*types.Receipt, error) {
	return c.transact(ctx, MethodWithdraw, from, nil, big.NewInt(int64(index)))
}

func (c *Contract) transact(ctx context.Context, method string, from common.Address, value *big.Int, args ...any) (*types.Receipt, error) {
	data, err := pack(c.abi, method, c.abi.Methods[method].Inputs, args)
	if err != nil {
		return nil, err
	}

	hash, err := c.backend.SendTransaction(ctx, evm.TxRequest{
		From:  from,
		To:    &c.address,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return nil, &TxError{Op: method, Err: err}
	}
	c.logger.Info("transaction submitted", "operation", method, "tx", hash.Hex())

	return waitMined(ctx, c.backend, c.logger, method, hash)
}

func waitMined(ctx context.Context, backend Backend, logger *slog.Logger, op string, hash common.Hash) (*types.Receipt, error) {
	receipt, err := backend.WaitForReceipt(ctx, hash)
	if err != nil {
		return nil, &TxError{Op: op, Hash: hash, Err: err}
	}
	logger.Info("transaction mined", "operation", op, "tx", hash.Hex(), "block", receipt.BlockNumber, "status", receipt.Status)

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, &TxError{Op: op, Hash: hash, Receipt: receipt, Err: ErrReverted}
	}
	return receipt, nil
}

// ErrReverted is returned when a mined transaction has a failed status.
var ErrReverted = errors.New("transaction reverted")

// TxError describes a failed state-changing call. It matches
// matching.ErrRemoteCall as well as the underlying cause.
type TxError struct {
	Op      string
	Hash    common.Hash    // zero if the transaction was never accepted
	Receipt *types.Receipt // set when the transaction was mined
	Err     error
}

func (e *TxError) Error() string {
	if e.Hash == (common.Hash{}) {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s (tx %s): %v", e.Op, e.Hash.Hex(), e.Err)
}

func (e *TxError) Unwrap() []error {
	return []error{matching.ErrRemoteCall, e.Err}
}
