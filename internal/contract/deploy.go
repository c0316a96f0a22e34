package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/pendergraft/matchfund/internal/chains/evm"
)

// OpDeploy is the operation name used for contract creation.
const OpDeploy = "deploy"

// Deployment is the result of a successful contract creation.
type Deployment struct {
	Address common.Address
	TxHash  common.Hash
	Receipt *types.Receipt
}

// Deploy creates a contract from creation bytecode, appending the packed
// constructor arguments.
func Deploy(ctx context.Context, backend Backend, logger *slog.Logger, from common.Address, abiJSON string, bytecode []byte, args ...any) (*Deployment, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(bytecode) == 0 {
		return nil, errors.New("no bytecode to deploy")
	}

	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing contract ABI: %w", err)
	}

	input, err := pack(parsed, "", parsed.Constructor.Inputs, args)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, len(bytecode)+len(input))
	data = append(data, bytecode...)
	data = append(data, input...)

	hash, err := backend.SendTransaction(ctx, evm.TxRequest{From: from, Data: data})
	if err != nil {
		return nil, &TxError{Op: OpDeploy, Err: err}
	}
	logger.Info("transaction submitted", "operation", OpDeploy, "tx", hash.Hex())

	receipt, err := waitMined(ctx, backend, logger, OpDeploy, hash)
	if err != nil {
		return nil, err
	}
	if receipt.ContractAddress == (common.Address{}) {
		return nil, &TxError{Op: OpDeploy, Hash: hash, Receipt: receipt, Err: errors.New("receipt has no contract address")}
	}

	return &Deployment{Address: receipt.ContractAddress, TxHash: hash, Receipt: receipt}, nil
}
