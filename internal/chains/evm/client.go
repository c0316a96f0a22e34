// Package evm provides the JSON-RPC client used to talk to an EVM node.
package evm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// DefaultPollInterval is the default interval for polling transaction receipts.
const DefaultPollInterval = time.Second

// ErrNoAccounts is returned when the node manages no accounts.
var ErrNoAccounts = errors.New("node has no accounts")

// Client wraps a node connection. Transactions are signed by the node's
// managed accounts via eth_sendTransaction.
type Client struct {
	rpc          *rpc.Client
	eth          *ethclient.Client
	pollInterval time.Duration
	logger       *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithPollInterval sets how often receipts are polled while waiting.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithLogger sets the client logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// Dial connects to the node at url (http, ws or ipc).
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	return NewClient(rc, opts...), nil
}

// NewClient wraps an existing RPC connection.
func NewClient(rc *rpc.Client, opts ...Option) *Client {
	c := &Client{
		rpc:          rc,
		eth:          ethclient.NewClient(rc),
		pollInterval: DefaultPollInterval,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close closes the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}

// Accounts returns the accounts managed by the node (eth_accounts).
func (c *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("eth_accounts: %w", err)
	}
	return accounts, nil
}

// Account returns the node account at index.
func (c *Client) Account(ctx context.Context, index int) (common.Address, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return common.Address{}, err
	}
	if len(accounts) == 0 {
		return common.Address{}, ErrNoAccounts
	}
	if index < 0 || index >= len(accounts) {
		return common.Address{}, fmt.Errorf("account index %d out of range (node has %d accounts)", index, len(accounts))
	}
	return accounts[index], nil
}

// ChainID returns the chain ID reported by the node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.eth.ChainID(ctx)
}

// Call executes a read-only call against the latest block.
func (c *Client) Call(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return c.eth.CallContract(ctx, msg, nil)
}

// Code returns the runtime bytecode at address.
func (c *Client) Code(ctx context.Context, address common.Address) ([]byte, error) {
	return c.eth.CodeAt(ctx, address, nil)
}

// TransactionReceipt returns the receipt of a mined transaction, or
// ethereum.NotFound while it is pending.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return c.eth.TransactionReceipt(ctx, hash)
}

// TxRequest describes a transaction for the node to sign and submit.
type TxRequest struct {
	From  common.Address
	To    *common.Address // nil creates a contract
	Value *big.Int
	Data  []byte
	Gas   uint64 // 0 lets the node estimate
}

func (r TxRequest) args() map[string]any {
	args := map[string]any{"from": r.From}
	if r.To != nil {
		args["to"] = *r.To
	}
	if r.Value != nil && r.Value.Sign() > 0 {
		args["value"] = (*hexutil.Big)(r.Value)
	}
	if len(r.Data) > 0 {
		args["data"] = hexutil.Bytes(r.Data)
	}
	if r.Gas > 0 {
		args["gas"] = hexutil.Uint64(r.Gas)
	}
	return args
}

// SendTransaction submits req via eth_sendTransaction and returns its hash.
func (c *Client) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendTransaction", req.args()); err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendTransaction: %w", err)
	}
	c.logger.Debug("transaction submitted", "tx", hash.Hex(), "from", req.From.Hex())
	return hash, nil
}

// WaitForReceipt blocks until hash is mined or ctx ends.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	start := time.Now()
	receipt, err := WaitForReceipt(ctx, c, hash, c.pollInterval)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("transaction mined", "tx", hash.Hex(), "block", receipt.BlockNumber, "status", receipt.Status, "waited", time.Since(start))
	return receipt, nil
}
