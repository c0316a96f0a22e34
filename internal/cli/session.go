package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"github.com/pendergraft/matchfund/internal/chains/evm"
	"github.com/pendergraft/matchfund/internal/config"
	"github.com/pendergraft/matchfund/internal/contract"
	"github.com/pendergraft/matchfund/internal/observability/metrics"
	"github.com/pendergraft/matchfund/internal/storage"
	"github.com/pendergraft/matchfund/internal/validation"
)

// session holds the node connection and the ambient services of one
// command invocation.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *evm.Client
	chainID *big.Int
	from    common.Address
	timeout time.Duration

	// journal is nil when journaling is disabled or the store could not
	// be opened.
	journal storage.Store
}

// openSession loads configuration, connects to the node and resolves the
// sender account. withJournal opens the transaction journal as well.
func openSession(ctx context.Context, cmd *cobra.Command, withJournal bool) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := setupLogger(cfg, cmd.ErrOrStderr())
	metrics.Init(cfg.Metrics.TextfilePath != "")

	url := getRPCURL(cfg)
	client, err := evm.Dial(ctx, url,
		evm.WithPollInterval(cfg.RPC.PollInterval),
		evm.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to node at %s: %w", url, err)
	}
	if err := validation.ValidateChainID(chainID); err != nil {
		client.Close()
		return nil, err
	}

	from, err := client.Account(ctx, getAccountIndex(cfg))
	if err != nil {
		client.Close()
		return nil, err
	}
	logger.Debug("connected", "url", url, "chain_id", chainID, "account", from.Hex())

	s := &session{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		chainID: chainID,
		from:    from,
		timeout: getTxTimeout(cfg),
	}

	if withJournal && cfg.Storage.Enabled {
		journal, err := openJournal(ctx, cfg, logger)
		if err != nil {
			logger.Warn("transaction journal unavailable", "error", err)
		} else {
			s.journal = journal
		}
	}

	return s, nil
}

// openJournal opens and migrates the configured journal store.
func openJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return store, nil
}

// Close releases the node connection and the journal, and flushes metrics.
func (s *session) Close() {
	s.client.Close()
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.Warn("closing journal", "error", err)
		}
	}
	if err := metrics.WriteTextfile(s.cfg.Metrics.TextfilePath); err != nil {
		s.logger.Warn("writing metrics", "error", err)
	}
}

// contractFor binds the target contract to this session's node.
func (s *session) contractFor(t *target) (*contract.Contract, error) {
	return contract.New(t.Address, t.ABI, s.client, s.logger)
}

// execute runs one state-changing call under the transaction timeout,
// journaling and counting its outcome.
func (s *session) execute(ctx context.Context, op string, to common.Address, value *big.Int, call func(context.Context) (*types.Receipt, error)) (*types.Receipt, error) {
	id := s.journalStart(ctx, op, to, value)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	receipt, err := call(callCtx)
	status := txStatus(err)

	metrics.ContractCall(op, string(status))
	if receipt != nil {
		metrics.ObserveReceiptWait(op, time.Since(start))
	}
	if err != nil {
		s.logger.Info("contract call failed", "operation", op, "status", status, "error", err)
	}

	s.journalFinish(ctx, id, receipt, status, err)
	return receipt, err
}

func (s *session) journalStart(ctx context.Context, op string, to common.Address, value *big.Int) string {
	if s.journal == nil {
		return ""
	}
	tx := &storage.Transaction{
		Operation: op,
		ChainID:   s.chainID.String(),
		From:      s.from.Hex(),
		Value:     "0",
		Status:    storage.StatusSubmitted,
	}
	if to != (common.Address{}) {
		tx.Contract = to.Hex()
	}
	if value != nil {
		tx.Value = value.String()
	}
	if err := s.journal.RecordTransaction(ctx, tx); err != nil {
		s.logger.Warn("journal write failed", "operation", op, "error", err)
		return ""
	}
	return tx.ID
}

func (s *session) journalFinish(ctx context.Context, id string, receipt *types.Receipt, status storage.TxStatus, callErr error) {
	if s.journal == nil || id == "" {
		return
	}

	hash := txHash(receipt, callErr)
	if hash != (common.Hash{}) {
		if err := s.journal.SetTransactionHash(ctx, id, hash.Hex()); err != nil {
			s.logger.Warn("journal write failed", "id", id, "error", err)
		}
	}

	var block int64
	if receipt != nil && receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Int64()
	}
	var msg string
	if callErr != nil {
		msg = callErr.Error()
	}
	if err := s.journal.UpdateTransactionStatus(ctx, id, status, block, msg); err != nil {
		s.logger.Warn("journal write failed", "id", id, "error", err)
	}
}

// txStatus classifies the outcome of a state-changing call.
func txStatus(err error) storage.TxStatus {
	switch {
	case err == nil:
		return storage.StatusSuccess
	case errors.Is(err, contract.ErrReverted):
		return storage.StatusReverted
	case errors.Is(err, evm.ErrReceiptTimeout):
		return storage.StatusTimeout
	default:
		return storage.StatusFailed
	}
}

func txHash(receipt *types.Receipt, err error) common.Hash {
	if receipt != nil {
		return receipt.TxHash
	}
	var txErr *contract.TxError
	if errors.As(err, &txErr) {
		return txErr.Hash
	}
	return common.Hash{}
}
