package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/matchfund/internal/chains/evm"
	"github.com/pendergraft/matchfund/internal/config"
	"github.com/pendergraft/matchfund/internal/contract"
	"github.com/pendergraft/matchfund/internal/observability/metrics"
	"github.com/pendergraft/matchfund/internal/storage"
)

func TestTxStatus(t *testing.T) {
	hash := common.HexToHash("0x01")
	tests := []struct {
		name string
		err  error
		want storage.TxStatus
	}{
		{"success", nil, storage.StatusSuccess},
		{"reverted", &contract.TxError{Op: "donate", Hash: hash, Err: contract.ErrReverted}, storage.StatusReverted},
		{"timeout", &contract.TxError{Op: "donate", Hash: hash, Err: fmt.Errorf("%w: %s", evm.ErrReceiptTimeout, hash.Hex())}, storage.StatusTimeout},
		{"rejected", &contract.TxError{Op: "donate", Err: errors.New("insufficient funds")}, storage.StatusFailed},
		{"canceled while waiting", &contract.TxError{Op: "donate", Hash: hash, Err: fmt.Errorf("waiting for receipt: %w", context.Canceled)}, storage.StatusFailed},
		{"other", context.Canceled, storage.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, txStatus(tt.err))
		})
	}
}

func TestTxHash(t *testing.T) {
	hash := common.HexToHash("0x02")

	assert.Equal(t, testReceipt.TxHash, txHash(testReceipt, nil))
	assert.Equal(t, hash, txHash(nil, &contract.TxError{Op: "donate", Hash: hash, Err: contract.ErrReverted}))
	assert.Equal(t, common.Hash{}, txHash(nil, errors.New("dial failed")))
}

func newJournalSession(t *testing.T) *session {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"), logger)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { store.Close() })

	return &session{
		cfg:     &config.Config{},
		logger:  logger,
		chainID: big.NewInt(1337),
		from:    me,
		timeout: time.Second,
		journal: store,
	}
}

func TestSession_ExecuteJournalsOutcome(t *testing.T) {
	metrics.Init(true)
	t.Cleanup(func() { metrics.Init(false) })

	s := newJournalSession(t)
	ctx := context.Background()
	to := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	revertHash := common.HexToHash("0xdead")

	receipt, err := s.execute(ctx, contract.MethodDonate, to, ether(1), func(ctx context.Context) (*types.Receipt, error) {
		_, ok := ctx.Deadline()
		assert.True(t, ok, "calls run under the transaction timeout")
		return testReceipt, nil
	})
	require.NoError(t, err)
	assert.Equal(t, testReceipt, receipt)

	_, err = s.execute(ctx, contract.MethodWithdraw, to, nil, func(context.Context) (*types.Receipt, error) {
		return nil, &contract.TxError{Op: contract.MethodWithdraw, Hash: revertHash, Err: contract.ErrReverted}
	})
	assert.ErrorIs(t, err, contract.ErrReverted)

	res, err := s.journal.ListTransactions(ctx, storage.TransactionFilter{}, storage.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)

	// newest first
	withdrawn, donated := res.Data[0], res.Data[1]

	assert.Equal(t, contract.MethodDonate, donated.Operation)
	assert.Equal(t, storage.StatusSuccess, donated.Status)
	assert.Equal(t, "1337", donated.ChainID)
	assert.Equal(t, to.Hex(), donated.Contract)
	assert.Equal(t, me.Hex(), donated.From)
	assert.Equal(t, ether(1).String(), donated.Value)
	assert.Equal(t, testReceipt.TxHash.Hex(), donated.TxHash)
	assert.Equal(t, int64(7), donated.BlockNumber)
	assert.Empty(t, donated.Error)

	assert.Equal(t, storage.StatusReverted, withdrawn.Status)
	assert.Equal(t, "0", withdrawn.Value)
	assert.Equal(t, revertHash.Hex(), withdrawn.TxHash)
	assert.Contains(t, withdrawn.Error, "transaction reverted")

	calls, err := testutil.GatherAndCount(metrics.Gatherer(), "matchfund_contract_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	waits, err := testutil.GatherAndCount(metrics.Gatherer(), "matchfund_receipt_wait_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, waits, "only mined calls observe a receipt wait")
}

func TestSession_ExecuteWithoutJournal(t *testing.T) {
	s := &session{
		cfg:     &config.Config{},
		logger:  slog.New(slog.DiscardHandler),
		chainID: big.NewInt(1),
		from:    me,
		timeout: time.Second,
	}

	_, err := s.execute(context.Background(), contract.MethodDonate, common.Address{}, nil, func(context.Context) (*types.Receipt, error) {
		return nil, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}

func TestSession_ExecuteTimesOut(t *testing.T) {
	s := newJournalSession(t)
	s.timeout = 10 * time.Millisecond

	_, err := s.execute(context.Background(), contract.MethodDeposit, common.Address{}, ether(2), func(ctx context.Context) (*types.Receipt, error) {
		<-ctx.Done()
		return nil, &contract.TxError{Op: contract.MethodDeposit, Hash: common.HexToHash("0xbeef"), Err: fmt.Errorf("%w: 0xbeef", evm.ErrReceiptTimeout)}
	})
	assert.ErrorIs(t, err, evm.ErrReceiptTimeout)

	res, err := s.journal.ListTransactions(context.Background(), storage.TransactionFilter{Status: storage.StatusTimeout}, storage.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, ether(2).String(), res.Data[0].Value)
}
