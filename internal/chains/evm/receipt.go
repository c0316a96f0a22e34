package evm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/time/rate"
)

// ErrReceiptTimeout is returned when a transaction is not mined before the
// wait context ends. The transaction may still be mined later.
var ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")

// ReceiptFetcher looks up transaction receipts.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// WaitForReceipt polls f until the receipt for hash is available. A missing
// receipt is treated as pending and retried at most once per interval until
// ctx is done.
func WaitForReceipt(ctx context.Context, f ReceiptFetcher, hash common.Hash, interval time.Duration) (*types.Receipt, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, waitError(ctx, hash)
		}

		receipt, err := f.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
			continue
		case ctx.Err() != nil:
			return nil, waitError(ctx, hash)
		default:
			return nil, fmt.Errorf("fetching receipt for %s: %w", hash.Hex(), err)
		}
	}
}

// waitError reports why the wait for hash ended. Cancellation is not a
// timeout; anything else, including a deadline the limiter would overrun,
// is.
func waitError(ctx context.Context, hash common.Hash) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("waiting for receipt of %s: %w", hash.Hex(), ctx.Err())
	}
	return fmt.Errorf("%w: %s", ErrReceiptTimeout, hash.Hex())
}
