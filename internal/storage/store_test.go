package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

// runStoreTests exercises any Store implementation against a freshly
// migrated, empty database.
func runStoreTests(t *testing.T, store Store) {
	ctx := context.Background()
	const contract = "0x00000000000000000000000000000000000000cc"

	t.Run("RecordAndGetTransaction", func(t *testing.T) {
		tx := &Transaction{
			Operation: "donate",
			ChainID:   "1337",
			Contract:  contract,
			From:      "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			Value:     "10000000000000000000",
		}
		if err := store.RecordTransaction(ctx, tx); err != nil {
			t.Fatalf("RecordTransaction() error = %v", err)
		}
		if tx.ID == "" {
			t.Fatal("RecordTransaction() did not assign an ID")
		}

		got, err := store.GetTransaction(ctx, tx.ID)
		if err != nil {
			t.Fatalf("GetTransaction() error = %v", err)
		}
		if got.Status != StatusSubmitted {
			t.Errorf("GetTransaction().Status = %v, want %v", got.Status, StatusSubmitted)
		}
		if got.Value != tx.Value {
			t.Errorf("GetTransaction().Value = %v, want %v", got.Value, tx.Value)
		}
		if got.CreatedAt == "" {
			t.Error("GetTransaction().CreatedAt is empty")
		}
	})

	t.Run("UpdateTransaction", func(t *testing.T) {
		tx := &Transaction{Operation: "withdraw_matching_funds", ChainID: "1337", Contract: contract, From: "0xabc"}
		if err := store.RecordTransaction(ctx, tx); err != nil {
			t.Fatalf("RecordTransaction() error = %v", err)
		}
		if err := store.SetTransactionHash(ctx, tx.ID, "0xfeed"); err != nil {
			t.Fatalf("SetTransactionHash() error = %v", err)
		}
		if err := store.UpdateTransactionStatus(ctx, tx.ID, StatusReverted, 42, "transaction reverted"); err != nil {
			t.Fatalf("UpdateTransactionStatus() error = %v", err)
		}

		got, err := store.GetTransaction(ctx, tx.ID)
		if err != nil {
			t.Fatalf("GetTransaction() error = %v", err)
		}
		if got.Status != StatusReverted || got.BlockNumber != 42 || got.TxHash != "0xfeed" || got.Error != "transaction reverted" {
			t.Errorf("GetTransaction() = %+v", got)
		}

		if err := store.UpdateTransactionStatus(ctx, tx.ID, "bogus", 0, ""); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("UpdateTransactionStatus(bogus) error = %v, want ErrInvalidStatus", err)
		}
		if err := store.UpdateTransactionStatus(ctx, uuid.NewString(), StatusSuccess, 1, ""); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateTransactionStatus(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("GetTransactionNotFound", func(t *testing.T) {
		if _, err := store.GetTransaction(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetTransaction() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListTransactions", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			tx := &Transaction{Operation: "deposit_matching_funds", ChainID: "1337", Contract: "0xlist", From: "0xabc", Status: StatusSuccess}
			if err := store.RecordTransaction(ctx, tx); err != nil {
				t.Fatalf("RecordTransaction() error = %v", err)
			}
		}
		failed := &Transaction{Operation: "donate", ChainID: "1337", Contract: "0xlist", From: "0xabc", Status: StatusFailed}
		if err := store.RecordTransaction(ctx, failed); err != nil {
			t.Fatalf("RecordTransaction() error = %v", err)
		}

		first, err := store.ListTransactions(ctx, TransactionFilter{Contract: "0xlist"}, PaginationParams{Limit: 3})
		if err != nil {
			t.Fatalf("ListTransactions() error = %v", err)
		}
		if len(first.Data) != 3 || !first.HasMore {
			t.Fatalf("ListTransactions() = %d items, hasMore %v", len(first.Data), first.HasMore)
		}
		if first.Data[0].ID != failed.ID {
			t.Errorf("ListTransactions() first = %s, want newest %s", first.Data[0].ID, failed.ID)
		}

		second, err := store.ListTransactions(ctx, TransactionFilter{Contract: "0xlist"}, PaginationParams{Limit: 3, Cursor: first.NextCursor})
		if err != nil {
			t.Fatalf("ListTransactions() error = %v", err)
		}
		if len(second.Data) != 1 || second.HasMore {
			t.Errorf("ListTransactions() page 2 = %d items, hasMore %v", len(second.Data), second.HasMore)
		}

		onlyFailed, err := store.ListTransactions(ctx, TransactionFilter{Contract: "0xlist", Status: StatusFailed}, PaginationParams{})
		if err != nil {
			t.Fatalf("ListTransactions() error = %v", err)
		}
		if len(onlyFailed.Data) != 1 {
			t.Errorf("ListTransactions(status=failed) = %d items, want 1", len(onlyFailed.Data))
		}

		if _, err := store.ListTransactions(ctx, TransactionFilter{}, PaginationParams{Cursor: "nope"}); !errors.Is(err, ErrInvalidCursor) {
			t.Errorf("ListTransactions(bad cursor) error = %v, want ErrInvalidCursor", err)
		}
	})

	t.Run("Deployments", func(t *testing.T) {
		d := &Deployment{
			ContractName:    "Matching",
			ChainID:         "1337",
			Address:         "0x00000000000000000000000000000000000000dd",
			DeployerAddress: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			TxHash:          "0xbeef",
			BlockNumber:     7,
			ABI:             `[{"type":"constructor","inputs":[]}]`,
			Verified:        true,
			MatchType:       "full",
		}
		if err := store.RecordDeployment(ctx, d); err != nil {
			t.Fatalf("RecordDeployment() error = %v", err)
		}

		got, err := store.GetDeployment(ctx, "1337", d.Address)
		if err != nil {
			t.Fatalf("GetDeployment() error = %v", err)
		}
		if got.TxHash != "0xbeef" || !got.Verified || got.MatchType != "full" || got.BlockNumber != 7 {
			t.Errorf("GetDeployment() = %+v", got)
		}
		if got.ABI == "" {
			t.Error("GetDeployment().ABI is empty")
		}

		if _, err := store.GetDeployment(ctx, "1", d.Address); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetDeployment(other chain) error = %v, want ErrNotFound", err)
		}

		dup := *d
		dup.ID = ""
		if err := store.RecordDeployment(ctx, &dup); err == nil {
			t.Error("RecordDeployment() duplicate address should fail")
		}

		list, err := store.ListDeployments(ctx, DeploymentFilter{ChainID: "1337"}, PaginationParams{Limit: 10})
		if err != nil {
			t.Fatalf("ListDeployments() error = %v", err)
		}
		if len(list.Data) != 1 || list.HasMore {
			t.Errorf("ListDeployments() = %d items, hasMore %v", len(list.Data), list.HasMore)
		}
	})
}
