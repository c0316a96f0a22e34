package storage

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// generateID generates a new UUID
func generateID() string {
	return uuid.New().String()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// parseCursor returns the sequence number encoded in a cursor, or 0 for none.
func parseCursor(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	seq, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	return seq, nil
}

// page trims one-past-the-limit results and sets the next cursor.
func page[T any](items []T, seqs []int64, limit int) *PaginatedResult[T] {
	res := &PaginatedResult[T]{Data: items}
	if len(items) > limit {
		res.Data = items[:limit]
		res.HasMore = true
		res.NextCursor = strconv.FormatInt(seqs[limit-1], 10)
	}
	return res
}

func prepareTransaction(tx *Transaction) error {
	if tx.ID == "" {
		tx.ID = generateID()
	}
	if tx.Status == "" {
		tx.Status = StatusSubmitted
	}
	if !tx.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, tx.Status)
	}
	if tx.Value == "" {
		tx.Value = "0"
	}
	return nil
}
