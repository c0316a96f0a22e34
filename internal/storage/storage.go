// Package storage is the local journal of submitted transactions and
// contract deployments.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pendergraft/matchfund/internal/config"
)

// TransactionStore handles journaled transactions
type TransactionStore interface {
	RecordTransaction(ctx context.Context, tx *Transaction) error
	SetTransactionHash(ctx context.Context, id, txHash string) error
	UpdateTransactionStatus(ctx context.Context, id string, status TxStatus, blockNumber int64, errMsg string) error
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter, pagination PaginationParams) (*PaginatedResult[Transaction], error)
}

// DeploymentStore handles deployment operations
type DeploymentStore interface {
	RecordDeployment(ctx context.Context, d *Deployment) error
	GetDeployment(ctx context.Context, chainID, address string) (*Deployment, error)
	ListDeployments(ctx context.Context, filter DeploymentFilter, pagination PaginationParams) (*PaginatedResult[Deployment], error)
}

// Store combines all storage interfaces with lifecycle methods.
type Store interface {
	TransactionStore
	DeploymentStore

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}

// TxStatus is the lifecycle state of a journaled transaction
type TxStatus string

// Transaction statuses
const (
	StatusSubmitted TxStatus = "submitted"
	StatusSuccess   TxStatus = "success"
	StatusReverted  TxStatus = "reverted"
	StatusFailed    TxStatus = "failed"
	StatusTimeout   TxStatus = "timeout"
)

// Valid reports whether s is a known status
func (s TxStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusSuccess, StatusReverted, StatusFailed, StatusTimeout:
		return true
	}
	return false
}

// Transaction is a state-changing contract call made by this client
type Transaction struct {
	ID          string   `json:"id"`
	Operation   string   `json:"operation"`
	ChainID     string   `json:"chainId"`
	Contract    string   `json:"contract,omitempty"`
	From        string   `json:"from"`
	TxHash      string   `json:"txHash,omitempty"`
	Value       string   `json:"value"` // wei, decimal
	Status      TxStatus `json:"status"`
	BlockNumber int64    `json:"blockNumber,omitempty"`
	Error       string   `json:"error,omitempty"`
	CreatedAt   string   `json:"createdAt"`
}

// Deployment represents a recorded deployment
type Deployment struct {
	ID              string `json:"id"`
	ContractName    string `json:"contractName"`
	ChainID         string `json:"chainId"`
	Address         string `json:"address"`
	DeployerAddress string `json:"deployerAddress"`
	TxHash          string `json:"txHash"`
	BlockNumber     int64  `json:"blockNumber"`
	ABI             string `json:"abi,omitempty"`
	Verified        bool   `json:"verified"`
	MatchType       string `json:"matchType,omitempty"` // full, partial, none or empty when not checked
	CreatedAt       string `json:"createdAt"`
}

// TransactionFilter contains filter options for listing transactions
type TransactionFilter struct {
	Operation string
	Status    TxStatus
	Contract  string
}

// DeploymentFilter contains filter options for listing deployments
type DeploymentFilter struct {
	ChainID string
}

// PaginationParams contains pagination options
type PaginationParams struct {
	Limit  int
	Cursor string
}

// PaginatedResult contains paginated results
type PaginatedResult[T any] struct {
	Data       []T    `json:"data"`
	HasMore    bool   `json:"hasMore"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// DefaultLimit is used when PaginationParams.Limit is not positive.
const DefaultLimit = 20

func (p PaginationParams) limit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}
	return p.Limit
}

// New creates a new store based on configuration
func New(cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite.Path, logger)
	case "postgres":
		return NewPostgresStore(cfg.Postgres.URL, logger)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
