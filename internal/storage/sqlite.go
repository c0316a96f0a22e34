package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	schema := `
	-- Transactions
	CREATE TABLE IF NOT EXISTS transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		operation TEXT NOT NULL,
		chain_id TEXT NOT NULL,
		contract TEXT NOT NULL,
		from_address TEXT NOT NULL,
		tx_hash TEXT NOT NULL DEFAULT '',
		value TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL,
		block_number INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Deployments
	CREATE TABLE IF NOT EXISTS deployments (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		contract_name TEXT NOT NULL DEFAULT '',
		chain_id TEXT NOT NULL,
		address TEXT NOT NULL,
		deployer_address TEXT NOT NULL,
		tx_hash TEXT NOT NULL,
		block_number INTEGER NOT NULL DEFAULT 0,
		abi TEXT NOT NULL DEFAULT '',
		verified INTEGER NOT NULL DEFAULT 0,
		match_type TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		UNIQUE(chain_id, address)
	);

	-- Indexes
	CREATE INDEX IF NOT EXISTS idx_transactions_contract ON transactions(contract);
	CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// RecordTransaction stores a new transaction, assigning an ID if empty
func (s *SQLiteStore) RecordTransaction(ctx context.Context, tx *Transaction) error {
	if err := prepareTransaction(tx); err != nil {
		return err
	}
	tx.CreatedAt = now()

	query := `
		INSERT INTO transactions (id, operation, chain_id, contract, from_address, tx_hash, value, status, block_number, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, tx.ID, tx.Operation, tx.ChainID, tx.Contract, tx.From, tx.TxHash, tx.Value, string(tx.Status), tx.BlockNumber, tx.Error, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording transaction: %w", err)
	}
	return nil
}

// UpdateTransactionStatus records the outcome of a transaction
func (s *SQLiteStore) UpdateTransactionStatus(ctx context.Context, id string, status TxStatus, blockNumber int64, errMsg string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET status = ?, block_number = ?, error = ? WHERE id = ?`,
		string(status), blockNumber, errMsg, id)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTransactionHash stores the hash once the node has accepted the transaction
func (s *SQLiteStore) SetTransactionHash(ctx context.Context, id, txHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE transactions SET tx_hash = ? WHERE id = ?`, txHash, id)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const sqliteTransactionColumns = `seq, id, operation, chain_id, contract, from_address, tx_hash, value, status, block_number, error, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (int64, *Transaction, error) {
	var (
		seq    int64
		tx     Transaction
		status string
	)
	err := row.Scan(&seq, &tx.ID, &tx.Operation, &tx.ChainID, &tx.Contract, &tx.From, &tx.TxHash, &tx.Value, &status, &tx.BlockNumber, &tx.Error, &tx.CreatedAt)
	tx.Status = TxStatus(status)
	return seq, &tx, err
}

// GetTransaction retrieves a transaction by ID
func (s *SQLiteStore) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteTransactionColumns+` FROM transactions WHERE id = ?`, id)
	_, tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// ListTransactions lists transactions, newest first
func (s *SQLiteStore) ListTransactions(ctx context.Context, filter TransactionFilter, pagination PaginationParams) (*PaginatedResult[Transaction], error) {
	cursor, err := parseCursor(pagination.Cursor)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.Operation != "" {
		where = append(where, "operation = ?")
		args = append(args, filter.Operation)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Contract != "" {
		where = append(where, "contract = ?")
		args = append(args, filter.Contract)
	}
	if cursor > 0 {
		where = append(where, "seq < ?")
		args = append(args, cursor)
	}

	query := `SELECT ` + sqliteTransactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC LIMIT ?"
	limit := pagination.limit()
	args = append(args, limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		txs  []Transaction
		seqs []int64
	)
	for rows.Next() {
		seq, tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return page(txs, seqs, limit), nil
}

// RecordDeployment records a deployment
func (s *SQLiteStore) RecordDeployment(ctx context.Context, d *Deployment) error {
	if d.ID == "" {
		d.ID = generateID()
	}
	d.CreatedAt = now()

	query := `
		INSERT INTO deployments (id, contract_name, chain_id, address, deployer_address, tx_hash, block_number, abi, verified, match_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, d.ID, d.ContractName, d.ChainID, d.Address, d.DeployerAddress, d.TxHash, d.BlockNumber, d.ABI, d.Verified, d.MatchType, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording deployment: %w", err)
	}
	return nil
}

const sqliteDeploymentColumns = `seq, id, contract_name, chain_id, address, deployer_address, tx_hash, block_number, abi, verified, match_type, created_at`

func scanDeployment(row interface{ Scan(...any) error }) (int64, *Deployment, error) {
	var (
		seq int64
		d   Deployment
	)
	err := row.Scan(&seq, &d.ID, &d.ContractName, &d.ChainID, &d.Address, &d.DeployerAddress, &d.TxHash, &d.BlockNumber, &d.ABI, &d.Verified, &d.MatchType, &d.CreatedAt)
	return seq, &d, err
}

// GetDeployment retrieves a deployment
func (s *SQLiteStore) GetDeployment(ctx context.Context, chainID, address string) (*Deployment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteDeploymentColumns+` FROM deployments WHERE chain_id = ? AND address = ?`, chainID, address)
	_, d, err := scanDeployment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListDeployments lists deployments, newest first
func (s *SQLiteStore) ListDeployments(ctx context.Context, filter DeploymentFilter, pagination PaginationParams) (*PaginatedResult[Deployment], error) {
	cursor, err := parseCursor(pagination.Cursor)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.ChainID != "" {
		where = append(where, "chain_id = ?")
		args = append(args, filter.ChainID)
	}
	if cursor > 0 {
		where = append(where, "seq < ?")
		args = append(args, cursor)
	}

	query := `SELECT ` + sqliteDeploymentColumns + ` FROM deployments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC LIMIT ?"
	limit := pagination.limit()
	args = append(args, limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		deployments []Deployment
		seqs        []int64
	)
	for rows.Next() {
		seq, d, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, *d)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return page(deployments, seqs, limit), nil
}
