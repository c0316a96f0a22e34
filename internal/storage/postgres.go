package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres store
func NewPostgresStore(url string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	-- Transactions
	CREATE TABLE IF NOT EXISTS transactions (
		seq BIGSERIAL PRIMARY KEY,
		id UUID NOT NULL UNIQUE,
		operation TEXT NOT NULL,
		chain_id TEXT NOT NULL,
		contract TEXT NOT NULL,
		from_address TEXT NOT NULL,
		tx_hash TEXT NOT NULL DEFAULT '',
		value NUMERIC(78, 0) NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		block_number BIGINT NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	-- Deployments
	CREATE TABLE IF NOT EXISTS deployments (
		seq BIGSERIAL PRIMARY KEY,
		id UUID NOT NULL UNIQUE,
		contract_name TEXT NOT NULL DEFAULT '',
		chain_id TEXT NOT NULL,
		address TEXT NOT NULL,
		deployer_address TEXT NOT NULL,
		tx_hash TEXT NOT NULL,
		block_number BIGINT NOT NULL DEFAULT 0,
		abi JSONB,
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		match_type TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
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
func (s *PostgresStore) RecordTransaction(ctx context.Context, tx *Transaction) error {
	if err := prepareTransaction(tx); err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (id, operation, chain_id, contract, from_address, tx_hash, value, status, block_number, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, query, tx.ID, tx.Operation, tx.ChainID, tx.Contract, tx.From, tx.TxHash, tx.Value, string(tx.Status), tx.BlockNumber, tx.Error).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("recording transaction: %w", err)
	}
	tx.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return nil
}

// SetTransactionHash stores the hash once the node has accepted the transaction
func (s *PostgresStore) SetTransactionHash(ctx context.Context, id, txHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE transactions SET tx_hash = $1 WHERE id = $2`, txHash, id)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTransactionStatus records the outcome of a transaction
func (s *PostgresStore) UpdateTransactionStatus(ctx context.Context, id string, status TxStatus, blockNumber int64, errMsg string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET status = $1, block_number = $2, error = $3 WHERE id = $4`,
		string(status), blockNumber, errMsg, id)
	if err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const pgTransactionColumns = `seq, id::text, operation, chain_id, contract, from_address, tx_hash, value::text, status, block_number, error, created_at`

func scanPgTransaction(row interface{ Scan(...any) error }) (int64, *Transaction, error) {
	var (
		seq       int64
		tx        Transaction
		status    string
		createdAt time.Time
	)
	err := row.Scan(&seq, &tx.ID, &tx.Operation, &tx.ChainID, &tx.Contract, &tx.From, &tx.TxHash, &tx.Value, &status, &tx.BlockNumber, &tx.Error, &createdAt)
	tx.Status = TxStatus(status)
	tx.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return seq, &tx, err
}

// GetTransaction retrieves a transaction by ID
func (s *PostgresStore) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pgTransactionColumns+` FROM transactions WHERE id::text = $1`, id)
	_, tx, err := scanPgTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// ListTransactions lists transactions, newest first
func (s *PostgresStore) ListTransactions(ctx context.Context, filter TransactionFilter, pagination PaginationParams) (*PaginatedResult[Transaction], error) {
	cursor, err := parseCursor(pagination.Cursor)
	if err != nil {
		return nil, err
	}

	var whereClauses []string
	var args []any
	argIdx := 1

	if cursor > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("seq < $%d", argIdx))
		args = append(args, cursor)
		argIdx++
	}
	if filter.Operation != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("operation = $%d", argIdx))
		args = append(args, filter.Operation)
		argIdx++
	}
	if filter.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Contract != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("contract = $%d", argIdx))
		args = append(args, filter.Contract)
		argIdx++
	}

	query := `SELECT ` + pgTransactionColumns + ` FROM transactions`
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY seq DESC LIMIT $%d", argIdx)
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
		seq, tx, err := scanPgTransaction(rows)
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
func (s *PostgresStore) RecordDeployment(ctx context.Context, d *Deployment) error {
	if d.ID == "" {
		d.ID = generateID()
	}

	var abiJSON any
	if d.ABI != "" {
		abiJSON = d.ABI
	}

	query := `
		INSERT INTO deployments (id, contract_name, chain_id, address, deployer_address, tx_hash, block_number, abi, verified, match_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	var createdAt time.Time
	err := s.db.QueryRowContext(ctx, query, d.ID, d.ContractName, d.ChainID, d.Address, d.DeployerAddress, d.TxHash, d.BlockNumber, abiJSON, d.Verified, d.MatchType).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("recording deployment: %w", err)
	}
	d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return nil
}

const pgDeploymentColumns = `seq, id::text, contract_name, chain_id, address, deployer_address, tx_hash, block_number, COALESCE(abi::text, ''), verified, match_type, created_at`

func scanPgDeployment(row interface{ Scan(...any) error }) (int64, *Deployment, error) {
	var (
		seq       int64
		d         Deployment
		createdAt time.Time
	)
	err := row.Scan(&seq, &d.ID, &d.ContractName, &d.ChainID, &d.Address, &d.DeployerAddress, &d.TxHash, &d.BlockNumber, &d.ABI, &d.Verified, &d.MatchType, &createdAt)
	d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return seq, &d, err
}

// GetDeployment retrieves a deployment
func (s *PostgresStore) GetDeployment(ctx context.Context, chainID, address string) (*Deployment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+pgDeploymentColumns+` FROM deployments WHERE chain_id = $1 AND address = $2`, chainID, address)
	_, d, err := scanPgDeployment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListDeployments lists deployments, newest first
func (s *PostgresStore) ListDeployments(ctx context.Context, filter DeploymentFilter, pagination PaginationParams) (*PaginatedResult[Deployment], error) {
	cursor, err := parseCursor(pagination.Cursor)
	if err != nil {
		return nil, err
	}

	var whereClauses []string
	var args []any
	argIdx := 1

	if cursor > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("seq < $%d", argIdx))
		args = append(args, cursor)
		argIdx++
	}
	if filter.ChainID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("chain_id = $%d", argIdx))
		args = append(args, filter.ChainID)
		argIdx++
	}

	query := `SELECT ` + pgDeploymentColumns + ` FROM deployments`
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY seq DESC LIMIT $%d", argIdx)
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
		seq, d, err := scanPgDeployment(rows)
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
