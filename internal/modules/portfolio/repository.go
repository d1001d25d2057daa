package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Schema is the ledger DDL, applied idempotently at startup
const Schema = `
CREATE TABLE IF NOT EXISTS transactions (
    id          TEXT PRIMARY KEY,
    asset_id    TEXT NOT NULL,
    side        TEXT NOT NULL CHECK (side IN ('buy', 'sell')),
    quantity    REAL NOT NULL CHECK (quantity > 0),
    price_usd   REAL NOT NULL CHECK (price_usd >= 0),
    note        TEXT NOT NULL DEFAULT '',
    executed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_asset ON transactions(asset_id, executed_at);
`

// Repository handles ledger database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// EnsureSchema applies the ledger DDL
func (r *Repository) EnsureSchema() error {
	if _, err := r.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to apply ledger schema: %w", err)
	}
	return nil
}

// Insert stores a transaction, assigning its UUID. The stored transaction
// is returned with ID and normalized timestamp filled in.
func (r *Repository) Insert(txn Transaction) (Transaction, error) {
	txn.ID = uuid.NewString()
	if txn.ExecutedAt.IsZero() {
		txn.ExecutedAt = time.Now().UTC()
	}
	txn.ExecutedAt = txn.ExecutedAt.UTC().Truncate(time.Second)

	_, err := r.db.Exec(
		`INSERT INTO transactions (id, asset_id, side, quantity, price_usd, note, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.AssetID, string(txn.Side), txn.Quantity, txn.PriceUSD, txn.Note,
		txn.ExecutedAt.Unix(),
	)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return txn, nil
}

// GetAll returns every transaction ordered by execution time, oldest first.
// rowid breaks same-second ties in insertion order.
func (r *Repository) GetAll() ([]Transaction, error) {
	return r.query(`SELECT id, asset_id, side, quantity, price_usd, note, executed_at
		FROM transactions ORDER BY executed_at ASC, rowid ASC`)
}

// GetByAsset returns one asset's transactions ordered by execution time
func (r *Repository) GetByAsset(assetID string) ([]Transaction, error) {
	return r.query(`SELECT id, asset_id, side, quantity, price_usd, note, executed_at
		FROM transactions WHERE asset_id = ? ORDER BY executed_at ASC, rowid ASC`, assetID)
}

// Delete removes a transaction by id; reports whether a row was removed
func (r *Repository) Delete(id string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *Repository) query(q string, args ...interface{}) ([]Transaction, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var txn Transaction
		var side string
		var executedAt int64
		if err := rows.Scan(&txn.ID, &txn.AssetID, &side, &txn.Quantity, &txn.PriceUSD, &txn.Note, &executedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Side = Side(side)
		txn.ExecutedAt = time.Unix(executedAt, 0).UTC()
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}
