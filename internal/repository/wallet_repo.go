package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/evetabi/roulette/internal/domain"
)

// WalletRepository handles all database operations for player Wallets and
// their Transaction audit trail. Players are identified directly by address
// string — there is no user/session model in this deployment.
type WalletRepository struct {
	db *sqlx.DB
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetByPlayer fetches the wallet belonging to a player, creating one with a
// zero balance on first sight.
func (r *WalletRepository) GetByPlayer(ctx context.Context, player string) (*domain.Wallet, error) {
	var w domain.Wallet
	err := r.db.GetContext(ctx, &w, `SELECT * FROM wallets WHERE player = $1`, player)
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("wallet_repo.GetByPlayer: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO wallets (player, balance, created_at, updated_at)
		VALUES ($1, 0, now(), now())
		ON CONFLICT (player) DO NOTHING`, player)
	if err != nil {
		return nil, fmt.Errorf("wallet_repo.GetByPlayer create: %w", err)
	}
	if err := r.db.GetContext(ctx, &w, `SELECT * FROM wallets WHERE player = $1`, player); err != nil {
		return nil, fmt.Errorf("wallet_repo.GetByPlayer reread: %w", err)
	}
	return &w, nil
}

// DeductBalance subtracts amount from a player's balance inside a
// transaction. Uses FOR UPDATE to prevent races; returns
// ErrInsufficientBalance when the balance would go negative. Returns the
// balance immediately before and after the deduction, read and written
// inside the same tx, so callers can log an accurate audit trail instead of
// re-reading the balance non-transactionally after commit.
func (r *WalletRepository) DeductBalance(ctx context.Context, tx *sqlx.Tx, player string, amount decimal.Decimal) (before, after decimal.Decimal, err error) {
	err = tx.GetContext(ctx, &before,
		`SELECT balance FROM wallets WHERE player = $1 FOR UPDATE`, player)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, decimal.Zero, domain.ErrWalletNotFound
		}
		return decimal.Zero, decimal.Zero, fmt.Errorf("wallet_repo.DeductBalance lock: %w", err)
	}
	if before.LessThan(amount) {
		return decimal.Zero, decimal.Zero, domain.ErrInsufficientBalance
	}
	after = before.Sub(amount)
	_, err = tx.ExecContext(ctx,
		`UPDATE wallets SET balance = balance - $1, updated_at = now() WHERE player = $2`,
		amount, player)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("wallet_repo.DeductBalance update: %w", err)
	}
	return before, after, nil
}

// AddBalance credits amount to a player's wallet inside a transaction.
// Saturates at zero on the rare path where a caller credits a negative
// amount — normal callers never do. Returns the balance immediately before
// and after the credit: after is read back inside tx via RETURNING and
// before is computed as after minus amount, so the caller never needs a
// non-transactional re-read to log an audit trail.
func (r *WalletRepository) AddBalance(ctx context.Context, tx *sqlx.Tx, player string, amount decimal.Decimal) (before, after decimal.Decimal, err error) {
	err = tx.GetContext(ctx, &after,
		`UPDATE wallets SET balance = GREATEST(balance + $1, 0), updated_at = now() WHERE player = $2 RETURNING balance`,
		amount, player)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("wallet_repo.AddBalance: %w", err)
	}
	before = after.Sub(amount)
	return before, after, nil
}

// LogTransaction inserts an audit record into wallet_transactions inside a
// transaction.
func (r *WalletRepository) LogTransaction(ctx context.Context, tx *sqlx.Tx, txn *domain.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	query := `
		INSERT INTO wallet_transactions
			(id, player, type, amount, balance_before, balance_after, ref_round, description, created_at)
		VALUES
			(:id, :player, :type, :amount, :balance_before, :balance_after, :ref_round, :description, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, txn); err != nil {
		return fmt.Errorf("wallet_repo.LogTransaction: %w", err)
	}
	return nil
}

// GetTransactions returns paginated transaction history for a player.
func (r *WalletRepository) GetTransactions(ctx context.Context, player string, limit, offset int) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	err := r.db.SelectContext(ctx, &txns, `
		SELECT * FROM wallet_transactions
		WHERE player = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		player, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("wallet_repo.GetTransactions: %w", err)
	}
	return txns, nil
}

// AdminAdjustBalance applies a signed decimal adjustment to a player's
// balance directly (positive = credit, negative = debit), outside any
// transaction. The admin emergency-withdraw path (RoundService.Withdraw)
// credits its recipient through AddBalance, not through this method.
func (r *WalletRepository) AdminAdjustBalance(ctx context.Context, player string, amount decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE wallets SET balance = GREATEST(balance + $1, 0), updated_at = now() WHERE player = $2`,
		amount, player)
	if err != nil {
		return fmt.Errorf("wallet_repo.AdminAdjustBalance: %w", err)
	}
	return nil
}
